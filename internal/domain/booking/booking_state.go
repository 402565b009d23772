package booking

import (
	"strings"
	"time"

	"github.com/shareit/service-booking/internal/platform/apperr"
)

// BookingState classifies bookings at query time. It is never persisted.
type BookingState string

const (
	StateAll      BookingState = "ALL"
	StateCurrent  BookingState = "CURRENT"
	StatePast     BookingState = "PAST"
	StateFuture   BookingState = "FUTURE"
	StateWaiting  BookingState = "WAITING"
	StateRejected BookingState = "REJECTED"
)

// stateFilters narrows a subject filter for each state relative to now.
// WAITING and REJECTED are pure status filters with no temporal bound.
var stateFilters = map[BookingState]func(f *Filter, now time.Time){
	StateAll: func(*Filter, time.Time) {},
	StateCurrent: func(f *Filter, now time.Time) {
		f.StartBefore = &now
		f.EndAfter = &now
	},
	StatePast: func(f *Filter, now time.Time) {
		f.EndBefore = &now
	},
	StateFuture: func(f *Filter, now time.Time) {
		f.StartAfter = &now
	},
	StateWaiting: func(f *Filter, _ time.Time) {
		status := StatusWaiting
		f.Status = &status
	},
	StateRejected: func(f *Filter, _ time.Time) {
		status := StatusRejected
		f.Status = &status
	},
}

// ParseBookingState parses a state token case-insensitively.
func ParseBookingState(raw string) (BookingState, error) {
	state := BookingState(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := stateFilters[state]; !ok {
		return "", apperr.NewInvalidRequest("Unknown state: " + raw)
	}
	return state, nil
}

// String returns the token.
func (s BookingState) String() string {
	return string(s)
}

// Apply returns subject narrowed to the bookings in this state at now.
func (s BookingState) Apply(subject Filter, now time.Time) Filter {
	f := subject
	if narrow, ok := stateFilters[s]; ok {
		narrow(&f, now)
	}
	return f
}
