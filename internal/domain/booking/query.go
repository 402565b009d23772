package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/internal/platform/apperr"
)

// Filter is a conjunction of booking predicates. Nil fields do not constrain.
// When ScopeItems is set only bookings of ItemIDs match, so an empty ItemIDs
// matches nothing.
type Filter struct {
	BookerID   *uuid.UUID
	ItemIDs    []uuid.UUID
	ScopeItems bool

	StartBefore *time.Time
	StartAfter  *time.Time
	EndBefore   *time.Time
	EndAfter    *time.Time
	Status      *BookingStatus
}

// ByBooker scopes a filter to one booker.
func ByBooker(bookerID uuid.UUID) Filter {
	return Filter{BookerID: &bookerID}
}

// ByItems scopes a filter to a set of items.
func ByItems(itemIDs ...uuid.UUID) Filter {
	ids := make([]uuid.UUID, len(itemIDs))
	copy(ids, itemIDs)
	return Filter{ItemIDs: ids, ScopeItems: true}
}

// MatchesNothing reports whether the item scope is empty.
func (f Filter) MatchesNothing() bool {
	return f.ScopeItems && len(f.ItemIDs) == 0
}

// Matches evaluates the filter against a booking in memory. Store
// implementations must agree with it.
func (f Filter) Matches(b *Booking) bool {
	if f.BookerID != nil && b.Booker().ID != *f.BookerID {
		return false
	}
	if f.ScopeItems && !containsID(f.ItemIDs, b.Item().ID) {
		return false
	}
	if f.StartBefore != nil && !b.Start().Before(*f.StartBefore) {
		return false
	}
	if f.StartAfter != nil && !b.Start().After(*f.StartAfter) {
		return false
	}
	if f.EndBefore != nil && !b.End().Before(*f.EndBefore) {
		return false
	}
	if f.EndAfter != nil && !b.End().After(*f.EndAfter) {
		return false
	}
	if f.Status != nil && b.Status() != *f.Status {
		return false
	}
	return true
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

// SortOrder orders results by booking start.
type SortOrder int

const (
	StartDesc SortOrder = iota
	StartAsc
)

// Page is a zero-based page of a result set.
type Page struct {
	Number int
	Size   int
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int {
	return p.Number * p.Size
}

// PageFromOffset converts the from/size pair of the listing API into a page.
// The page index is from/size rounded down, so a from that is not a multiple
// of size starts at the beginning of the page containing it.
func PageFromOffset(from, size int) (Page, error) {
	if from < 0 || size <= 0 {
		return Page{}, apperr.NewInvalidArgument("request parameters from and size are invalid: from must be >= 0 and size > 0")
	}
	number := 0
	if from != 0 {
		number = from / size
	}
	return Page{Number: number, Size: size}, nil
}

// Query is a filtered, ordered, paged booking lookup.
type Query struct {
	Filter Filter
	Order  SortOrder
	Page   Page
}
