package booking

import (
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/internal/platform/apperr"
)

// ItemRef is the snapshot of the booked item held by a booking. OwnerID is
// what authorization checks run against.
type ItemRef struct {
	ID      uuid.UUID
	Name    string
	OwnerID uuid.UUID
}

// BookerRef identifies the user who requested the booking.
type BookerRef struct {
	ID   uuid.UUID
	Name string
}

// Booking is the aggregate root for the booking domain.
type Booking struct {
	id     uuid.UUID
	item   ItemRef
	booker BookerRef
	start  time.Time
	end    time.Time
	status BookingStatus

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// NewBooking creates a new Booking with status=WAITING.
func NewBooking(item ItemRef, booker BookerRef, start, end time.Time) (*Booking, error) {
	if item.ID == uuid.Nil {
		return nil, apperr.NewInvalidRequest("item ID is required")
	}
	if booker.ID == uuid.Nil {
		return nil, apperr.NewInvalidRequest("booker ID is required")
	}
	if err := ValidateInterval(start, end); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Booking{
		id:        uuid.New(),
		item:      item,
		booker:    booker,
		start:     start.UTC(),
		end:       end.UTC(),
		status:    StatusWaiting,
		version:   1,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ValidateInterval rejects intervals whose end is not strictly after start.
func ValidateInterval(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.NewInvalidRequest("booking start and end are required")
	}
	if !end.After(start) {
		return apperr.NewInvalidRequest("booking end must be after start")
	}
	return nil
}

// ReconstructBooking rebuilds a Booking from persistence data (no validation).
func ReconstructBooking(
	id uuid.UUID,
	item ItemRef,
	booker BookerRef,
	start, end time.Time,
	status BookingStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Booking {
	return &Booking{
		id:        id,
		item:      item,
		booker:    booker,
		start:     start,
		end:       end,
		status:    status,
		version:   version,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}
}

// --- Getters ---

// ID returns the booking's unique identifier.
func (b *Booking) ID() uuid.UUID { return b.id }

// Item returns the booked item snapshot.
func (b *Booking) Item() ItemRef { return b.item }

// Booker returns the requesting user.
func (b *Booking) Booker() BookerRef { return b.booker }

// Start returns the beginning of the rental interval.
func (b *Booking) Start() time.Time { return b.start }

// End returns the end of the rental interval.
func (b *Booking) End() time.Time { return b.end }

// Status returns the current booking status.
func (b *Booking) Status() BookingStatus { return b.status }

// Version returns the entity version.
func (b *Booking) Version() int64 { return b.version }

// CreatedAt returns the creation timestamp.
func (b *Booking) CreatedAt() time.Time { return b.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (b *Booking) UpdatedAt() time.Time { return b.updatedAt }

// --- Behavior ---

// IsOwnedBy reports whether userID owns the booked item.
func (b *Booking) IsOwnedBy(userID uuid.UUID) bool { return b.item.OwnerID == userID }

// IsVisibleTo reports whether userID is the booker or the item owner.
func (b *Booking) IsVisibleTo(userID uuid.UUID) bool {
	return b.booker.ID == userID || b.IsOwnedBy(userID)
}

// Decide applies the owner's decision. Only a WAITING booking can be decided.
func (b *Booking) Decide(approved bool) error {
	target := DecisionStatus(approved)
	if !b.status.CanTransitionTo(target) {
		return apperr.NewInvalidRequest("booking status must be WAITING")
	}
	b.status = target
	b.version++
	b.updatedAt = time.Now().UTC()
	return nil
}
