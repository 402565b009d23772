package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrStatusMismatch is returned by CompareAndSetStatus when the stored status
// is no longer the expected one.
var ErrStatusMismatch = errors.New("booking status changed concurrently")

// BookingRepository defines the persistence contract for booking aggregates.
type BookingRepository interface {
	// FindByID retrieves a booking by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// Find returns one page of bookings matching the query.
	Find(ctx context.Context, q Query) ([]*Booking, error)

	// Count returns the number of bookings matching the filter.
	Count(ctx context.Context, f Filter) (int64, error)

	// CountByStatus returns booking counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new booking.
	Save(ctx context.Context, booking *Booking) error

	// CompareAndSetStatus atomically moves a booking from expected to next.
	// It returns ErrStatusMismatch if the stored status is not expected.
	CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next BookingStatus) error
}
