package booking

import (
	"time"

	"github.com/google/uuid"
)

// TopicBookingEvents is the Kafka topic carrying booking lifecycle events.
const TopicBookingEvents = "booking.events"

// Event types published on TopicBookingEvents.
const (
	EventBookingCreated  = "booking.created"
	EventBookingApproved = "booking.approved"
	EventBookingRejected = "booking.rejected"
)

// LifecycleEvent is the payload of every booking lifecycle event.
type LifecycleEvent struct {
	BookingID  uuid.UUID `json:"booking_id"`
	ItemID     uuid.UUID `json:"item_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	BookerID   uuid.UUID `json:"booker_id"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewLifecycleEvent snapshots b as an event payload.
func NewLifecycleEvent(b *Booking) LifecycleEvent {
	return LifecycleEvent{
		BookingID:  b.ID(),
		ItemID:     b.Item().ID,
		OwnerID:    b.Item().OwnerID,
		BookerID:   b.Booker().ID,
		Start:      b.Start(),
		End:        b.End(),
		Status:     b.Status().String(),
		OccurredAt: time.Now().UTC(),
	}
}

// EventTypeFor returns the event type announcing a transition into status.
func EventTypeFor(status BookingStatus) string {
	switch status {
	case StatusApproved:
		return EventBookingApproved
	case StatusRejected:
		return EventBookingRejected
	default:
		return EventBookingCreated
	}
}
