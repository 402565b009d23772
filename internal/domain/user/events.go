package user

import (
	"time"

	"github.com/google/uuid"
)

// TopicUserEvents is published by the account service.
const TopicUserEvents = "user.events"

const (
	EventUserRegistered = "user.registered"
	EventUserUpdated    = "user.updated"
)

// ProfileEvent carries the account fields this service projects.
type ProfileEvent struct {
	UserID     uuid.UUID `json:"user_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}
