package user

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shareit/service-booking/internal/platform/apperr"
)

// User is a registered member of the lending platform.
type User struct {
	id        uuid.UUID
	name      string
	email     string
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a user with a fresh id.
func NewUser(name, email string) (*User, error) {
	return newUser(uuid.New(), name, email)
}

// NewUserWithID creates a user whose id was assigned by the account service.
func NewUserWithID(id uuid.UUID, name, email string) (*User, error) {
	if id == uuid.Nil {
		return nil, apperr.NewInvalidRequest("user ID is required")
	}
	return newUser(id, name, email)
}

func newUser(id uuid.UUID, name, email string) (*User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apperr.NewInvalidRequest("user name is required")
	}
	if !strings.Contains(email, "@") {
		return nil, apperr.NewInvalidRequest("user email is invalid")
	}
	now := time.Now().UTC()
	return &User{id: id, name: name, email: strings.ToLower(email), createdAt: now, updatedAt: now}, nil
}

// Reconstruct rebuilds a User from persistence data (no validation).
func Reconstruct(id uuid.UUID, name, email string, createdAt, updatedAt time.Time) *User {
	return &User{id: id, name: name, email: email, createdAt: createdAt, updatedAt: updatedAt}
}

func (u *User) ID() uuid.UUID        { return u.id }
func (u *User) Name() string         { return u.name }
func (u *User) Email() string        { return u.email }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// UserRepository is the user directory.
type UserRepository interface {
	// FindByID returns the user or a NotFound error.
	FindByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Save inserts a new user; a duplicate email is a Conflict.
	Save(ctx context.Context, u *User) error
	// Upsert inserts or replaces a user keyed by id.
	Upsert(ctx context.Context, u *User) error
}
