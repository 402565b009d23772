package application

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	userDomain "github.com/shareit/service-booking/internal/domain/user"
)

// UserService manages the local user directory.
type UserService struct {
	repo   userDomain.UserRepository
	logger *zap.Logger
}

// NewUserService creates a new UserService.
func NewUserService(repo userDomain.UserRepository, logger *zap.Logger) *UserService {
	return &UserService{repo: repo, logger: logger}
}

// RegisterUser adds a user. Emails are unique.
func (s *UserService) RegisterUser(ctx context.Context, req RegisterUserRequest) (*UserDTO, error) {
	u, err := userDomain.NewUser(req.Name, req.Email)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, u); err != nil {
		return nil, err
	}

	dto := toUserDTO(u)
	return &dto, nil
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*UserDTO, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toUserDTO(u)
	return &dto, nil
}

// SyncProfile projects an account-service profile event into the directory.
func (s *UserService) SyncProfile(ctx context.Context, evt userDomain.ProfileEvent) error {
	u, err := userDomain.NewUserWithID(evt.UserID, evt.Name, evt.Email)
	if err != nil {
		return err
	}
	if err := s.repo.Upsert(ctx, u); err != nil {
		return err
	}

	s.logger.Debug("user profile synced", zap.String("user_id", evt.UserID.String()))
	return nil
}
