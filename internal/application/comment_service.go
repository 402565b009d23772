package application

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	commentDomain "github.com/shareit/service-booking/internal/domain/comment"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/platform/apperr"
	"github.com/shareit/service-booking/internal/platform/clock"
)

// CommentService handles item feedback.
type CommentService struct {
	comments commentDomain.CommentRepository
	items    itemDomain.ItemRepository
	users    userDomain.UserRepository
	bookings bookingDomain.BookingRepository
	clock    clock.Clock
	logger   *zap.Logger
}

// NewCommentService creates a new CommentService.
func NewCommentService(
	comments commentDomain.CommentRepository,
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	bookings bookingDomain.BookingRepository,
	clk clock.Clock,
	logger *zap.Logger,
) *CommentService {
	return &CommentService{
		comments: comments,
		items:    items,
		users:    users,
		bookings: bookings,
		clock:    clk,
		logger:   logger,
	}
}

// AddComment records feedback from a user who has finished an approved
// booking of the item.
func (s *CommentService) AddComment(ctx context.Context, authorID, itemID uuid.UUID, req CreateCommentRequest) (*CommentDTO, error) {
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, err
	}
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	approved := bookingDomain.StatusApproved
	completed := bookingDomain.ByItems(itemID)
	completed.BookerID = &authorID
	completed.Status = &approved
	completed.EndBefore = &now

	count, err := s.bookings.Count(ctx, completed)
	if err != nil {
		return nil, fmt.Errorf("failed to check bookings: %w", err)
	}
	if count == 0 {
		return nil, apperr.NewInvalidRequest("only users who completed a booking of this item may comment")
	}

	c, err := commentDomain.NewComment(itemID, author.ID(), author.Name(), req.Text)
	if err != nil {
		return nil, err
	}
	if err := s.comments.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to save comment: %w", err)
	}

	s.logger.Info("comment added",
		zap.String("item_id", itemID.String()),
		zap.String("author_id", authorID.String()),
	)

	dto := toCommentDTO(c)
	return &dto, nil
}

// GetItemComments lists the comments on an item, oldest first.
func (s *CommentService) GetItemComments(ctx context.Context, itemID uuid.UUID) ([]CommentDTO, error) {
	if _, err := s.items.FindByID(ctx, itemID); err != nil {
		return nil, err
	}

	comments, err := s.comments.FindByItemID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}

	result := make([]CommentDTO, len(comments))
	for i, c := range comments {
		result[i] = toCommentDTO(c)
	}
	return result, nil
}
