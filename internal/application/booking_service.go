package application

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/metrics"
	"github.com/shareit/service-booking/internal/platform/apperr"
	"github.com/shareit/service-booking/internal/platform/clock"
	"github.com/shareit/service-booking/internal/platform/kafka"
)

const eventSource = "service-booking"

// Listing roles, used as a metrics label.
const (
	roleBooker = "booker"
	roleOwner  = "owner"
)

// EventPublisher publishes CloudEvents to a Kafka topic.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event kafka.CloudEvent) error
}

// BookingService is the booking lifecycle engine: it creates bookings,
// gates status transitions on item ownership and classifies booking lists
// by temporal state.
type BookingService struct {
	repo      bookingDomain.BookingRepository
	items     itemDomain.ItemRepository
	users     userDomain.UserRepository
	publisher EventPublisher
	clock     clock.Clock
	logger    *zap.Logger
}

// NewBookingService creates a new BookingService.
func NewBookingService(
	repo bookingDomain.BookingRepository,
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	publisher EventPublisher,
	clk clock.Clock,
	logger *zap.Logger,
) *BookingService {
	return &BookingService{
		repo:      repo,
		items:     items,
		users:     users,
		publisher: publisher,
		clock:     clk,
		logger:    logger,
	}
}

// CreateBooking books an item for the requester. The booking starts WAITING.
func (s *BookingService) CreateBooking(ctx context.Context, requesterID uuid.UUID, req CreateBookingRequest) (*BookingDTO, error) {
	booker, err := s.users.FindByID(ctx, requesterID)
	if err != nil {
		return nil, err
	}

	it, err := s.items.FindByID(ctx, req.ItemID)
	if err != nil {
		return nil, err
	}
	if !it.Available() {
		return nil, apperr.NewInvalidRequest(fmt.Sprintf("item '%s' is not available for booking", it.ID()))
	}

	if err := bookingDomain.ValidateInterval(req.Start, req.End); err != nil {
		return nil, err
	}

	// Owners cannot book their own items.
	if it.IsOwnedBy(requesterID) {
		return nil, apperr.NewNotFound("cannot book your own item")
	}

	bk, err := bookingDomain.NewBooking(
		bookingDomain.ItemRef{ID: it.ID(), Name: it.Name(), OwnerID: it.OwnerID()},
		bookingDomain.BookerRef{ID: booker.ID(), Name: booker.Name()},
		req.Start,
		req.End,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, bk); err != nil {
		return nil, fmt.Errorf("failed to save booking: %w", err)
	}

	metrics.IncBookingCreated()
	s.publishLifecycle(ctx, bk)

	s.logger.Info("booking created",
		zap.String("booking_id", bk.ID().String()),
		zap.String("item_id", it.ID().String()),
		zap.String("booker_id", requesterID.String()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// UpdateStatus approves or rejects a WAITING booking on behalf of the item
// owner. Of two concurrent decisions on the same booking only one succeeds.
func (s *BookingService) UpdateStatus(ctx context.Context, bookingID uuid.UUID, approved bool, actingUserID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	if !bk.IsOwnedBy(actingUserID) {
		return nil, apperr.NewNotFound("only the item owner may change the booking status")
	}

	previous := bk.Status()
	if err := bk.Decide(approved); err != nil {
		return nil, err
	}

	if err := s.repo.CompareAndSetStatus(ctx, bk.ID(), previous, bk.Status()); err != nil {
		if errors.Is(err, bookingDomain.ErrStatusMismatch) {
			return nil, apperr.NewInvalidRequest("booking status must be WAITING")
		}
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	metrics.IncStatusChange(bk.Status().String())
	s.publishLifecycle(ctx, bk)

	s.logger.Info("booking status changed",
		zap.String("booking_id", bk.ID().String()),
		zap.String("status", bk.Status().String()),
	)

	result := toBookingDTO(bk)
	return &result, nil
}

// GetBooking returns a booking visible to its booker and the item owner.
func (s *BookingService) GetBooking(ctx context.Context, bookingID, requesterID uuid.UUID) (*BookingDTO, error) {
	bk, err := s.repo.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !bk.IsVisibleTo(requesterID) {
		return nil, apperr.NewNotFound("only the booker or the item owner may view the booking")
	}

	result := toBookingDTO(bk)
	return &result, nil
}

// ListByBooker returns the bookings userID made, filtered by state.
func (s *BookingService) ListByBooker(ctx context.Context, userID uuid.UUID, state string, from, size int) ([]BookingDTO, error) {
	return s.list(ctx, roleBooker, userID, state, from, size, func() (bookingDomain.Filter, error) {
		return bookingDomain.ByBooker(userID), nil
	})
}

// ListByOwner returns bookings of every item userID owns, filtered by state.
func (s *BookingService) ListByOwner(ctx context.Context, userID uuid.UUID, state string, from, size int) ([]BookingDTO, error) {
	return s.list(ctx, roleOwner, userID, state, from, size, func() (bookingDomain.Filter, error) {
		itemIDs, err := s.items.FindIDsByOwnerID(ctx, userID)
		if err != nil {
			return bookingDomain.Filter{}, fmt.Errorf("failed to resolve owner items: %w", err)
		}
		return bookingDomain.ByItems(itemIDs...), nil
	})
}

func (s *BookingService) list(
	ctx context.Context,
	role string,
	userID uuid.UUID,
	rawState string,
	from, size int,
	subject func() (bookingDomain.Filter, error),
) ([]BookingDTO, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	page, err := bookingDomain.PageFromOffset(from, size)
	if err != nil {
		return nil, err
	}

	state, err := bookingDomain.ParseBookingState(rawState)
	if err != nil {
		return nil, err
	}

	base, err := subject()
	if err != nil {
		return nil, err
	}

	bookings, err := s.repo.Find(ctx, bookingDomain.Query{
		Filter: state.Apply(base, s.clock.Now()),
		Order:  bookingDomain.StartDesc,
		Page:   page,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	metrics.IncListRequest(role, state.String())
	return toBookingDTOs(bookings), nil
}

// ListAllBookings returns a page of bookings across all users, newest start
// first, optionally narrowed to one status or one item (admin).
func (s *BookingService) ListAllBookings(ctx context.Context, q AdminBookingQuery) ([]BookingDTO, int64, error) {
	if q.Page < 1 || q.Limit < 1 {
		return nil, 0, apperr.NewInvalidArgument("page and limit must be positive")
	}

	var filter bookingDomain.Filter
	if q.ItemID != nil {
		filter = bookingDomain.ByItems(*q.ItemID)
	}
	if q.Status != "" {
		status, err := bookingDomain.ParseBookingStatus(strings.ToUpper(q.Status))
		if err != nil {
			return nil, 0, apperr.NewInvalidRequest(err.Error())
		}
		filter.Status = &status
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	bookings, err := s.repo.Find(ctx, bookingDomain.Query{
		Filter: filter,
		Order:  bookingDomain.StartDesc,
		Page:   bookingDomain.Page{Number: q.Page - 1, Size: q.Limit},
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return toBookingDTOs(bookings), total, nil
}

// GetBookingStats returns aggregate booking statistics (admin).
func (s *BookingService) GetBookingStats(ctx context.Context) (*BookingStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get booking stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &BookingStatsDTO{
		Total:    total,
		ByStatus: counts,
	}, nil
}

func (s *BookingService) publishLifecycle(ctx context.Context, bk *bookingDomain.Booking) {
	s.publishEvent(ctx, bookingDomain.TopicBookingEvents, bk.ID().String(),
		bookingDomain.EventTypeFor(bk.Status()), bookingDomain.NewLifecycleEvent(bk))
}

// publishEvent logs failures instead of returning them.
func (s *BookingService) publishEvent(ctx context.Context, topic, key, eventType string, data interface{}) {
	cloudEvent, err := kafka.NewCloudEvent(eventSource, eventType, data)
	if err != nil {
		s.logger.Error("failed to create cloud event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
		return
	}

	if err := s.publisher.PublishEvent(ctx, topic, key, cloudEvent); err != nil {
		s.logger.Error("failed to publish event",
			zap.String("topic", topic),
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}
