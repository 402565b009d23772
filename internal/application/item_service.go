package application

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	commentDomain "github.com/shareit/service-booking/internal/domain/comment"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/platform/apperr"
	"github.com/shareit/service-booking/internal/platform/clock"
)

// ItemService implements use cases for item listings.
type ItemService struct {
	items    itemDomain.ItemRepository
	users    userDomain.UserRepository
	bookings bookingDomain.BookingRepository
	comments commentDomain.CommentRepository
	clock    clock.Clock
	logger   *zap.Logger
}

// NewItemService creates a new ItemService.
func NewItemService(
	items itemDomain.ItemRepository,
	users userDomain.UserRepository,
	bookings bookingDomain.BookingRepository,
	comments commentDomain.CommentRepository,
	clk clock.Clock,
	logger *zap.Logger,
) *ItemService {
	return &ItemService{
		items:    items,
		users:    users,
		bookings: bookings,
		comments: comments,
		clock:    clk,
		logger:   logger,
	}
}

// CreateItem lists a new item for ownerID.
func (s *ItemService) CreateItem(ctx context.Context, ownerID uuid.UUID, req CreateItemRequest) (*ItemDTO, error) {
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}

	available := req.Available != nil && *req.Available
	it, err := itemDomain.NewItem(ownerID, req.Name, req.Description, available)
	if err != nil {
		return nil, err
	}
	if err := s.items.Save(ctx, it); err != nil {
		return nil, fmt.Errorf("failed to save item: %w", err)
	}

	s.logger.Info("item created",
		zap.String("item_id", it.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)

	dto := toItemDTO(it)
	return &dto, nil
}

// UpdateItem applies a partial update. Only the owner may edit an item.
func (s *ItemService) UpdateItem(ctx context.Context, ownerID, itemID uuid.UUID, req UpdateItemRequest) (*ItemDTO, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !it.IsOwnedBy(ownerID) {
		return nil, apperr.NewNotFound("only the owner may edit the item")
	}

	if err := it.Update(req.Name, req.Description, req.Available); err != nil {
		return nil, err
	}
	if err := s.items.Update(ctx, it); err != nil {
		return nil, err
	}

	dto := toItemDTO(it)
	return &dto, nil
}

// GetItem returns an item with its comments. The owner also sees the last
// and next approved bookings.
func (s *ItemService) GetItem(ctx context.Context, requesterID, itemID uuid.UUID) (*ItemDTO, error) {
	it, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	dto, err := s.enrich(ctx, it, it.IsOwnedBy(requesterID))
	if err != nil {
		return nil, err
	}
	return &dto, nil
}

// ListOwnItems returns one page of the items ownerID listed, each with its
// booking neighbours and comments.
func (s *ItemService) ListOwnItems(ctx context.Context, ownerID uuid.UUID, from, size int) ([]ItemDTO, error) {
	page, err := bookingDomain.PageFromOffset(from, size)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.FindByID(ctx, ownerID); err != nil {
		return nil, err
	}

	items, err := s.items.FindByOwnerID(ctx, ownerID, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	result := make([]ItemDTO, len(items))
	for i, it := range items {
		dto, err := s.enrich(ctx, it, true)
		if err != nil {
			return nil, err
		}
		result[i] = dto
	}
	return result, nil
}

// SearchItems returns one page of available items whose name or description
// contains text. Blank text matches nothing.
func (s *ItemService) SearchItems(ctx context.Context, text string, from, size int) ([]ItemDTO, error) {
	page, err := bookingDomain.PageFromOffset(from, size)
	if err != nil {
		return nil, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return []ItemDTO{}, nil
	}

	items, err := s.items.Search(ctx, text, page.Offset(), page.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to search items: %w", err)
	}

	result := make([]ItemDTO, len(items))
	for i, it := range items {
		result[i] = toItemDTO(it)
	}
	return result, nil
}

func (s *ItemService) enrich(ctx context.Context, it *itemDomain.Item, withBookings bool) (ItemDTO, error) {
	dto := toItemDTO(it)

	if withBookings {
		last, next, err := s.adjacentBookings(ctx, it.ID())
		if err != nil {
			return ItemDTO{}, err
		}
		dto.LastBooking = toBookingShortDTO(last)
		dto.NextBooking = toBookingShortDTO(next)
	}

	comments, err := s.comments.FindByItemID(ctx, it.ID())
	if err != nil {
		return ItemDTO{}, fmt.Errorf("failed to load comments: %w", err)
	}
	for _, c := range comments {
		dto.Comments = append(dto.Comments, toCommentDTO(c))
	}
	return dto, nil
}

// adjacentBookings finds the latest approved booking that already started and
// the earliest approved booking still to start.
func (s *ItemService) adjacentBookings(ctx context.Context, itemID uuid.UUID) (last, next *bookingDomain.Booking, err error) {
	now := s.clock.Now()
	approved := bookingDomain.StatusApproved
	first := bookingDomain.Page{Number: 0, Size: 1}

	lastFilter := bookingDomain.ByItems(itemID)
	lastFilter.Status = &approved
	lastFilter.StartBefore = &now
	found, err := s.bookings.Find(ctx, bookingDomain.Query{Filter: lastFilter, Order: bookingDomain.StartDesc, Page: first})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find last booking: %w", err)
	}
	if len(found) > 0 {
		last = found[0]
	}

	nextFilter := bookingDomain.ByItems(itemID)
	nextFilter.Status = &approved
	nextFilter.StartAfter = &now
	found, err = s.bookings.Find(ctx, bookingDomain.Query{Filter: nextFilter, Order: bookingDomain.StartAsc, Page: first})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to find next booking: %w", err)
	}
	if len(found) > 0 {
		next = found[0]
	}
	return last, next, nil
}
