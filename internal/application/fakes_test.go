package application

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	commentDomain "github.com/shareit/service-booking/internal/domain/comment"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/platform/apperr"
	"github.com/shareit/service-booking/internal/platform/kafka"
)

type fakeBookingRepo struct {
	mu       sync.Mutex
	bookings map[uuid.UUID]*bookingDomain.Booking
}

func newFakeBookingRepo() *fakeBookingRepo {
	return &fakeBookingRepo{bookings: make(map[uuid.UUID]*bookingDomain.Booking)}
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	return bookingDomain.ReconstructBooking(b.ID(), b.Item(), b.Booker(), b.Start(), b.End(), b.Status(), b.Version(), b.CreatedAt(), b.UpdatedAt())
}

func (r *fakeBookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return nil, apperr.NewNotFoundError("Booking", id.String())
	}
	return cloneBooking(b), nil
}

func (r *fakeBookingRepo) Find(_ context.Context, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	matched := []*bookingDomain.Booking{}
	for _, b := range r.bookings {
		if q.Filter.Matches(b) {
			matched = append(matched, cloneBooking(b))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if q.Order == bookingDomain.StartAsc {
			return matched[i].Start().Before(matched[j].Start())
		}
		return matched[i].Start().After(matched[j].Start())
	})

	offset := q.Page.Offset()
	if offset >= len(matched) {
		return []*bookingDomain.Booking{}, nil
	}
	end := offset + q.Page.Size
	if end > len(matched) {
		end = len(matched)
	}
	return matched[offset:end], nil
}

func (r *fakeBookingRepo) Count(_ context.Context, f bookingDomain.Filter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.bookings {
		if f.Matches(b) {
			n++
		}
	}
	return n, nil
}

func (r *fakeBookingRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := make(map[string]int64)
	for _, b := range r.bookings {
		counts[b.Status().String()]++
	}
	return counts, nil
}

func (r *fakeBookingRepo) Save(_ context.Context, b *bookingDomain.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = cloneBooking(b)
	return nil
}

func (r *fakeBookingRepo) CompareAndSetStatus(_ context.Context, id uuid.UUID, expected, next bookingDomain.BookingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.bookings[id]
	if !ok {
		return apperr.NewNotFoundError("Booking", id.String())
	}
	if b.Status() != expected {
		return bookingDomain.ErrStatusMismatch
	}
	r.bookings[id] = bookingDomain.ReconstructBooking(b.ID(), b.Item(), b.Booker(), b.Start(), b.End(), next, b.Version()+1, b.CreatedAt(), b.UpdatedAt())
	return nil
}

// put stores a booking with an arbitrary status, bypassing the lifecycle.
func (r *fakeBookingRepo) put(b *bookingDomain.Booking) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bookings[b.ID()] = b
}

type fakeItemRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*itemDomain.Item
}

func newFakeItemRepo() *fakeItemRepo {
	return &fakeItemRepo{items: make(map[uuid.UUID]*itemDomain.Item)}
}

func (r *fakeItemRepo) FindByID(_ context.Context, id uuid.UUID) (*itemDomain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	it, ok := r.items[id]
	if !ok {
		return nil, apperr.NewNotFoundError("Item", id.String())
	}
	return it, nil
}

func (r *fakeItemRepo) FindByOwnerID(_ context.Context, ownerID uuid.UUID, offset, limit int) ([]*itemDomain.Item, error) {
	return r.page(func(it *itemDomain.Item) bool { return it.OwnerID() == ownerID }, offset, limit), nil
}

func (r *fakeItemRepo) FindIDsByOwnerID(_ context.Context, ownerID uuid.UUID) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	for _, it := range r.page(func(it *itemDomain.Item) bool { return it.OwnerID() == ownerID }, 0, -1) {
		ids = append(ids, it.ID())
	}
	return ids, nil
}

func (r *fakeItemRepo) Search(_ context.Context, text string, offset, limit int) ([]*itemDomain.Item, error) {
	needle := strings.ToLower(text)
	return r.page(func(it *itemDomain.Item) bool {
		return it.Available() &&
			(strings.Contains(strings.ToLower(it.Name()), needle) || strings.Contains(strings.ToLower(it.Description()), needle))
	}, offset, limit), nil
}

// page returns matching items oldest first, ties broken by name. A negative
// limit returns every match.
func (r *fakeItemRepo) page(match func(*itemDomain.Item) bool, offset, limit int) []*itemDomain.Item {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*itemDomain.Item
	for _, it := range r.items {
		if match(it) {
			result = append(result, it)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt().Equal(result[j].CreatedAt()) {
			return result[i].CreatedAt().Before(result[j].CreatedAt())
		}
		return result[i].Name() < result[j].Name()
	})
	if offset >= len(result) {
		return nil
	}
	result = result[offset:]
	if limit >= 0 && limit < len(result) {
		result = result[:limit]
	}
	return result
}

func (r *fakeItemRepo) Save(_ context.Context, it *itemDomain.Item) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[it.ID()] = it
	return nil
}

func (r *fakeItemRepo) Update(ctx context.Context, it *itemDomain.Item) error {
	return r.Save(ctx, it)
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*userDomain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[uuid.UUID]*userDomain.User)}
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, apperr.NewNotFoundError("User", id.String())
	}
	return u, nil
}

func (r *fakeUserRepo) Save(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email() == u.Email() {
			return apperr.NewConflictError("user with email '" + u.Email() + "' already exists")
		}
	}
	r.users[u.ID()] = u
	return nil
}

func (r *fakeUserRepo) Upsert(_ context.Context, u *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.users[u.ID()] = u
	return nil
}

type fakeCommentRepo struct {
	mu       sync.Mutex
	comments []*commentDomain.Comment
}

func (r *fakeCommentRepo) Save(_ context.Context, c *commentDomain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.comments = append(r.comments, c)
	return nil
}

func (r *fakeCommentRepo) FindByItemID(_ context.Context, itemID uuid.UUID) ([]*commentDomain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*commentDomain.Comment
	for _, c := range r.comments {
		if c.ItemID() == itemID {
			result = append(result, c)
		}
	}
	return result, nil
}

type publishedEvent struct {
	topic string
	key   string
	event kafka.CloudEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.events))
	for i, e := range p.events {
		types[i] = e.event.Type
	}
	return types
}
