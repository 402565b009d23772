package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	commentDomain "github.com/shareit/service-booking/internal/domain/comment"
	itemDomain "github.com/shareit/service-booking/internal/domain/item"
	userDomain "github.com/shareit/service-booking/internal/domain/user"
	"github.com/shareit/service-booking/internal/platform/apperr"
)

// newTestDB opens a private in-memory sqlite database with the schema applied.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&UserModel{}, &ItemModel{}, &BookingModel{}, &CommentModel{}))
	return db
}

type fixture struct {
	db       *gorm.DB
	users    *GormUserRepository
	items    *GormItemRepository
	bookings *GormBookingRepository
	comments *GormCommentRepository
}

func newFixture(t *testing.T) *fixture {
	db := newTestDB(t)
	return &fixture{
		db:       db,
		users:    NewGormUserRepository(db),
		items:    NewGormItemRepository(db),
		bookings: NewGormBookingRepository(db),
		comments: NewGormCommentRepository(db),
	}
}

func (f *fixture) user(t *testing.T, name string) *userDomain.User {
	t.Helper()
	u, err := userDomain.NewUser(name, name+"@example.com")
	require.NoError(t, err)
	require.NoError(t, f.users.Save(context.Background(), u))
	return u
}

func (f *fixture) item(t *testing.T, owner *userDomain.User, name string) *itemDomain.Item {
	t.Helper()
	it, err := itemDomain.NewItem(owner.ID(), name, "", true)
	require.NoError(t, err)
	require.NoError(t, f.items.Save(context.Background(), it))
	return it
}

func (f *fixture) booking(t *testing.T, it *itemDomain.Item, booker *userDomain.User, start, end time.Time) *bookingDomain.Booking {
	t.Helper()
	bk, err := bookingDomain.NewBooking(
		bookingDomain.ItemRef{ID: it.ID(), Name: it.Name(), OwnerID: it.OwnerID()},
		bookingDomain.BookerRef{ID: booker.ID(), Name: booker.Name()},
		start, end,
	)
	require.NoError(t, err)
	require.NoError(t, f.bookings.Save(context.Background(), bk))
	return bk
}

func TestGormBookingRepository_SaveAndFindByID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	booker := f.user(t, "booker")
	drill := f.item(t, owner, "Drill")

	now := time.Now().UTC().Truncate(time.Second)
	saved := f.booking(t, drill, booker, now.Add(time.Hour), now.Add(2*time.Hour))

	got, err := f.bookings.FindByID(ctx, saved.ID())
	require.NoError(t, err)
	assert.Equal(t, saved.ID(), got.ID())
	assert.Equal(t, "Drill", got.Item().Name)
	assert.Equal(t, owner.ID(), got.Item().OwnerID)
	assert.Equal(t, "booker", got.Booker().Name)
	assert.True(t, saved.Start().Equal(got.Start()))
	assert.True(t, saved.End().Equal(got.End()))
	assert.Equal(t, bookingDomain.StatusWaiting, got.Status())

	_, err = f.bookings.FindByID(ctx, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}

func TestGormBookingRepository_FindFiltersOrdersAndPages(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	booker := f.user(t, "booker")
	other := f.user(t, "other")
	drill := f.item(t, owner, "Drill")
	saw := f.item(t, owner, "Saw")

	now := time.Now().UTC().Truncate(time.Second)
	past := f.booking(t, drill, booker, now.Add(-72*time.Hour), now.Add(-48*time.Hour))
	current := f.booking(t, saw, booker, now.Add(-time.Hour), now.Add(time.Hour))
	future := f.booking(t, drill, booker, now.Add(48*time.Hour), now.Add(72*time.Hour))
	f.booking(t, saw, other, now.Add(24*time.Hour), now.Add(30*time.Hour))

	all, err := f.bookings.Find(ctx, bookingDomain.Query{
		Filter: bookingDomain.ByBooker(booker.ID()),
		Order:  bookingDomain.StartDesc,
		Page:   bookingDomain.Page{Number: 0, Size: 10},
	})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []uuid.UUID{future.ID(), current.ID(), past.ID()}, ids(all))

	page, err := f.bookings.Find(ctx, bookingDomain.Query{
		Filter: bookingDomain.ByBooker(booker.ID()),
		Page:   bookingDomain.Page{Number: 1, Size: 2},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{past.ID()}, ids(page))

	cur, err := f.bookings.Find(ctx, bookingDomain.Query{
		Filter: bookingDomain.StateCurrent.Apply(bookingDomain.ByBooker(booker.ID()), now),
		Page:   bookingDomain.Page{Size: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{current.ID()}, ids(cur))

	drillOnly, err := f.bookings.Find(ctx, bookingDomain.Query{
		Filter: bookingDomain.ByItems(drill.ID()),
		Order:  bookingDomain.StartAsc,
		Page:   bookingDomain.Page{Size: 10},
	})
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{past.ID(), future.ID()}, ids(drillOnly))

	none, err := f.bookings.Find(ctx, bookingDomain.Query{
		Filter: bookingDomain.ByItems(),
		Page:   bookingDomain.Page{Size: 10},
	})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	count, err := f.bookings.Count(ctx, bookingDomain.ByItems(saw.ID()))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestGormBookingRepository_CompareAndSetStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	booker := f.user(t, "booker")
	drill := f.item(t, owner, "Drill")
	now := time.Now().UTC().Truncate(time.Second)
	bk := f.booking(t, drill, booker, now.Add(time.Hour), now.Add(2*time.Hour))

	err := f.bookings.CompareAndSetStatus(ctx, bk.ID(), bookingDomain.StatusWaiting, bookingDomain.StatusApproved)
	require.NoError(t, err)

	got, err := f.bookings.FindByID(ctx, bk.ID())
	require.NoError(t, err)
	assert.Equal(t, bookingDomain.StatusApproved, got.Status())
	assert.Equal(t, int64(2), got.Version())

	err = f.bookings.CompareAndSetStatus(ctx, bk.ID(), bookingDomain.StatusWaiting, bookingDomain.StatusRejected)
	assert.ErrorIs(t, err, bookingDomain.ErrStatusMismatch)

	err = f.bookings.CompareAndSetStatus(ctx, uuid.New(), bookingDomain.StatusWaiting, bookingDomain.StatusApproved)
	assert.True(t, apperr.IsNotFound(err))

	counts, err := f.bookings.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), counts["APPROVED"])
}

func TestGormItemRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	stranger := f.user(t, "stranger")

	noItems, err := f.items.FindIDsByOwnerID(ctx, stranger.ID())
	require.NoError(t, err)
	assert.NotNil(t, noItems)
	assert.Empty(t, noItems)

	drill := f.item(t, owner, "Drill")
	ids, err := f.items.FindIDsByOwnerID(ctx, owner.ID())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{drill.ID()}, ids)

	name := "Hammer drill"
	require.NoError(t, drill.Update(&name, nil, nil))
	require.NoError(t, f.items.Update(ctx, drill))

	got, err := f.items.FindByID(ctx, drill.ID())
	require.NoError(t, err)
	assert.Equal(t, "Hammer drill", got.Name())
	assert.Equal(t, int64(2), got.Version())

	// A second update from the stale copy loses the version race.
	stale := itemDomain.Reconstruct(drill.ID(), owner.ID(), "Drill", "", true, 1, drill.CreatedAt(), drill.UpdatedAt())
	require.NoError(t, stale.Update(&name, nil, nil))
	err = f.items.Update(ctx, stale)
	assert.True(t, apperr.IsConflict(err))

	_, err = f.items.FindByID(ctx, uuid.New())
	assert.True(t, apperr.IsNotFound(err))
}

func TestGormItemRepository_SearchAndPaging(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	listed := func(name, description string, available bool, age int) *itemDomain.Item {
		at := base.Add(time.Duration(age) * time.Hour)
		it := itemDomain.Reconstruct(uuid.New(), owner.ID(), name, description, available, 1, at, at)
		require.NoError(t, f.items.Save(ctx, it))
		return it
	}
	drill := listed("Cordless Drill", "18V", true, 0)
	press := listed("Drill press", "", false, 1)
	bits := listed("Bit set", "fits any DRILL", true, 2)
	percent := listed("100% cotton sheet", "", true, 3)

	found, err := f.items.Search(ctx, "drill", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, drill.ID(), found[0].ID())
	assert.Equal(t, bits.ID(), found[1].ID())

	found, err = f.items.Search(ctx, "drill", 1, 1)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, bits.ID(), found[0].ID())

	found, err = f.items.Search(ctx, "PRESS", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, found, "unavailable items are excluded")

	found, err = f.items.Search(ctx, "%", 0, 10)
	require.NoError(t, err)
	require.Len(t, found, 1, "wildcards in text match literally")
	assert.Equal(t, percent.ID(), found[0].ID())

	page, err := f.items.FindByOwnerID(ctx, owner.ID(), 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, press.ID(), page[0].ID())
	assert.Equal(t, bits.ID(), page[1].ID())
}

func TestGormUserRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice")

	dup, err := userDomain.NewUser("Alice Again", "alice@example.com")
	require.NoError(t, err)
	err = f.users.Save(ctx, dup)
	assert.True(t, apperr.IsConflict(err))

	renamed, err := userDomain.NewUserWithID(alice.ID(), "Alice Cooper", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, f.users.Upsert(ctx, renamed))

	got, err := f.users.FindByID(ctx, alice.ID())
	require.NoError(t, err)
	assert.Equal(t, "Alice Cooper", got.Name())

	fresh, err := userDomain.NewUserWithID(uuid.New(), "Bob", "bob@example.com")
	require.NoError(t, err)
	require.NoError(t, f.users.Upsert(ctx, fresh))
	_, err = f.users.FindByID(ctx, fresh.ID())
	assert.NoError(t, err)
}

func TestGormCommentRepository(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner")
	author := f.user(t, "author")
	drill := f.item(t, owner, "Drill")

	first, err := commentDomain.NewComment(drill.ID(), author.ID(), author.Name(), "great drill")
	require.NoError(t, err)
	require.NoError(t, f.comments.Save(ctx, first))

	comments, err := f.comments.FindByItemID(ctx, drill.ID())
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "great drill", comments[0].Text())
	assert.Equal(t, "author", comments[0].AuthorName())
}

func ids(bookings []*bookingDomain.Booking) []uuid.UUID {
	out := make([]uuid.UUID, len(bookings))
	for i, b := range bookings {
		out[i] = b.ID()
	}
	return out
}
