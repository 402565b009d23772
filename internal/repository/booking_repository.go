package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	bookingDomain "github.com/shareit/service-booking/internal/domain/booking"
	"github.com/shareit/service-booking/internal/platform/apperr"
)

// BookingModel is the GORM model for the bookings table.
type BookingModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemOwnerID uuid.UUID `gorm:"type:uuid;not null;index"`
	BookerID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StartAt     time.Time `gorm:"column:start_at;not null"`
	EndAt       time.Time `gorm:"column:end_at;not null"`
	Status      string    `gorm:"not null;size:20;index"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Item   ItemModel `gorm:"foreignKey:ItemID;references:ID"`
	Booker UserModel `gorm:"foreignKey:BookerID;references:ID"`
}

// TableName returns the table name for the GORM model.
func (BookingModel) TableName() string {
	return "bookings"
}

// GormBookingRepository is the GORM-based implementation of BookingRepository.
type GormBookingRepository struct {
	db *gorm.DB
}

// NewGormBookingRepository creates a new GormBookingRepository.
func NewGormBookingRepository(db *gorm.DB) *GormBookingRepository {
	return &GormBookingRepository{db: db}
}

// FindByID retrieves a booking by its unique identifier.
func (r *GormBookingRepository) FindByID(ctx context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var model BookingModel
	if err := r.withRefs(ctx).Where("bookings.id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NewNotFoundError("Booking", id.String())
		}
		return nil, fmt.Errorf("failed to find booking by ID: %w", err)
	}
	return toDomainBooking(&model)
}

// Find returns one page of bookings matching the query.
func (r *GormBookingRepository) Find(ctx context.Context, q bookingDomain.Query) ([]*bookingDomain.Booking, error) {
	if q.Filter.MatchesNothing() {
		return []*bookingDomain.Booking{}, nil
	}

	order := "start_at DESC"
	if q.Order == bookingDomain.StartAsc {
		order = "start_at ASC"
	}

	var models []BookingModel
	if err := applyFilter(r.withRefs(ctx), q.Filter).
		Order(order).
		Order("id").
		Offset(q.Page.Offset()).
		Limit(q.Page.Size).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}

	bookings := make([]*bookingDomain.Booking, len(models))
	for i := range models {
		bk, err := toDomainBooking(&models[i])
		if err != nil {
			return nil, err
		}
		bookings[i] = bk
	}
	return bookings, nil
}

// Count returns the number of bookings matching the filter.
func (r *GormBookingRepository) Count(ctx context.Context, f bookingDomain.Filter) (int64, error) {
	if f.MatchesNothing() {
		return 0, nil
	}
	var total int64
	if err := applyFilter(r.db.WithContext(ctx).Model(&BookingModel{}), f).Count(&total).Error; err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return total, nil
}

// Save persists a new booking. The item and booker rows must already exist.
func (r *GormBookingRepository) Save(ctx context.Context, bk *bookingDomain.Booking) error {
	model := toBookingModel(bk)
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save booking: %w", err)
	}
	return nil
}

// CompareAndSetStatus moves a booking from expected to next in a single
// conditional UPDATE, so of two concurrent decisions exactly one succeeds.
func (r *GormBookingRepository) CompareAndSetStatus(ctx context.Context, id uuid.UUID, expected, next bookingDomain.BookingStatus) error {
	result := r.db.WithContext(ctx).
		Model(&BookingModel{}).
		Where("id = ? AND status = ?", id, expected.String()).
		Updates(map[string]interface{}{
			"status":     next.String(),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("failed to update booking status: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return fmt.Errorf("failed to check booking: %w", err)
	}
	if exists == 0 {
		return apperr.NewNotFoundError("Booking", id.String())
	}
	return bookingDomain.ErrStatusMismatch
}

// CountByStatus returns booking counts grouped by status (admin).
func (r *GormBookingRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&BookingModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

func (r *GormBookingRepository) withRefs(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Item").Preload("Booker")
}

// applyFilter translates a domain filter into WHERE clauses. The comparisons
// are strict, matching Filter.Matches.
func applyFilter(tx *gorm.DB, f bookingDomain.Filter) *gorm.DB {
	if f.BookerID != nil {
		tx = tx.Where("booker_id = ?", *f.BookerID)
	}
	if f.ScopeItems {
		tx = tx.Where("item_id IN ?", f.ItemIDs)
	}
	if f.StartBefore != nil {
		tx = tx.Where("start_at < ?", f.StartBefore.UTC())
	}
	if f.StartAfter != nil {
		tx = tx.Where("start_at > ?", f.StartAfter.UTC())
	}
	if f.EndBefore != nil {
		tx = tx.Where("end_at < ?", f.EndBefore.UTC())
	}
	if f.EndAfter != nil {
		tx = tx.Where("end_at > ?", f.EndAfter.UTC())
	}
	if f.Status != nil {
		tx = tx.Where("status = ?", f.Status.String())
	}
	return tx
}

// --- Conversion Helpers ---

func toBookingModel(bk *bookingDomain.Booking) *BookingModel {
	return &BookingModel{
		ID:          bk.ID(),
		ItemID:      bk.Item().ID,
		ItemOwnerID: bk.Item().OwnerID,
		BookerID:    bk.Booker().ID,
		StartAt:     bk.Start().UTC(),
		EndAt:       bk.End().UTC(),
		Status:      bk.Status().String(),
		Version:     bk.Version(),
		CreatedAt:   bk.CreatedAt(),
		UpdatedAt:   bk.UpdatedAt(),
	}
}

func toDomainBooking(m *BookingModel) (*bookingDomain.Booking, error) {
	status, err := bookingDomain.ParseBookingStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return bookingDomain.ReconstructBooking(
		m.ID,
		bookingDomain.ItemRef{ID: m.ItemID, Name: m.Item.Name, OwnerID: m.ItemOwnerID},
		bookingDomain.BookerRef{ID: m.BookerID, Name: m.Booker.Name},
		m.StartAt.UTC(),
		m.EndAt.UTC(),
		status,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
