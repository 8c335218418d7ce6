package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

const (
	pgUniqueViolation    = "23505"
	pgExclusionViolation = "23P01"

	referenceIndex = "idx_bookings_reference"
)

type BookingGormRepository struct {
	db *gorm.DB
}

func NewBookingGormRepository(db *gorm.DB) *BookingGormRepository {
	return &BookingGormRepository{db: db}
}

func (r *BookingGormRepository) WithinTx(
	ctx context.Context,
	fn func(tx domain.Tx) error,
) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// --------------------------------------------------
// Reads
// --------------------------------------------------

func (r *BookingGormRepository) GetByID(
	ctx context.Context,
	id uuid.UUID,
) (*models.Booking, error) {

	var b models.Booking
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (r *BookingGormRepository) ListSuccessors(
	ctx context.Context,
	id uuid.UUID,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("previous_booking_id = ?", id).
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *BookingGormRepository) ListForTeacherOnDate(
	ctx context.Context,
	teacherID uuid.UUID,
	date time.Time,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("teacher_id = ? AND booking_date = ?", teacherID, models.DateOf(date)).
		Order("start_minute ASC").
		Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *BookingGormRepository) ListDueForPromotion(
	ctx context.Context,
	day time.Time,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := r.db.WithContext(ctx).
		Where("status = ? AND booking_date <= ?", string(domain.StatusApproved), models.DateOf(day)).
		Order("booking_date ASC, start_minute ASC").
		Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (r *BookingGormRepository) ListEvents(
	ctx context.Context,
	bookingID uuid.UUID,
	q domain.EventQuery,
) ([]models.BookingEvent, int64, error) {

	query := r.db.WithContext(ctx).
		Model(&models.BookingEvent{}).
		Where("booking_id = ?", bookingID)

	if q.Kind != "" {
		query = query.Where("kind = ?", string(q.Kind))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translate(err)
	}

	var out []models.BookingEvent
	if err := query.
		Order("created_at DESC, id DESC").
		Limit(q.Limit).
		Offset(q.Offset).
		Find(&out).Error; err != nil {
		return nil, 0, translate(err)
	}
	return out, total, nil
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) LockTeacher(ctx context.Context, teacherID uuid.UUID) error {
	return translate(t.db.WithContext(ctx).
		Exec("SELECT pg_advisory_xact_lock(hashtextextended(?, 0))", teacherID.String()).
		Error)
}

func (t *gormTx) GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error) {
	var b models.Booking
	if err := t.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&b).Error; err != nil {
		return nil, translate(err)
	}
	return &b, nil
}

func (t *gormTx) ListActiveForTeacherOnDate(
	ctx context.Context,
	teacherID uuid.UUID,
	date time.Time,
) ([]models.Booking, error) {

	var out []models.Booking
	if err := t.db.WithContext(ctx).
		Where(
			"teacher_id = ? AND booking_date = ? AND status IN ?",
			teacherID,
			models.DateOf(date),
			activeStatuses(),
		).
		Order("start_minute ASC").
		Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (t *gormTx) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	var count int64
	if err := t.db.WithContext(ctx).
		Model(&models.Booking{}).
		Where("reference = ?", ref).
		Count(&count).Error; err != nil {
		return false, translate(err)
	}
	return count > 0, nil
}

func (t *gormTx) Insert(ctx context.Context, b *models.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return translate(t.db.WithContext(ctx).Create(b).Error)
}

func (t *gormTx) Update(ctx context.Context, b *models.Booking) error {
	return translate(t.db.WithContext(ctx).Save(b).Error)
}

func (t *gormTx) Delete(ctx context.Context, id uuid.UUID) error {
	res := t.db.WithContext(ctx).Delete(&models.Booking{}, "id = ?", id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *gormTx) AppendEvents(ctx context.Context, events ...models.BookingEvent) error {
	if len(events) == 0 {
		return nil
	}
	return translate(t.db.WithContext(ctx).Create(&events).Error)
}

// --------------------------------------------------
// Helpers
// --------------------------------------------------

func activeStatuses() []string {
	out := make([]string, 0, len(domain.ActiveStatuses))
	for _, s := range domain.ActiveStatuses {
		out = append(out, string(s))
	}
	return out
}

// translate maps driver errors onto the domain errors the service branches on.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgExclusionViolation:
			return fmt.Errorf("%w: %s", domain.ErrSchedulingConflict, pgErr.Detail)
		case pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == referenceIndex:
			return domain.ErrDuplicateReference
		}
	}

	return err
}

// Compile-time check
var _ domain.Repository = (*BookingGormRepository)(nil)
