package repository

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// BookingMemoryRepository keeps bookings in process memory. Transactions
// are serialized and work on a private copy that replaces the committed
// state only when fn succeeds. It enforces the same reference uniqueness
// and no-overlap rules as the Postgres schema.
type BookingMemoryRepository struct {
	mu     sync.RWMutex
	rows   map[uuid.UUID]models.Booking
	events []models.BookingEvent
	now    func() time.Time

	lastEventID uint
}

func NewBookingMemoryRepository() *BookingMemoryRepository {
	return &BookingMemoryRepository{
		rows: make(map[uuid.UUID]models.Booking),
		now:  time.Now,
	}
}

func (r *BookingMemoryRepository) WithinTx(
	ctx context.Context,
	fn func(tx domain.Tx) error,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tx := &memoryTx{
		rows: maps.Clone(r.rows),
		now:  r.now,
	}

	if err := fn(tx); err != nil {
		return err
	}

	// A deadline that passed while fn ran means the caller has given up.
	if err := ctx.Err(); err != nil {
		return err
	}

	r.rows = tx.rows
	for _, ev := range tx.events {
		r.lastEventID++
		ev.ID = r.lastEventID
		r.events = append(r.events, ev)
	}
	return nil
}

func (r *BookingMemoryRepository) GetByID(
	_ context.Context,
	id uuid.UUID,
) (*models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (r *BookingMemoryRepository) ListSuccessors(
	_ context.Context,
	id uuid.UUID,
) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.filter(func(b models.Booking) bool {
		return b.PreviousBookingID != nil && *b.PreviousBookingID == id
	}), nil
}

func (r *BookingMemoryRepository) ListForTeacherOnDate(
	_ context.Context,
	teacherID uuid.UUID,
	date time.Time,
) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day := models.DateOf(date)
	return r.filter(func(b models.Booking) bool {
		return b.TeacherID == teacherID && b.Date.Equal(day)
	}), nil
}

func (r *BookingMemoryRepository) ListDueForPromotion(
	_ context.Context,
	day time.Time,
) ([]models.Booking, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	day = models.DateOf(day)
	return r.filter(func(b models.Booking) bool {
		return b.Status == string(domain.StatusApproved) && !b.Date.After(day)
	}), nil
}

func (r *BookingMemoryRepository) ListEvents(
	_ context.Context,
	bookingID uuid.UUID,
	q domain.EventQuery,
) ([]models.BookingEvent, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []models.BookingEvent
	for i := len(r.events) - 1; i >= 0; i-- {
		ev := r.events[i]
		if ev.BookingID != bookingID || (q.Kind != "" && ev.Kind != string(q.Kind)) {
			continue
		}
		matched = append(matched, ev)
	}

	total := int64(len(matched))
	start := min(max(q.Offset, 0), len(matched))
	end := len(matched)
	if q.Limit > 0 {
		end = min(start+q.Limit, len(matched))
	}
	return slices.Clone(matched[start:end]), total, nil
}

// Events returns every committed booking event in commit order.
func (r *BookingMemoryRepository) Events() []models.BookingEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.events)
}

// All returns every stored booking.
func (r *BookingMemoryRepository) All() []models.Booking {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.filter(func(models.Booking) bool { return true })
}

func (r *BookingMemoryRepository) filter(keep func(models.Booking) bool) []models.Booking {
	return filterRows(r.rows, keep)
}

// --------------------------------------------------
// Transaction
// --------------------------------------------------

type memoryTx struct {
	rows   map[uuid.UUID]models.Booking
	events []models.BookingEvent
	now    func() time.Time
}

// LockTeacher is a no-op: memory transactions already run one at a time.
func (t *memoryTx) LockTeacher(context.Context, uuid.UUID) error {
	return nil
}

func (t *memoryTx) GetForUpdate(_ context.Context, id uuid.UUID) (*models.Booking, error) {
	b, ok := t.rows[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (t *memoryTx) ListActiveForTeacherOnDate(
	_ context.Context,
	teacherID uuid.UUID,
	date time.Time,
) ([]models.Booking, error) {
	day := models.DateOf(date)
	return filterRows(t.rows, func(b models.Booking) bool {
		return b.TeacherID == teacherID &&
			b.Date.Equal(day) &&
			domain.StatusOf(&b).IsActive()
	}), nil
}

func (t *memoryTx) ReferenceExists(_ context.Context, ref string) (bool, error) {
	for _, b := range t.rows {
		if b.Reference == ref {
			return true, nil
		}
	}
	return false, nil
}

func (t *memoryTx) Insert(_ context.Context, b *models.Booking) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if _, exists := t.rows[b.ID]; exists {
		return fmt.Errorf("booking %s already exists", b.ID)
	}
	if err := t.checkConstraints(b); err != nil {
		return err
	}

	now := t.now()
	b.CreatedAt = now
	b.UpdatedAt = now
	t.rows[b.ID] = *b
	return nil
}

func (t *memoryTx) Update(_ context.Context, b *models.Booking) error {
	if _, ok := t.rows[b.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := t.checkConstraints(b); err != nil {
		return err
	}

	b.UpdatedAt = t.now()
	t.rows[b.ID] = *b
	return nil
}

func (t *memoryTx) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := t.rows[id]; !ok {
		return domain.ErrNotFound
	}
	delete(t.rows, id)
	return nil
}

func (t *memoryTx) AppendEvents(_ context.Context, events ...models.BookingEvent) error {
	t.events = append(t.events, events...)
	return nil
}

// checkConstraints mirrors the unique reference index and the exclusion
// constraint of the bookings table.
func (t *memoryTx) checkConstraints(b *models.Booking) error {
	for id, other := range t.rows {
		if id == b.ID {
			continue
		}
		if other.Reference == b.Reference {
			return domain.ErrDuplicateReference
		}
	}

	if !domain.StatusOf(b).IsActive() {
		return nil
	}

	others := filterRows(t.rows, func(o models.Booking) bool {
		return o.ID != b.ID && o.TeacherID == b.TeacherID
	})
	return domain.DetectConflict(others, b.Date, domain.WindowOf(b), nil)
}

func filterRows(rows map[uuid.UUID]models.Booking, keep func(models.Booking) bool) []models.Booking {
	out := make([]models.Booking, 0)
	for _, b := range rows {
		if keep(b) {
			out = append(out, b)
		}
	}

	slices.SortFunc(out, func(a, b models.Booking) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := int(a.StartTime) - int(b.StartTime); c != 0 {
			return c
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out
}

var _ domain.Repository = (*BookingMemoryRepository)(nil)
