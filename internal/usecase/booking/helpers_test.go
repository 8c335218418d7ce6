package booking

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/infra/repository"
	"github.com/BruksfildServices01/tutor-scheduler/internal/lock"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

var baseNow = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type publisherSpy struct {
	mu     sync.Mutex
	events []audit.Event
	err    error
}

func (p *publisherSpy) Dispatch(_ context.Context, events ...audit.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, events...)
	return nil
}

func (p *publisherSpy) kinds() []domain.EventKind {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventKind, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Kind)
	}
	return out
}

// faultyRepo wraps the memory store to inject failures inside transactions.
type faultyRepo struct {
	*repository.BookingMemoryRepository

	failInsert    error
	lieReferences bool
}

func (r *faultyRepo) WithinTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return r.BookingMemoryRepository.WithinTx(ctx, func(tx domain.Tx) error {
		return fn(&faultyTx{Tx: tx, r: r})
	})
}

type faultyTx struct {
	domain.Tx
	r *faultyRepo
}

func (t *faultyTx) Insert(ctx context.Context, b *models.Booking) error {
	if t.r.failInsert != nil {
		return t.r.failInsert
	}
	return t.Tx.Insert(ctx, b)
}

func (t *faultyTx) ReferenceExists(ctx context.Context, ref string) (bool, error) {
	if t.r.lieReferences {
		return false, nil
	}
	return t.Tx.ReferenceExists(ctx, ref)
}

type harness struct {
	svc    *Service
	repo   *faultyRepo
	locker *lock.Local
	pub    *publisherSpy
	clock  *clock

	teacher  domain.Actor
	student  domain.Actor
	guardian domain.Actor
	admin    domain.Actor
	stranger domain.Actor
	subject  uuid.UUID
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	h := &harness{
		repo:   &faultyRepo{BookingMemoryRepository: repository.NewBookingMemoryRepository()},
		locker: lock.NewLocal(),
		pub:    &publisherSpy{},
		clock:  &clock{now: baseNow},
	}

	studentID := uuid.New()
	h.teacher = domain.Actor{ID: uuid.New(), Role: domain.RoleTeacher}
	h.student = domain.Actor{ID: studentID, Role: domain.RoleStudent}
	h.guardian = domain.Actor{ID: uuid.New(), Role: domain.RoleGuardian, Wards: []uuid.UUID{studentID}}
	h.admin = domain.Actor{ID: uuid.New(), Role: domain.RoleAdmin}
	h.stranger = domain.Actor{ID: uuid.New(), Role: domain.RoleStudent}
	h.subject = uuid.New()

	base := []Option{
		WithPublisher(h.pub),
		WithClock(h.clock.Now),
		WithLocation(time.UTC),
	}
	h.svc = NewService(h.repo, h.locker, append(base, opts...)...)
	return h
}

func (h *harness) input(t *testing.T, date, start, end string) CreateInput {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, date)
	require.NoError(t, err)
	return CreateInput{
		TeacherID: h.teacher.ID,
		StudentID: h.student.ID,
		SubjectID: h.subject,
		Date:      d,
		StartTime: models.MustTimeOfDay(start),
		EndTime:   models.MustTimeOfDay(end),
	}
}

func (h *harness) create(t *testing.T, date, start, end string) *models.Booking {
	t.Helper()
	b, err := h.svc.Create(context.Background(), h.student, h.input(t, date, start, end))
	require.NoError(t, err)
	return b
}

func (h *harness) stored(t *testing.T, id uuid.UUID) *models.Booking {
	t.Helper()
	b, err := h.repo.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse(domain.DateLayout, s)
	require.NoError(t, err)
	return d
}

func tod(s string) *models.TimeOfDay {
	v := models.MustTimeOfDay(s)
	return &v
}

// assertNoDoubleBooking checks the calendar invariant over every stored row.
func assertNoDoubleBooking(t *testing.T, rows []models.Booking) {
	t.Helper()
	for i := range rows {
		for j := i + 1; j < len(rows); j++ {
			a, b := &rows[i], &rows[j]
			if a.TeacherID != b.TeacherID || !a.Date.Equal(b.Date) {
				continue
			}
			if !domain.StatusOf(a).IsActive() || !domain.StatusOf(b).IsActive() {
				continue
			}
			require.False(t, domain.WindowOf(a).Overlaps(domain.WindowOf(b)),
				"double booking: %s %s and %s %s", a.Reference, domain.WindowOf(a), b.Reference, domain.WindowOf(b))
		}
	}
}
