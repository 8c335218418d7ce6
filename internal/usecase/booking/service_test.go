package booking

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/lock"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

func TestCreateValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*CreateInput)
		field  string
	}{
		{"missing teacher", func(in *CreateInput) { in.TeacherID = uuid.Nil }, "teacher_id"},
		{"missing subject", func(in *CreateInput) { in.SubjectID = uuid.Nil }, "subject_id"},
		{"past date", func(in *CreateInput) { in.Date = date(t, "2025-05-19") }, "date"},
		{"end before start", func(in *CreateInput) { in.EndTime = models.MustTimeOfDay("08:00") }, "end_time"},
		{"notes too long", func(in *CreateInput) { in.Notes = string(make([]byte, 2001)) }, "notes"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := h.input(t, "2025-06-01", "09:00", "10:00")
			tc.mutate(&in)

			_, err := h.svc.Create(ctx, h.admin, in)
			var ve *domain.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tc.field, ve.Field)
		})
	}

	assert.Empty(t, h.repo.All())
	assert.Empty(t, h.pub.kinds())
}

func TestCreateToday(t *testing.T) {
	h := newHarness(t)
	b := h.create(t, "2025-05-20", "18:00", "19:00")
	assert.Equal(t, date(t, "2025-05-20"), b.Date)
}

func TestCreateAuthorization(t *testing.T) {
	h := newHarness(t)
	in := h.input(t, "2025-06-01", "09:00", "10:00")

	_, err := h.svc.Create(context.Background(), h.stranger, in)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	b, err := h.svc.Create(context.Background(), h.guardian, in)
	require.NoError(t, err)
	assert.Equal(t, h.student.ID, b.StudentID)
}

func TestCreateRetriesDuplicateReference(t *testing.T) {
	suffixes := []string{"AAAA", "AAAA", "BBBB"}
	var mu sync.Mutex
	next := func() (string, error) {
		mu.Lock()
		defer mu.Unlock()
		s := suffixes[0]
		suffixes = suffixes[1:]
		return s, nil
	}

	h := newHarness(t, WithReferenceGenerator(domain.NewReferenceGenerator(
		domain.WithReferenceClock(func() time.Time { return baseNow }),
		domain.WithReferenceSuffix(next),
	)))

	first := h.create(t, "2025-06-01", "09:00", "10:00")
	assert.Equal(t, "BK-250520-AAAA", first.Reference)

	// the store's unique index is the only thing that notices the clash
	h.repo.lieReferences = true
	second := h.create(t, "2025-06-01", "10:00", "11:00")
	assert.Equal(t, "BK-250520-BBBB", second.Reference)
	assert.Len(t, h.repo.All(), 2)
}

func TestCreateReferenceExhausted(t *testing.T) {
	h := newHarness(t, WithReferenceGenerator(domain.NewReferenceGenerator(
		domain.WithReferenceSuffix(func() (string, error) { return "ZZZZ", nil }),
		domain.WithReferenceAttempts(3),
	)))

	h.create(t, "2025-06-01", "09:00", "10:00")
	_, err := h.svc.Create(context.Background(), h.student, h.input(t, "2025-06-01", "12:00", "13:00"))

	assert.ErrorIs(t, err, domain.ErrReferenceExhausted)
	assert.Len(t, h.repo.All(), 1)
}

func TestConcurrentCreatesNeverDoubleBook(t *testing.T) {
	h := newHarness(t)
	const workers = 24

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start

			// every window overlaps 09:45-10:00
			in := h.input(t, "2025-06-01", "09:00", "10:00")
			in.StartTime = models.TimeOfDay(9*60 + i%4*15)
			in.EndTime = in.StartTime + 60

			_, err := h.svc.Create(context.Background(), h.student, in)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, domain.ErrSchedulingConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, workers-1, conflicts)
	assertNoDoubleBooking(t, h.repo.All())
}

func TestConcurrentMixedOperationsKeepInvariant(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var seeded []uuid.UUID
	for hour := 8; hour < 18; hour += 2 {
		b := h.create(t, "2025-06-01", fmt.Sprintf("%02d:00", hour), fmt.Sprintf("%02d:00", hour+1))
		_, err := h.svc.Approve(ctx, h.teacher, b.ID)
		require.NoError(t, err)
		seeded = append(seeded, b.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rnd := rand.New(rand.NewSource(seed))
			start := models.TimeOfDay(8*60 + rnd.Intn(40)*15)
			end := start + models.TimeOfDay(30+rnd.Intn(4)*15)
			id := seeded[rnd.Intn(len(seeded))]

			var err error
			switch rnd.Intn(4) {
			case 0:
				in := h.input(t, "2025-06-01", "09:00", "10:00")
				in.StartTime, in.EndTime = start, end
				_, err = h.svc.Create(ctx, h.student, in)
			case 1:
				_, err = h.svc.Reschedule(ctx, h.student, id, RescheduleInput{
					Date: date(t, "2025-06-01"), StartTime: start, EndTime: end,
				})
			case 2:
				_, err = h.svc.Cancel(ctx, h.student, id, "")
			case 3:
				list, lerr := h.svc.TeacherDay(ctx, h.teacher, h.teacher.ID, date(t, "2025-06-01"))
				if lerr != nil || len(list) == 0 {
					err = lerr
					break
				}
				target := list[rnd.Intn(len(list))]
				_, err = h.svc.Update(ctx, h.teacher, target.ID, UpdateInput{StartTime: &start, EndTime: &end})
			}

			if err != nil &&
				!errors.Is(err, domain.ErrSchedulingConflict) &&
				!errors.Is(err, domain.ErrInvalidTransition) &&
				!errors.Is(err, domain.ErrValidation) {
				t.Errorf("unexpected error: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()

	assertNoDoubleBooking(t, h.repo.All())
	for _, b := range h.repo.All() {
		assert.Equal(t, int(b.EndTime)-int(b.StartTime), b.Duration)
	}
}

func TestRescheduleIsAtomic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, "2025-06-01", "09:00", "10:00")
	_, err := h.svc.Approve(ctx, h.teacher, a.ID)
	require.NoError(t, err)
	eventsBefore := len(h.repo.Events())
	published := len(h.pub.kinds())

	storeDown := errors.New("insert failed")
	h.repo.failInsert = storeDown

	_, err = h.svc.Reschedule(ctx, h.student, a.ID, RescheduleInput{
		Date:      date(t, "2025-06-02"),
		StartTime: models.MustTimeOfDay("09:00"),
		EndTime:   models.MustTimeOfDay("10:00"),
	})
	require.ErrorIs(t, err, storeDown)

	original := h.stored(t, a.ID)
	assert.Equal(t, string(domain.StatusApproved), original.Status, "the cancellation rolled back with the insert")
	assert.Nil(t, original.CancelledAt)
	assert.Len(t, h.repo.All(), 1)
	assert.Len(t, h.repo.Events(), eventsBefore)
	assert.Len(t, h.pub.kinds(), published)
}

func TestRescheduleConflictChecksWholeCalendar(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, "2025-06-01", "09:00", "10:00")
	other := h.create(t, "2025-06-02", "09:30", "10:30")
	_, err := h.svc.Approve(ctx, h.teacher, a.ID)
	require.NoError(t, err)

	_, err = h.svc.Reschedule(ctx, h.student, a.ID, RescheduleInput{
		Date:      date(t, "2025-06-02"),
		StartTime: models.MustTimeOfDay("09:00"),
		EndTime:   models.MustTimeOfDay("10:00"),
	})
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, other.ID, ce.BookingID)
	assert.Equal(t, string(domain.StatusApproved), h.stored(t, a.ID).Status)
}

func TestRescheduleCancelledOriginal(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, "2025-06-01", "09:00", "10:00")
	cancelled, err := h.svc.Cancel(ctx, h.guardian, a.ID, "ill")
	require.NoError(t, err)
	cancelledAt := *cancelled.CancelledAt

	h.clock.Advance(time.Hour)
	notes := "make-up lesson"
	out, err := h.svc.Reschedule(ctx, h.guardian, a.ID, RescheduleInput{
		Date:      date(t, "2025-06-01"),
		StartTime: models.MustTimeOfDay("09:00"),
		EndTime:   models.MustTimeOfDay("10:00"),
		Notes:     &notes,
	})
	require.NoError(t, err)

	original := h.stored(t, a.ID)
	assert.Equal(t, cancelledAt, *original.CancelledAt)
	assert.Equal(t, "ill", *original.CancellationReason)
	assert.Equal(t, "make-up lesson", out.Next.Notes)

	assert.Equal(t, []domain.EventKind{
		domain.EventCreated,
		domain.EventCancelled,
		domain.EventRescheduled,
	}, h.pub.kinds(), "no second cancellation event")
}

func TestUnrelatedActorsSeeNotFound(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2025-06-01", "09:00", "10:00")

	_, err := h.svc.Approve(ctx, h.stranger, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, missing := h.svc.Approve(ctx, h.stranger, uuid.New())
	assert.ErrorIs(t, missing, domain.ErrNotFound)
	assert.Equal(t, err.Error(), missing.Error(), "existence does not leak")

	_, err = h.svc.Get(ctx, h.stranger, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = h.svc.Approve(ctx, h.student, b.ID)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	assert.Equal(t, string(domain.StatusPending), h.stored(t, b.ID).Status)
	assert.Equal(t, []domain.EventKind{domain.EventCreated}, h.pub.kinds())
}

func TestTimestampsAreSetOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	b := h.create(t, "2025-05-20", "15:00", "16:00")

	approved, err := h.svc.Approve(ctx, h.teacher, b.ID)
	require.NoError(t, err)
	approvedAt := *approved.ApprovedAt

	h.clock.Advance(time.Hour)
	n, err := h.svc.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h.clock.Advance(time.Hour)
	completed, err := h.svc.Complete(ctx, h.teacher, b.ID)
	require.NoError(t, err)
	assert.Equal(t, approvedAt, *completed.ApprovedAt)
	assert.Equal(t, baseNow.Add(2*time.Hour), *completed.CompletedAt)

	_, err = h.svc.Cancel(ctx, h.admin, b.ID, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Nil(t, h.stored(t, b.ID).CancelledAt)
}

func TestRejectAndMiss(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	r := h.create(t, "2025-06-01", "09:00", "10:00")
	rejected, err := h.svc.Reject(ctx, h.teacher, r.ID, "away that week")
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusRejected), rejected.Status)
	assert.Equal(t, "away that week", *rejected.CancellationReason)
	assert.NotNil(t, rejected.RejectedAt)

	// a rejected booking frees the window
	again := h.create(t, "2025-06-01", "09:00", "10:00")

	_, err = h.svc.Miss(ctx, h.teacher, again.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	m := h.create(t, "2025-05-20", "11:00", "12:00")
	_, err = h.svc.Approve(ctx, h.teacher, m.ID)
	require.NoError(t, err)
	_, err = h.svc.PromoteDue(ctx)
	require.NoError(t, err)

	missed, err := h.svc.Miss(ctx, h.teacher, m.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.StatusMissed), missed.Status)

	stored := h.repo.Events()
	last := stored[len(stored)-1]
	assert.Equal(t, string(domain.EventMissed), last.Kind)
	assert.Equal(t, "teacher", last.ActorRole)
}

func TestUpdate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.create(t, "2025-06-01", "09:00", "10:00")
	b := h.create(t, "2025-06-01", "11:00", "12:00")

	t.Run("overlapping its own old window is fine", func(t *testing.T) {
		updated, err := h.svc.Update(ctx, h.student, a.ID, UpdateInput{StartTime: tod("09:30"), EndTime: tod("10:45")})
		require.NoError(t, err)
		assert.Equal(t, 75, updated.Duration)
	})

	t.Run("overlapping another booking conflicts", func(t *testing.T) {
		_, err := h.svc.Update(ctx, h.student, a.ID, UpdateInput{EndTime: tod("11:30")})

		var ce *domain.ConflictError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, b.ID, ce.BookingID)
		assert.Equal(t, "10:45", h.stored(t, a.ID).EndTime.String())
	})

	t.Run("notes only skips the conflict check", func(t *testing.T) {
		notes := "chapter 4"
		updated, err := h.svc.Update(ctx, h.teacher, b.ID, UpdateInput{Notes: &notes})
		require.NoError(t, err)
		assert.Equal(t, "chapter 4", updated.Notes)
	})

	t.Run("approved bookings cannot be edited", func(t *testing.T) {
		_, err := h.svc.Approve(ctx, h.teacher, b.ID)
		require.NoError(t, err)

		notes := "x"
		_, err = h.svc.Update(ctx, h.teacher, b.ID, UpdateInput{Notes: &notes})
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("moving to the past is invalid", func(t *testing.T) {
		past := date(t, "2025-05-01")
		_, err := h.svc.Update(ctx, h.student, a.ID, UpdateInput{Date: &past})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})

	t.Run("strangers see not found", func(t *testing.T) {
		notes := "x"
		_, err := h.svc.Update(ctx, h.stranger, a.ID, UpdateInput{Notes: &notes})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestDelete(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b := h.create(t, "2025-06-01", "09:00", "10:00")
	require.NoError(t, h.svc.Delete(ctx, h.student, b.ID))

	_, err := h.repo.GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, []domain.EventKind{domain.EventCreated, domain.EventDeleted}, h.pub.kinds())

	assert.ErrorIs(t, h.svc.Delete(ctx, h.student, b.ID), domain.ErrNotFound)
}

func TestTeacherDay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.create(t, "2025-06-01", "13:00", "14:00")
	h.create(t, "2025-06-01", "09:00", "10:00")
	h.create(t, "2025-06-02", "09:00", "10:00")

	list, err := h.svc.TeacherDay(ctx, h.teacher, h.teacher.ID, date(t, "2025-06-01"))
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "09:00", list[0].StartTime.String())

	_, err = h.svc.TeacherDay(ctx, h.admin, h.teacher.ID, date(t, "2025-06-01"))
	assert.NoError(t, err)

	_, err = h.svc.TeacherDay(ctx, h.student, h.teacher.ID, date(t, "2025-06-01"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = h.svc.TeacherDay(ctx, domain.Actor{ID: uuid.New(), Role: domain.RoleTeacher}, h.teacher.ID, date(t, "2025-06-01"))
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestPromoteDue(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	today := h.create(t, "2025-05-20", "16:00", "17:00")
	tomorrow := h.create(t, "2025-05-21", "16:00", "17:00")
	pending := h.create(t, "2025-05-20", "18:00", "19:00")
	for _, id := range []uuid.UUID{today.ID, tomorrow.ID} {
		_, err := h.svc.Approve(ctx, h.teacher, id)
		require.NoError(t, err)
	}

	n, err := h.svc.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, string(domain.StatusUpcoming), h.stored(t, today.ID).Status)
	assert.Equal(t, string(domain.StatusApproved), h.stored(t, tomorrow.ID).Status)
	assert.Equal(t, string(domain.StatusPending), h.stored(t, pending.ID).Status)

	stored := h.repo.Events()
	last := stored[len(stored)-1]
	assert.Equal(t, string(domain.EventPromoted), last.Kind)
	assert.Equal(t, "system", last.ActorRole)
	assert.Nil(t, last.ActorID)

	h.clock.Advance(24 * time.Hour)
	n, err = h.svc.PromoteDue(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, string(domain.StatusUpcoming), h.stored(t, tomorrow.ID).Status)
}

func TestEventsPaging(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	b := h.create(t, "2025-06-01", "09:00", "10:00")
	_, err := h.svc.Approve(ctx, h.teacher, b.ID)
	require.NoError(t, err)
	_, err = h.svc.Cancel(ctx, h.student, b.ID, "moved abroad")
	require.NoError(t, err)

	page, err := h.svc.Events(ctx, h.guardian, b.ID, "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), page.Total)
	require.Len(t, page.Events, 2)
	assert.Equal(t, string(domain.EventCancelled), page.Events[0].Kind)
	assert.Contains(t, page.Events[0].Metadata, "moved abroad")

	page, err = h.svc.Events(ctx, h.teacher, b.ID, domain.EventCreated, 0, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, DefaultEventLimit, page.Limit)
	assert.Equal(t, int64(1), page.Total)

	_, err = h.svc.Events(ctx, h.stranger, b.ID, "", 1, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStorageTimeoutLeavesNothingBehind(t *testing.T) {
	h := newHarness(t, WithTimeout(30*time.Millisecond))
	in := h.input(t, "2025-06-01", "09:00", "10:00")

	// someone else holds the teacher's lock for longer than the timeout
	unlock, err := h.locker.Acquire(context.Background(), lock.TeacherKey(h.teacher.ID))
	require.NoError(t, err)
	defer unlock(context.Background())

	_, err = h.svc.Create(context.Background(), h.student, in)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, h.repo.All())
	assert.Empty(t, h.repo.Events())
}

func TestPublishFailureIsLoggedNotReturned(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	h := newHarness(t, WithLogger(zap.New(core)))
	h.pub.err = errors.New("queue closed")

	b := h.create(t, "2025-06-01", "09:00", "10:00")

	assert.Len(t, h.repo.Events(), 1, "the event is stored with the booking")
	assert.Equal(t, b.ID, h.repo.Events()[0].BookingID)
	assert.Equal(t, 1, logs.FilterMessage("publish booking events").Len())
}
