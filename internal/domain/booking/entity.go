package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// ===============================
// Creation
// ===============================

type NewParams struct {
	TeacherID  uuid.UUID
	StudentID  uuid.UUID
	SubjectID  uuid.UUID
	ScheduleID *uuid.UUID
	Date       time.Time
	Window     Window
	Notes      string
}

// New builds a pending booking without reference or id; both are assigned
// when it is persisted.
func New(p NewParams, today time.Time) (*models.Booking, error) {
	switch {
	case p.TeacherID == uuid.Nil:
		return nil, invalid("teacher_id", "is required")
	case p.StudentID == uuid.Nil:
		return nil, invalid("student_id", "is required")
	case p.SubjectID == uuid.Nil:
		return nil, invalid("subject_id", "is required")
	}

	if err := ValidateSlot(p.Date, p.Window, today); err != nil {
		return nil, err
	}

	return &models.Booking{
		TeacherID:  p.TeacherID,
		StudentID:  p.StudentID,
		SubjectID:  p.SubjectID,
		ScheduleID: p.ScheduleID,
		Date:       models.DateOf(p.Date),
		StartTime:  p.Window.Start,
		EndTime:    p.Window.End,
		Duration:   p.Window.Minutes(),
		Status:     string(InitialStatus()),
		Notes:      p.Notes,
	}, nil
}

// ===============================
// Domain Actions
// ===============================

func Approve(b *models.Booking, actor Actor, now time.Time) error {
	if err := Guard(actor, b, ActionApprove); err != nil {
		return err
	}

	b.Status = string(StatusApproved)
	stamp(&b.ApprovedAt, now)
	return nil
}

func Reject(b *models.Booking, actor Actor, reason string, now time.Time) error {
	if err := Guard(actor, b, ActionReject); err != nil {
		return err
	}

	b.Status = string(StatusRejected)
	b.CancellationReason = reasonPtr(reason)
	stamp(&b.RejectedAt, now)
	return nil
}

func Cancel(b *models.Booking, actor Actor, reason string, now time.Time) error {
	if err := Guard(actor, b, ActionCancel); err != nil {
		return err
	}

	cancel(b, reason, now)
	return nil
}

func Complete(b *models.Booking, actor Actor, now time.Time) error {
	if err := Guard(actor, b, ActionComplete); err != nil {
		return err
	}

	b.Status = string(StatusCompleted)
	stamp(&b.CompletedAt, now)
	return nil
}

func Miss(b *models.Booking, actor Actor) error {
	if err := Guard(actor, b, ActionMiss); err != nil {
		return err
	}

	b.Status = string(StatusMissed)
	return nil
}

// CanDelete guards hard deletion, which only pending bookings allow.
func CanDelete(b *models.Booking, actor Actor) error {
	return Guard(actor, b, ActionDelete)
}

// Promote moves an approved booking whose date has arrived to upcoming.
// It is the time-based promotion and has no actor.
func Promote(b *models.Booking, today time.Time) error {
	if err := CanTransition(StatusOf(b), ActionPromote); err != nil {
		return err
	}
	if models.DateOf(b.Date).After(models.DateOf(today)) {
		return &TransitionError{Current: StatusOf(b), Action: ActionPromote}
	}

	b.Status = string(StatusUpcoming)
	return nil
}

// ===============================
// Update
// ===============================

type Patch struct {
	SubjectID *uuid.UUID
	Date      *time.Time
	StartTime *models.TimeOfDay
	EndTime   *models.TimeOfDay
	Notes     *string
}

// Reslots reports whether the patch moves the booking in time.
func (p Patch) Reslots() bool {
	return p.Date != nil || p.StartTime != nil || p.EndTime != nil
}

// PatchedSlot returns the date and window the booking would occupy after the
// patch, without touching b.
func PatchedSlot(b *models.Booking, p Patch) (time.Time, Window) {
	date := b.Date
	w := WindowOf(b)
	if p.Date != nil {
		date = models.DateOf(*p.Date)
	}
	if p.StartTime != nil {
		w.Start = *p.StartTime
	}
	if p.EndTime != nil {
		w.End = *p.EndTime
	}
	return date, w
}

// Update validates the patch completely before applying any of it.
func Update(b *models.Booking, actor Actor, p Patch, today time.Time) error {
	if err := Guard(actor, b, ActionUpdate); err != nil {
		return err
	}

	if p.SubjectID != nil && *p.SubjectID == uuid.Nil {
		return invalid("subject_id", "must not be empty")
	}

	date, w := PatchedSlot(b, p)
	if p.Reslots() {
		if err := ValidateSlot(date, w, today); err != nil {
			return err
		}
	}

	if p.SubjectID != nil {
		b.SubjectID = *p.SubjectID
	}
	if p.Notes != nil {
		b.Notes = *p.Notes
	}
	b.Date = date
	b.StartTime = w.Start
	b.EndTime = w.End
	b.Duration = w.Minutes()
	return nil
}

// ===============================
// Helpers
// ===============================

func cancel(b *models.Booking, reason string, now time.Time) {
	b.Status = string(StatusCancelled)
	b.CancellationReason = reasonPtr(reason)
	stamp(&b.CancelledAt, now)
}

// stamp sets a transition timestamp once; later calls never overwrite it.
func stamp(field **time.Time, now time.Time) {
	if *field != nil {
		return
	}
	t := now
	*field = &t
}

func reasonPtr(reason string) *string {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil
	}
	return &reason
}
