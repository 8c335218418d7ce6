package booking

import (
	"time"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

const RescheduleReason = "Rescheduled to a new time"

type RescheduleParams struct {
	Date   time.Time
	Window Window
	// Notes replaces the original's notes when non-nil.
	Notes  *string
}

// RescheduleResult holds both halves of a reschedule. They must be persisted
// together.
type RescheduleResult struct {
	Original  *models.Booking
	Next      *models.Booking
	// Cancelled is false when the original was already cancelled.
	Cancelled bool
}

// Reschedule retires original and builds its pending successor. existing
// must hold the teacher's bookings on the new date; the new window is
// checked against all of them. original is only mutated once every check
// has passed.
func Reschedule(
	original *models.Booking,
	actor Actor,
	p RescheduleParams,
	existing []models.Booking,
	now time.Time,
	today time.Time,
) (*RescheduleResult, error) {
	if err := Guard(actor, original, ActionReschedule); err != nil {
		return nil, err
	}
	if err := ValidateSlot(p.Date, p.Window, today); err != nil {
		return nil, err
	}
	if err := DetectConflict(existing, p.Date, p.Window, nil); err != nil {
		return nil, err
	}

	notes := original.Notes
	if p.Notes != nil {
		notes = *p.Notes
	}

	prevID := original.ID
	rescheduledAt := now
	next := &models.Booking{
		TeacherID:         original.TeacherID,
		StudentID:         original.StudentID,
		SubjectID:         original.SubjectID,
		ScheduleID:        original.ScheduleID,
		Date:              models.DateOf(p.Date),
		StartTime:         p.Window.Start,
		EndTime:           p.Window.End,
		Duration:          p.Window.Minutes(),
		Status:            string(InitialStatus()),
		Notes:             notes,
		PreviousBookingID: &prevID,
		RescheduledAt:     &rescheduledAt,
	}

	res := &RescheduleResult{Original: original, Next: next}
	if StatusOf(original) != StatusCancelled {
		cancel(original, RescheduleReason, now)
		res.Cancelled = true
	}

	return res, nil
}
