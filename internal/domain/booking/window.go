package booking

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

const DateLayout = "2006-01-02"

// Window is the half-open interval [Start, End) a session occupies on its date.
type Window struct {
	Start models.TimeOfDay
	End   models.TimeOfDay
}

func WindowOf(b *models.Booking) Window {
	return Window{Start: b.StartTime, End: b.EndTime}
}

func (w Window) Overlaps(o Window) bool {
	return w.Start < o.End && o.Start < w.End
}

func (w Window) Minutes() int {
	return int(w.End) - int(w.Start)
}

func (w Window) String() string {
	return fmt.Sprintf("%s-%s", w.Start, w.End)
}

// ValidateSlot checks a requested date and window before any storage access.
func ValidateSlot(date time.Time, w Window, today time.Time) error {
	if date.IsZero() {
		return invalid("date", "is required")
	}
	if models.DateOf(date).Before(models.DateOf(today)) {
		return invalid("date", "must not be in the past")
	}
	if !w.Start.Valid() {
		return invalid("start_time", "out of range")
	}
	if !w.End.Valid() {
		return invalid("end_time", "out of range")
	}
	if w.Start >= w.End {
		return invalid("end_time", "must be after start_time")
	}
	return nil
}

// ===============================
// Conflict detection
// ===============================

// DetectConflict checks the requested window against a teacher's bookings on
// the same date. Only active bookings block; exclude skips the booking being
// edited so it does not collide with itself.
func DetectConflict(
	existing []models.Booking,
	date time.Time,
	w Window,
	exclude *uuid.UUID,
) error {
	day := models.DateOf(date)

	for i := range existing {
		b := &existing[i]

		if exclude != nil && b.ID == *exclude {
			continue
		}
		if !StatusOf(b).IsActive() {
			continue
		}
		if !models.DateOf(b.Date).Equal(day) {
			continue
		}
		if WindowOf(b).Overlaps(w) {
			return conflictWith(b)
		}
	}

	return nil
}

// HasConflict is the boolean form of DetectConflict.
func HasConflict(existing []models.Booking, date time.Time, w Window, exclude *uuid.UUID) bool {
	return DetectConflict(existing, date, w, exclude) != nil
}
