package models

import (
	"time"

	"github.com/google/uuid"
)

type Booking struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Reference string    `gorm:"size:16;uniqueIndex;not null" json:"reference"`

	StudentID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"student_id"`
	TeacherID  uuid.UUID  `gorm:"type:uuid;not null;index:idx_bookings_teacher_date" json:"teacher_id"`
	SubjectID  uuid.UUID  `gorm:"type:uuid;not null" json:"subject_id"`
	ScheduleID *uuid.UUID `gorm:"type:uuid" json:"schedule_id"`

	Date      time.Time `gorm:"column:booking_date;type:date;not null;index:idx_bookings_teacher_date" json:"date"`
	StartTime TimeOfDay `gorm:"column:start_minute;not null" json:"start_time"`
	EndTime   TimeOfDay `gorm:"column:end_minute;not null" json:"end_time"`
	Duration  int       `gorm:"not null" json:"duration"`

	Status string `gorm:"size:20;not null;default:'pending'" json:"status"`
	Notes  string `gorm:"type:text" json:"notes"`

	PreviousBookingID  *uuid.UUID `gorm:"type:uuid;index" json:"previous_booking_id"`
	CancellationReason *string    `gorm:"type:text" json:"cancellation_reason"`

	ApprovedAt    *time.Time `json:"approved_at"`
	RejectedAt    *time.Time `json:"rejected_at"`
	CompletedAt   *time.Time `json:"completed_at"`
	CancelledAt   *time.Time `json:"cancelled_at"`
	RescheduledAt *time.Time `json:"rescheduled_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DateOf reduces t to its civil date, anchored at midnight UTC, which is
// how booking dates are stored and compared.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
