package dto

import (
	"time"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// ======================================================
// REQUESTS
// ======================================================

type CreateBookingRequest struct {
	TeacherID  string  `json:"teacher_id" binding:"required"`
	StudentID  string  `json:"student_id" binding:"required"`
	SubjectID  string  `json:"subject_id" binding:"required"`
	ScheduleID *string `json:"schedule_id"`
	Date       string  `json:"date" binding:"required"`
	StartTime  string  `json:"start_time" binding:"required"`
	EndTime    string  `json:"end_time" binding:"required"`
	Notes      string  `json:"notes"`
}

type UpdateBookingRequest struct {
	SubjectID *string `json:"subject_id"`
	Date      *string `json:"date"`
	StartTime *string `json:"start_time"`
	EndTime   *string `json:"end_time"`
	Notes     *string `json:"notes"`
}

type RescheduleBookingRequest struct {
	Date      string  `json:"date" binding:"required"`
	StartTime string  `json:"start_time" binding:"required"`
	EndTime   string  `json:"end_time" binding:"required"`
	Notes     *string `json:"notes"`
}

type ReasonRequest struct {
	Reason string `json:"reason"`
}

// ======================================================
// RESPONSES
// ======================================================

type BookingDTO struct {
	ID                 string     `json:"id"`
	Reference          string     `json:"reference"`
	TeacherID          string     `json:"teacher_id"`
	StudentID          string     `json:"student_id"`
	SubjectID          string     `json:"subject_id"`
	ScheduleID         *string    `json:"schedule_id,omitempty"`
	Date               string     `json:"date"`
	StartTime          string     `json:"start_time"`
	EndTime            string     `json:"end_time"`
	Duration           int        `json:"duration"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	PreviousBookingID  *string    `json:"previous_booking_id,omitempty"`
	CancellationReason *string    `json:"cancellation_reason,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`
	RescheduledAt      *time.Time `json:"rescheduled_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type RescheduleDTO struct {
	Original BookingDTO `json:"original"`
	Booking  BookingDTO `json:"booking"`
}

func FromBooking(b *models.Booking) BookingDTO {
	out := BookingDTO{
		ID:                 b.ID.String(),
		Reference:          b.Reference,
		TeacherID:          b.TeacherID.String(),
		StudentID:          b.StudentID.String(),
		SubjectID:          b.SubjectID.String(),
		Date:               b.Date.Format(booking.DateLayout),
		StartTime:          b.StartTime.String(),
		EndTime:            b.EndTime.String(),
		Duration:           b.Duration,
		Status:             b.Status,
		Notes:              b.Notes,
		CancellationReason: b.CancellationReason,
		ApprovedAt:         b.ApprovedAt,
		RejectedAt:         b.RejectedAt,
		CompletedAt:        b.CompletedAt,
		CancelledAt:        b.CancelledAt,
		RescheduledAt:      b.RescheduledAt,
		CreatedAt:          b.CreatedAt,
		UpdatedAt:          b.UpdatedAt,
	}
	if b.ScheduleID != nil {
		s := b.ScheduleID.String()
		out.ScheduleID = &s
	}
	if b.PreviousBookingID != nil {
		p := b.PreviousBookingID.String()
		out.PreviousBookingID = &p
	}
	return out
}

func FromBookings(bs []models.Booking) []BookingDTO {
	out := make([]BookingDTO, 0, len(bs))
	for i := range bs {
		out = append(out, FromBooking(&bs[i]))
	}
	return out
}
