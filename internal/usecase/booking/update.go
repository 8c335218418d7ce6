package booking

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// UpdateInput carries the fields to change; nil fields are left alone.
type UpdateInput struct {
	SubjectID *uuid.UUID        `json:"subject_id"`
	Date      *time.Time        `json:"date"`
	StartTime *models.TimeOfDay `json:"start_time"`
	EndTime   *models.TimeOfDay `json:"end_time"`
	Notes     *string           `json:"notes" validate:"omitempty,max=2000"`
}

// Update edits a pending or upcoming booking in place. A new window is
// checked against the teacher's other active bookings, never against the
// booking itself.
func (s *Service) Update(ctx context.Context, actor domain.Actor, id uuid.UUID, in UpdateInput) (*models.Booking, error) {
	const op = "booking.Service.Update"

	if err := s.check(in); err != nil {
		return nil, err
	}
	patch := domain.Patch{
		SubjectID: in.SubjectID,
		Date:      in.Date,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Notes:     in.Notes,
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(op, err)
	}

	var (
		out    *models.Booking
		events []audit.Event
	)
	err = s.serialize(ctx, current.TeacherID, func(ctx context.Context) error {
		return s.repo.WithinTx(ctx, func(tx domain.Tx) error {
			if err := tx.LockTeacher(ctx, current.TeacherID); err != nil {
				return err
			}
			b, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if err := domain.Guard(actor, b, domain.ActionUpdate); err != nil {
				return err
			}

			today := s.today()
			if patch.Reslots() {
				date, w := domain.PatchedSlot(b, patch)
				if err := domain.ValidateSlot(date, w, today); err != nil {
					return err
				}
				existing, err := tx.ListActiveForTeacherOnDate(ctx, b.TeacherID, date)
				if err != nil {
					return err
				}
				if err := domain.DetectConflict(existing, date, w, &b.ID); err != nil {
					return err
				}
			}

			if err := domain.Update(b, actor, patch, today); err != nil {
				return err
			}
			if err := tx.Update(ctx, b); err != nil {
				return err
			}

			events = []audit.Event{audit.NewEvent(domain.EventUpdated, b, actor, s.now())}
			if err := tx.AppendEvents(ctx, audit.Records(events)...); err != nil {
				return err
			}
			out = b
			return nil
		})
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.publish(ctx, events)
	s.logger.Info("booking updated",
		zap.String("booking_id", out.ID.String()),
		zap.Bool("reslotted", patch.Reslots()),
	)
	return out, nil
}
