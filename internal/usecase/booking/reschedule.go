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

type RescheduleInput struct {
	Date      time.Time        `json:"date"`
	StartTime models.TimeOfDay `json:"start_time"`
	EndTime   models.TimeOfDay `json:"end_time"`
	Notes     *string          `json:"notes" validate:"omitempty,max=2000"`
}

// RescheduleOutput pairs the retired booking with its pending successor.
type RescheduleOutput struct {
	Original *models.Booking
	Next     *models.Booking
}

// Reschedule cancels the booking and creates its successor in one
// transaction: either both changes are visible or neither is.
func (s *Service) Reschedule(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	in RescheduleInput,
) (*RescheduleOutput, error) {
	const op = "booking.Service.Reschedule"

	if err := s.check(in); err != nil {
		return nil, err
	}
	window := domain.Window{Start: in.StartTime, End: in.EndTime}
	if err := domain.ValidateSlot(in.Date, window, s.today()); err != nil {
		return nil, err
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(op, err)
	}

	var (
		out    *RescheduleOutput
		events []audit.Event
	)
	err = s.serialize(ctx, current.TeacherID, func(ctx context.Context) error {
		return s.repo.WithinTx(ctx, func(tx domain.Tx) error {
			if err := tx.LockTeacher(ctx, current.TeacherID); err != nil {
				return err
			}
			original, err := tx.GetForUpdate(ctx, id)
			if err != nil {
				return err
			}
			existing, err := tx.ListActiveForTeacherOnDate(ctx, original.TeacherID, models.DateOf(in.Date))
			if err != nil {
				return err
			}

			now := s.now()
			res, err := domain.Reschedule(original, actor, domain.RescheduleParams{
				Date:   in.Date,
				Window: window,
				Notes:  in.Notes,
			}, existing, now, s.today())
			if err != nil {
				return err
			}

			if res.Cancelled {
				if err := tx.Update(ctx, res.Original); err != nil {
					return err
				}
				events = append(events,
					audit.NewEvent(domain.EventCancelled, res.Original, actor, now).
						With("reason", domain.RescheduleReason))
			}

			if res.Next.Reference, err = s.refs.Generate(ctx, tx.ReferenceExists); err != nil {
				return err
			}
			if err := tx.Insert(ctx, res.Next); err != nil {
				return err
			}
			events = append(events,
				audit.NewEvent(domain.EventRescheduled, res.Next, actor, now).
					With("previous_booking_id", res.Original.ID.String()).
					With("previous_reference", res.Original.Reference))

			if err := tx.AppendEvents(ctx, audit.Records(events)...); err != nil {
				return err
			}
			out = &RescheduleOutput{Original: res.Original, Next: res.Next}
			return nil
		})
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.publish(ctx, events)
	s.logger.Info("booking rescheduled",
		zap.String("booking_id", out.Original.ID.String()),
		zap.String("next_booking_id", out.Next.ID.String()),
		zap.String("next_reference", out.Next.Reference),
	)
	return out, nil
}
