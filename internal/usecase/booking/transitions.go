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

func (s *Service) Approve(ctx context.Context, actor domain.Actor, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, "booking.Service.Approve", actor, id, domain.ActionApprove,
		func(b *models.Booking, now time.Time) error {
			return domain.Approve(b, actor, now)
		})
}

func (s *Service) Reject(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	return s.transition(ctx, "booking.Service.Reject", actor, id, domain.ActionReject,
		func(b *models.Booking, now time.Time) error {
			return domain.Reject(b, actor, reason, now)
		})
}

func (s *Service) Cancel(ctx context.Context, actor domain.Actor, id uuid.UUID, reason string) (*models.Booking, error) {
	return s.transition(ctx, "booking.Service.Cancel", actor, id, domain.ActionCancel,
		func(b *models.Booking, now time.Time) error {
			return domain.Cancel(b, actor, reason, now)
		})
}

func (s *Service) Complete(ctx context.Context, actor domain.Actor, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, "booking.Service.Complete", actor, id, domain.ActionComplete,
		func(b *models.Booking, now time.Time) error {
			return domain.Complete(b, actor, now)
		})
}

func (s *Service) Miss(ctx context.Context, actor domain.Actor, id uuid.UUID) (*models.Booking, error) {
	return s.transition(ctx, "booking.Service.Miss", actor, id, domain.ActionMiss,
		func(b *models.Booking, _ time.Time) error {
			return domain.Miss(b, actor)
		})
}

// transition applies a single-booking status change under a row lock. None
// of these can create a new overlap, so the teacher lock is not taken.
func (s *Service) transition(
	ctx context.Context,
	op string,
	actor domain.Actor,
	id uuid.UUID,
	action domain.Action,
	apply func(b *models.Booking, now time.Time) error,
) (*models.Booking, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var (
		out    *models.Booking
		events []audit.Event
	)
	err := s.repo.WithinTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}

		now := s.now()
		if err := apply(b, now); err != nil {
			return err
		}
		if err := tx.Update(ctx, b); err != nil {
			return err
		}

		kind, _ := domain.EventFor(action)
		ev := audit.NewEvent(kind, b, actor, now)
		if b.CancellationReason != nil && (action == domain.ActionCancel || action == domain.ActionReject) {
			ev = ev.With("reason", *b.CancellationReason)
		}
		events = []audit.Event{ev}
		if err := tx.AppendEvents(ctx, audit.Records(events)...); err != nil {
			return err
		}

		out = b
		return nil
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.publish(ctx, events)
	s.logger.Info("booking "+string(action),
		zap.String("booking_id", out.ID.String()),
		zap.String("status", out.Status),
		zap.String("actor_role", string(actor.Role)),
	)
	return out, nil
}
