package booking

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
)

// Delete removes a pending booking outright.
func (s *Service) Delete(ctx context.Context, actor domain.Actor, id uuid.UUID) error {
	const op = "booking.Service.Delete"

	ctx, cancel := s.begin(ctx)
	defer cancel()

	var events []audit.Event
	err := s.repo.WithinTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.CanDelete(b, actor); err != nil {
			return err
		}
		if err := tx.Delete(ctx, b.ID); err != nil {
			return err
		}

		events = []audit.Event{audit.NewEvent(domain.EventDeleted, b, actor, s.now())}
		return tx.AppendEvents(ctx, audit.Records(events)...)
	})
	if err != nil {
		return s.fail(op, err)
	}

	s.publish(ctx, events)
	s.logger.Info("booking deleted", zap.String("booking_id", id.String()))
	return nil
}
