package booking

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
)

// PromoteDue moves approved bookings whose date has arrived to upcoming and
// reports how many were promoted. Bookings that changed state since they
// were listed are skipped.
func (s *Service) PromoteDue(ctx context.Context) (int, error) {
	const op = "booking.Service.PromoteDue"

	today := s.today()
	listCtx, cancel := s.begin(ctx)
	due, err := s.repo.ListDueForPromotion(listCtx, today)
	cancel()
	if err != nil {
		return 0, s.fail(op, err)
	}

	promoted := 0
	for _, b := range due {
		ok, err := s.promote(ctx, b.ID)
		if err != nil {
			return promoted, s.fail(op, err)
		}
		if ok {
			promoted++
		}
	}

	if promoted > 0 {
		s.logger.Info("bookings promoted",
			zap.Int("count", promoted),
			zap.String("date", today.Format(domain.DateLayout)),
		)
	}
	return promoted, nil
}

func (s *Service) promote(ctx context.Context, id uuid.UUID) (bool, error) {
	ctx, cancel := s.begin(ctx)
	defer cancel()

	var events []audit.Event
	err := s.repo.WithinTx(ctx, func(tx domain.Tx) error {
		b, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := domain.Promote(b, s.today()); err != nil {
			return err
		}
		if err := tx.Update(ctx, b); err != nil {
			return err
		}

		events = []audit.Event{audit.NewEvent(domain.EventPromoted, b, domain.Actor{}, s.now())}
		return tx.AppendEvents(ctx, audit.Records(events)...)
	})
	switch {
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrNotFound):
		return false, nil
	case err != nil:
		return false, err
	}

	s.publish(ctx, events)
	return true, nil
}
