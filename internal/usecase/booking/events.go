package booking

import (
	"context"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

const (
	DefaultEventLimit = 50
	MaxEventLimit     = 200
)

type EventsPage struct {
	Events []models.BookingEvent
	Total  int64
	Page   int
	Limit  int
}

// Events pages through the audit trail of a booking the actor can see.
// page starts at 1; out of range values fall back to the defaults.
func (s *Service) Events(
	ctx context.Context,
	actor domain.Actor,
	id uuid.UUID,
	kind domain.EventKind,
	page, limit int,
) (*EventsPage, error) {
	const op = "booking.Service.Events"

	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > MaxEventLimit {
		limit = DefaultEventLimit
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	events, total, err := s.repo.ListEvents(ctx, id, domain.EventQuery{
		Kind:   kind,
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	return &EventsPage{Events: events, Total: total, Page: page, Limit: limit}, nil
}
