package booking

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// Get returns a booking the actor is allowed to see. Bookings outside the
// actor's reach are reported as not found.
func (s *Service) Get(ctx context.Context, actor domain.Actor, id uuid.UUID) (*models.Booking, error) {
	const op = "booking.Service.Get"

	ctx, cancel := s.begin(ctx)
	defer cancel()

	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if err := domain.Authorize(actor, b, domain.ActionView); err != nil {
		return nil, err
	}
	return b, nil
}

// History walks PreviousBookingID links back from the booking and returns
// the chain oldest first, ending with the booking itself.
func (s *Service) History(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]models.Booking, error) {
	const op = "booking.Service.History"

	b, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	chain := []models.Booking{*b}
	seen := map[uuid.UUID]bool{b.ID: true}
	for prev := b.PreviousBookingID; prev != nil && !seen[*prev]; {
		p, err := s.repo.GetByID(ctx, *prev)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// predecessor was deleted; the chain ends here
				break
			}
			return nil, s.fail(op, err)
		}
		seen[p.ID] = true
		chain = append(chain, *p)
		prev = p.PreviousBookingID
	}

	slices.Reverse(chain)
	return chain, nil
}

// Reschedules lists the bookings created by rescheduling this one.
func (s *Service) Reschedules(ctx context.Context, actor domain.Actor, id uuid.UUID) ([]models.Booking, error) {
	const op = "booking.Service.Reschedules"

	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	out, err := s.repo.ListSuccessors(ctx, id)
	if err != nil {
		return nil, s.fail(op, err)
	}
	return out, nil
}

// TeacherDay lists a teacher's bookings on date. Only admins and the
// teacher may read a whole calendar day.
func (s *Service) TeacherDay(
	ctx context.Context,
	actor domain.Actor,
	teacherID uuid.UUID,
	date time.Time,
) ([]models.Booking, error) {
	const op = "booking.Service.TeacherDay"

	if actor.Role != domain.RoleAdmin && (actor.Role != domain.RoleTeacher || actor.ID != teacherID) {
		return nil, &domain.UnauthorizedError{Role: actor.Role, Action: domain.ActionView}
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	out, err := s.repo.ListForTeacherOnDate(ctx, teacherID, models.DateOf(date))
	if err != nil {
		return nil, s.fail(op, err)
	}
	return out, nil
}
