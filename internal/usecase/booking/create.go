package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

type CreateInput struct {
	TeacherID  uuid.UUID  `json:"teacher_id" validate:"required"`
	StudentID  uuid.UUID  `json:"student_id" validate:"required"`
	SubjectID  uuid.UUID  `json:"subject_id" validate:"required"`
	ScheduleID *uuid.UUID `json:"schedule_id"`

	Date      time.Time        `json:"date"`
	StartTime models.TimeOfDay `json:"start_time"`
	EndTime   models.TimeOfDay `json:"end_time"`

	Notes string `json:"notes" validate:"max=2000"`
}

// Create stores a pending booking after checking the teacher has no active
// booking overlapping the requested window.
func (s *Service) Create(ctx context.Context, actor domain.Actor, in CreateInput) (*models.Booking, error) {
	const op = "booking.Service.Create"

	if err := s.check(in); err != nil {
		return nil, err
	}
	if err := domain.AuthorizeCreate(actor, in.TeacherID, in.StudentID); err != nil {
		return nil, err
	}

	params := domain.NewParams{
		TeacherID:  in.TeacherID,
		StudentID:  in.StudentID,
		SubjectID:  in.SubjectID,
		ScheduleID: in.ScheduleID,
		Date:       in.Date,
		Window:     domain.Window{Start: in.StartTime, End: in.EndTime},
		Notes:      in.Notes,
	}
	if _, err := domain.New(params, s.today()); err != nil {
		return nil, err
	}

	ctx, cancel := s.begin(ctx)
	defer cancel()

	var (
		created *models.Booking
		events  []audit.Event
	)
	err := s.serialize(ctx, in.TeacherID, func(ctx context.Context) error {
		var err error
		for attempt := 0; ; attempt++ {
			created, events, err = s.insertNew(ctx, actor, params)
			if errors.Is(err, domain.ErrDuplicateReference) && attempt < referenceRetries {
				s.logger.Warn("booking reference taken, retrying", zap.Int("attempt", attempt+1))
				continue
			}
			return err
		}
	})
	if err != nil {
		return nil, s.fail(op, err)
	}

	s.publish(ctx, events)
	s.logger.Info("booking created",
		zap.String("booking_id", created.ID.String()),
		zap.String("reference", created.Reference),
		zap.String("teacher_id", created.TeacherID.String()),
		zap.String("date", created.Date.Format(domain.DateLayout)),
		zap.String("window", domain.WindowOf(created).String()),
	)
	return created, nil
}

func (s *Service) insertNew(
	ctx context.Context,
	actor domain.Actor,
	params domain.NewParams,
) (*models.Booking, []audit.Event, error) {
	var (
		b      *models.Booking
		events []audit.Event
	)
	err := s.repo.WithinTx(ctx, func(tx domain.Tx) error {
		var err error
		if b, err = domain.New(params, s.today()); err != nil {
			return err
		}

		if err := tx.LockTeacher(ctx, b.TeacherID); err != nil {
			return err
		}
		existing, err := tx.ListActiveForTeacherOnDate(ctx, b.TeacherID, b.Date)
		if err != nil {
			return err
		}
		if err := domain.DetectConflict(existing, b.Date, domain.WindowOf(b), nil); err != nil {
			return err
		}

		if b.Reference, err = s.refs.Generate(ctx, tx.ReferenceExists); err != nil {
			return err
		}
		if err := tx.Insert(ctx, b); err != nil {
			return err
		}

		events = []audit.Event{audit.NewEvent(domain.EventCreated, b, actor, s.now())}
		return tx.AppendEvents(ctx, audit.Records(events)...)
	})
	if err != nil {
		return nil, nil, err
	}
	return b, events, nil
}
