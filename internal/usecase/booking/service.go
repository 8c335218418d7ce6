package booking

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BruksfildServices01/tutor-scheduler/internal/audit"
	domain "github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/lock"
	"github.com/BruksfildServices01/tutor-scheduler/internal/timezone"
)

const (
	DefaultTimeout = 5 * time.Second

	// referenceRetries bounds how often a create is replayed when the
	// store rejects a reference another writer committed first.
	referenceRetries = 2
)

// Publisher receives events once the transaction that produced them has
// committed.
type Publisher interface {
	Dispatch(ctx context.Context, events ...audit.Event) error
}

type nopPublisher struct{}

func (nopPublisher) Dispatch(context.Context, ...audit.Event) error { return nil }

// Service orchestrates every booking operation: it loads state, asks the
// domain whether the change is legal, persists it atomically and publishes
// the resulting events.
type Service struct {
	repo      domain.Repository
	locker    lock.Locker
	refs      *domain.ReferenceGenerator
	publisher Publisher
	validate  *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
	loc       *time.Location
	timeout   time.Duration
}

type Option func(*Service)

func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLocation sets the timezone that decides what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithTimeout bounds each operation's storage work. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

func WithReferenceGenerator(g *domain.ReferenceGenerator) Option {
	return func(s *Service) { s.refs = g }
}

func NewService(repo domain.Repository, locker lock.Locker, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		locker:    locker,
		publisher: nopPublisher{},
		validate:  newValidator(),
		logger:    zap.NewNop(),
		now:       time.Now,
		loc:       timezone.Location(timezone.DefaultTimezone),
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.refs == nil {
		s.refs = domain.NewReferenceGenerator(domain.WithReferenceClock(s.now))
	}
	s.logger = s.logger.Named("booking")
	return s
}

func (s *Service) today() time.Time {
	return timezone.Today(s.now(), s.loc)
}

func (s *Service) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// serialize runs fn while holding the teacher's lock. The store takes its
// own per-teacher lock inside the transaction as well.
func (s *Service) serialize(ctx context.Context, teacherID uuid.UUID, fn func(ctx context.Context) error) error {
	key := lock.TeacherKey(teacherID)
	unlock, err := s.locker.Acquire(ctx, key)
	if err != nil {
		return err
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("release teacher lock", zap.String("key", key), zap.Error(err))
		}
	}()
	return fn(ctx)
}

// publish hands committed events to the publisher. The events are already
// stored, so a failure here is logged rather than returned.
func (s *Service) publish(ctx context.Context, events []audit.Event) {
	if len(events) == 0 {
		return
	}
	if err := s.publisher.Dispatch(context.WithoutCancel(ctx), events...); err != nil {
		s.logger.Error("publish booking events", zap.Int("events", len(events)), zap.Error(err))
	}
}

// fail wraps infrastructure errors with op. Domain errors are returned as is
// since their messages go straight to callers.
func (s *Service) fail(op string, err error) error {
	for _, target := range []error{
		domain.ErrValidation,
		domain.ErrSchedulingConflict,
		domain.ErrInvalidTransition,
		domain.ErrUnauthorized,
		domain.ErrNotFound,
	} {
		if errors.Is(err, target) {
			return err
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ===============================
// Input validation
// ===============================

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

func (s *Service) check(in any) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}

	fe := verrs[0]
	reason := "is invalid"
	switch fe.Tag() {
	case "required":
		reason = "is required"
	case "max":
		reason = fmt.Sprintf("must be at most %s characters", fe.Param())
	}
	return &domain.ValidationError{Field: fe.Field(), Reason: reason}
}
