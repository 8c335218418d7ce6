package booking

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// Repository is the storage collaborator. Every mutation runs inside
// WithinTx so that multi-row changes commit or roll back together.
type Repository interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	// ListSuccessors returns bookings whose PreviousBookingID is id.
	ListSuccessors(ctx context.Context, id uuid.UUID) ([]models.Booking, error)

	ListForTeacherOnDate(
		ctx context.Context,
		teacherID uuid.UUID,
		date time.Time,
	) ([]models.Booking, error)

	// ListDueForPromotion returns approved bookings dated on or before day.
	ListDueForPromotion(ctx context.Context, day time.Time) ([]models.Booking, error)

	// ListEvents returns one page of a booking's events, newest first,
	// along with the total matching the filter.
	ListEvents(
		ctx context.Context,
		bookingID uuid.UUID,
		q EventQuery,
	) ([]models.BookingEvent, int64, error)
}

type EventQuery struct {
	Kind   EventKind
	Limit  int
	Offset int
}

type Tx interface {
	// LockTeacher serializes conflict checks and writes for one teacher
	// until the transaction ends.
	LockTeacher(ctx context.Context, teacherID uuid.UUID) error

	// GetForUpdate loads a booking and holds it until the transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*models.Booking, error)

	ListActiveForTeacherOnDate(
		ctx context.Context,
		teacherID uuid.UUID,
		date time.Time,
	) ([]models.Booking, error)

	ReferenceExists(ctx context.Context, ref string) (bool, error)

	Insert(ctx context.Context, b *models.Booking) error
	Update(ctx context.Context, b *models.Booking) error
	Delete(ctx context.Context, id uuid.UUID) error

	AppendEvents(ctx context.Context, events ...models.BookingEvent) error
}
