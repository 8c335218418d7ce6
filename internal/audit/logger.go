package audit

import (
	"context"

	"go.uber.org/zap"
)

// Logger is a Subscriber that writes every event to the application log.
type Logger struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Logger {
	return &Logger{log: log.Named("audit")}
}

func (l *Logger) Handle(_ context.Context, ev Event) error {
	fields := []zap.Field{
		zap.String("booking_id", ev.BookingID.String()),
		zap.String("reference", ev.Reference),
		zap.String("actor_role", ev.ActorRole),
		zap.Time("at", ev.At),
		zap.Any("metadata", ev.Metadata),
	}
	if ev.ActorID != nil {
		fields = append(fields, zap.String("actor_id", ev.ActorID.String()))
	}

	l.log.Info(string(ev.Kind), fields...)
	return nil
}
