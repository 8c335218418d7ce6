package audit

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// SystemRole tags events raised by jobs rather than a person.
const SystemRole = "system"

type Event struct {
	Kind      booking.EventKind
	BookingID uuid.UUID
	Reference string
	ActorID   *uuid.UUID
	ActorRole string
	Metadata  map[string]any
	At        time.Time
}

// NewEvent builds an event for b raised by actor. A zero actor marks a
// system event such as promotion.
func NewEvent(kind booking.EventKind, b *models.Booking, actor booking.Actor, at time.Time) Event {
	role := string(actor.Role)
	if actor.IsSystem() {
		role = SystemRole
	}

	ev := Event{
		Kind:      kind,
		BookingID: b.ID,
		Reference: b.Reference,
		ActorRole: role,
		At:        at,
		Metadata: map[string]any{
			"status": b.Status,
			"date":   b.Date.Format(booking.DateLayout),
			"start":  b.StartTime.String(),
			"end":    b.EndTime.String(),
		},
	}
	if actor.ID != uuid.Nil {
		id := actor.ID
		ev.ActorID = &id
	}
	return ev
}

func (e Event) With(key string, value any) Event {
	meta := make(map[string]any, len(e.Metadata)+1)
	for k, v := range e.Metadata {
		meta[k] = v
	}
	meta[key] = value
	e.Metadata = meta
	return e
}

// Record converts the event into the row stored alongside the booking.
func (e Event) Record() models.BookingEvent {
	var metaJSON string
	if e.Metadata != nil {
		if b, err := json.Marshal(e.Metadata); err == nil {
			metaJSON = string(b)
		}
	}

	return models.BookingEvent{
		BookingID: e.BookingID,
		ActorID:   e.ActorID,
		ActorRole: e.ActorRole,
		Kind:      string(e.Kind),
		Metadata:  metaJSON,
		CreatedAt: e.At,
	}
}

func Records(events []Event) []models.BookingEvent {
	out := make([]models.BookingEvent, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Record())
	}
	return out
}
