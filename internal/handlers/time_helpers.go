package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/BruksfildServices01/tutor-scheduler/internal/domain/booking"
	"github.com/BruksfildServices01/tutor-scheduler/internal/models"
)

// Dates arrive as civil dates; they carry no timezone of their own.
func parseDate(field, s string) (time.Time, error) {
	d, err := time.Parse(booking.DateLayout, s)
	if err != nil {
		return time.Time{}, &booking.ValidationError{Field: field, Reason: "must be a YYYY-MM-DD date"}
	}
	return d, nil
}

func parseTimeOfDay(field, s string) (models.TimeOfDay, error) {
	t, err := models.ParseTimeOfDay(s)
	if err != nil {
		return 0, &booking.ValidationError{Field: field, Reason: "must be an HH:MM time"}
	}
	return t, nil
}

func parseID(field, s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, &booking.ValidationError{Field: field, Reason: "must be a UUID"}
	}
	return id, nil
}

func parseOptionalID(field string, s *string) (*uuid.UUID, error) {
	if s == nil {
		return nil, nil
	}
	id, err := parseID(field, *s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
