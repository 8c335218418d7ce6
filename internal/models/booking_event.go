package models

import (
	"time"

	"github.com/google/uuid"
)

type BookingEvent struct {
	ID uint `gorm:"primaryKey" json:"id"`

	BookingID uuid.UUID  `gorm:"type:uuid;not null;index" json:"booking_id"`
	ActorID   *uuid.UUID `gorm:"type:uuid" json:"actor_id"`
	ActorRole string     `gorm:"size:20" json:"actor_role"`
	Kind      string     `gorm:"size:50;not null" json:"kind"`
	Metadata  string     `gorm:"type:text" json:"metadata"`

	CreatedAt time.Time `json:"created_at"`
}
