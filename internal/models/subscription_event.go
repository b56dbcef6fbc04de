package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionEvent is the append-only record of billing facts consumed from
// the payment processor. The unique event id makes webhook delivery
// idempotent: a redelivered event is recognized and skipped.
type SubscriptionEvent struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        *uuid.UUID     `gorm:"type:uuid;index" json:"user_id"`
	Email         string         `gorm:"size:255;index" json:"email"`
	EventType     string         `gorm:"size:100;not null" json:"event_type"`
	StripeEventID string         `gorm:"size:255;uniqueIndex" json:"stripe_event_id"`
	Payload       datatypes.JSON `gorm:"type:jsonb" json:"payload"`
	CreatedAt     time.Time      `gorm:"index" json:"created_at"`
}

func (e *SubscriptionEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
