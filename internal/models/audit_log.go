package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog is an append-only record of administrative and system actions.
// Rows are immutable once written and trimmed to a retention window.
type AuditLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Actor     string         `gorm:"size:255;not null;index" json:"actor"`
	Action    string         `gorm:"size:100;not null;index" json:"action"`
	Target    string         `gorm:"size:255;index" json:"target"`
	Details   datatypes.JSON `gorm:"type:jsonb" json:"details"`
	IP        string         `gorm:"size:64" json:"ip"`
	UserAgent string         `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time      `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
