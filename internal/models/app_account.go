package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// App-local statuses produced by provisioning. Apps never see the full
// central status vocabulary, only the mapped value.
const (
	AppStatusActive   = "active"
	AppStatusTrial    = "trial"
	AppStatusInactive = "inactive"
)

// AppAccount is one app's mirror of a central user. It is created and
// updated only by the provisioning gateway; user-facing mutations always
// target the central store first.
type AppAccount struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	AppID        string    `gorm:"size:50;not null;uniqueIndex:idx_app_accounts_app_email" json:"-"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:idx_app_accounts_app_email" json:"email"`
	PasswordHash string    `gorm:"not null" json:"-"`
	Name         string    `gorm:"size:255" json:"name"`
	Status       string    `gorm:"size:50;not null;default:'inactive'" json:"status"`
	Entitled     bool      `gorm:"not null;default:false" json:"entitled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (a *AppAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
