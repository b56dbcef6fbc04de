package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthCredential is the per-app login record the app's own verifier reads.
// Looked up by (provider, account_id) where account_id is the normalized
// email for the password provider.
type AuthCredential struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AppID        string     `gorm:"size:50;not null;uniqueIndex:idx_credentials_app_provider_account" json:"-"`
	Provider     string     `gorm:"size:50;not null;default:'password';uniqueIndex:idx_credentials_app_provider_account" json:"provider"`
	AccountID    string     `gorm:"size:255;not null;uniqueIndex:idx_credentials_app_provider_account" json:"account_id"`
	AppAccountID uuid.UUID  `gorm:"type:uuid;not null;index" json:"app_account_id"`
	PasswordHash string     `gorm:"not null" json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	AppAccount   AppAccount `gorm:"foreignKey:AppAccountID" json:"-"`
}

func (c *AuthCredential) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
