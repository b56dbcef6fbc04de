package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Central subscription statuses. Every app-local status is derived from one
// of these; the central store is the only place they are written.
const (
	StatusTrial      = "trial"
	StatusActive     = "active"
	StatusLifetime   = "lifetime"
	StatusCanceled   = "canceled"
	StatusPastDue    = "past_due"
	StatusIncomplete = "incomplete"
	StatusExpired    = "expired"
)

// CentralUser is the authoritative account record shared by every app in the
// family. Exactly one row per normalized email. Per-app mirrors (AppAccount)
// are derived from this record and never the other way around.
type CentralUser struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Email              string    `gorm:"size:255;not null;uniqueIndex" json:"email"`
	PasswordHash       string    `gorm:"not null" json:"-"`
	Name               string    `gorm:"size:255" json:"name"`
	SubscriptionStatus string    `gorm:"size:50;not null;default:'trial'" json:"subscription_status"`
	TrialStartedAt     time.Time `json:"trial_started_at"`
	TrialExpiresAt     time.Time `json:"trial_expires_at"`

	StripeCustomerID     string `gorm:"size:255;index" json:"-"`
	StripeSubscriptionID string `gorm:"size:255;index" json:"-"`
	BillingInterval      string `gorm:"size:20" json:"billing_interval"`

	EntitledApps   []string        `gorm:"serializer:json;type:text" json:"entitled_apps"`
	OnboardedApps  map[string]bool `gorm:"serializer:json;type:text" json:"onboarded_apps"`
	RedeemedCoupon string          `gorm:"size:100" json:"-"` // write-once

	// Grandfather fields: users migrated from a legacy plan keep their locked
	// rate and full-family entitlement regardless of the nominal status.
	GrandfatheredPriceCents *int       `json:"-"`
	GrandfatherOriginApp    string     `gorm:"size:50" json:"-"`
	GrandfatheredAt         *time.Time `json:"-"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *CentralUser) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *CentralUser) IsGrandfathered() bool {
	return u.GrandfatheredAt != nil
}

// NormalizeEmail is the single normalization rule every store agrees on.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
