package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	CouponTypeLifetime       = "lifetime"
	CouponTypeTrialExtension = "trial_extension"
)

// CouponCode is a promotional code redeemed against the shared usage ledger.
// Invariant: usage_count never exceeds usage_limit when usage_limit is set;
// the increment is a single conditional UPDATE, never read-then-write.
type CouponCode struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Code          string     `gorm:"size:100;not null;uniqueIndex" json:"code"`
	Type          string     `gorm:"size:50;not null" json:"type"`
	Description   string     `gorm:"size:255" json:"description"`
	UsageLimit    *int       `json:"usage_limit"` // nil = unlimited
	UsageCount    int        `gorm:"not null;default:0" json:"usage_count"`
	Active        bool       `gorm:"not null;default:true" json:"active"`
	GrantedApps   []string   `gorm:"serializer:json;type:text" json:"granted_apps"`
	ExtensionDays int        `gorm:"not null;default:30" json:"extension_days"`
	ExpiresAt     *time.Time `json:"expires_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (c *CouponCode) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// NormalizeCouponCode trims and uppercases a user-entered code.
func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
