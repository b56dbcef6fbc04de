package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SyncStatusSynced  = "synced"
	SyncStatusPending = "pending"
	SyncStatusFailed  = "failed"
)

// AppSyncStatus is transient bookkeeping for one (user, app) pair,
// overwritten after every provisioning or password-sync attempt. Failed and
// pending rows are replayed by the reconciliation worker.
type AppSyncStatus struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sync_status_user_app" json:"user_id"`
	AppID        string    `gorm:"size:50;not null;uniqueIndex:idx_sync_status_user_app" json:"app_id"`
	SyncStatus   string    `gorm:"size:20;not null;default:'pending';index" json:"sync_status"`
	LastSyncedAt time.Time `json:"last_synced_at"`
	LastError    string    `gorm:"type:text" json:"last_error"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (s *AppSyncStatus) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
