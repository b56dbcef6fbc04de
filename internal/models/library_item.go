package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LibraryItem is a saved content reference inside one app, scoped to a
// profile. A historical sync defect left some rows with a NULL profile_id;
// those orphans are repaired by the backfill job.
type LibraryItem struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AppID     string     `gorm:"size:50;not null;index" json:"-"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	ProfileID *uuid.UUID `gorm:"type:uuid;index" json:"profile_id"`
	ItemKey   string     `gorm:"size:255;not null;index" json:"item_key"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (l *LibraryItem) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
