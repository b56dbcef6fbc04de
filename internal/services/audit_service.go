package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditService appends to the action log. Writes never propagate errors to
// the operation they are attached to; a failed audit write is logged locally
// and the primary operation continues.
type AuditService struct {
	db            *gorm.DB
	retentionDays int
}

func NewAuditService(db *gorm.DB, retentionDays int) *AuditService {
	return &AuditService{db: db, retentionDays: retentionDays}
}

type AuditEntry struct {
	Actor     string
	Action    string
	Target    string
	Details   map[string]interface{}
	IP        string
	UserAgent string
}

// Record appends one entry and trims rows that fell out of the retention
// window.
func (s *AuditService) Record(entry AuditEntry) {
	row := models.AuditLog{
		Actor:     entry.Actor,
		Action:    entry.Action,
		Target:    entry.Target,
		IP:        entry.IP,
		UserAgent: entry.UserAgent,
	}
	if len(entry.Details) > 0 {
		if b, err := json.Marshal(entry.Details); err == nil {
			row.Details = datatypes.JSON(b)
		}
	}

	if err := s.db.Create(&row).Error; err != nil {
		slog.Error("audit write failed", "action", entry.Action, "target", entry.Target, "error", err)
		return
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	if err := s.db.Where("created_at < ?", cutoff).Delete(&models.AuditLog{}).Error; err != nil {
		slog.Error("audit trim failed", "error", err)
	}
}

type AuditFilter struct {
	Action string
	Actor  string
	Target string
	From   time.Time
	To     time.Time
	Limit  int
}

// List returns entries newest first, bounded to the retention window.
func (s *AuditService) List(filter AuditFilter) ([]models.AuditLog, error) {
	q := s.db.Model(&models.AuditLog{})
	if filter.Action != "" {
		q = q.Where("action = ?", filter.Action)
	}
	if filter.Actor != "" {
		q = q.Where("actor = ?", filter.Actor)
	}
	if filter.Target != "" {
		q = q.Where("target = ?", filter.Target)
	}
	if !filter.From.IsZero() {
		q = q.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		q = q.Where("created_at <= ?", filter.To)
	}

	limit := filter.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	var entries []models.AuditLog
	err := q.Order("created_at DESC").Limit(limit).Find(&entries).Error
	return entries, err
}
