package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/appclient"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"gorm.io/gorm"
)

// ReconcileService repairs data that drifted out of a valid state. It runs
// two jobs: the library-item backfill for rows that lost their profile
// scoping key, and the sync retry loop that replays failed or pending
// (user, app) provisioning through the same idempotent push the original
// attempt used.
type ReconcileService struct {
	db        *gorm.DB
	provision *ProvisionService
	client    *appclient.Client
	timeout   time.Duration
}

func NewReconcileService(db *gorm.DB, provision *ProvisionService, client *appclient.Client, timeout time.Duration) *ReconcileService {
	return &ReconcileService{db: db, provision: provision, client: client, timeout: timeout}
}

type BackfillResult struct {
	Created int `json:"created"`
	Deleted int `json:"deleted"`
	Skipped int `json:"skipped"`
	Errors  int `json:"errors"`
}

// BackfillLibraryItems finds library items whose profile_id is NULL, copies
// each one into every profile owned by the same user (skipping copies that
// already exist), then deletes the orphan. Per-record failures are counted
// and the batch continues. Running it again on repaired data changes
// nothing.
func (s *ReconcileService) BackfillLibraryItems() (BackfillResult, error) {
	var result BackfillResult

	var orphans []models.LibraryItem
	if err := s.db.Where("profile_id IS NULL").Find(&orphans).Error; err != nil {
		return result, err
	}

	for _, orphan := range orphans {
		var profiles []models.Profile
		if err := s.db.Where("user_id = ?", orphan.UserID).Find(&profiles).Error; err != nil {
			result.Errors++
			slog.Error("backfill: failed to load profiles", "item_id", orphan.ID, "error", err)
			continue
		}
		if len(profiles) == 0 {
			result.Skipped++
			continue
		}

		copyFailed := false
		for _, profile := range profiles {
			var count int64
			err := s.db.Model(&models.LibraryItem{}).
				Where("app_id = ? AND user_id = ? AND profile_id = ? AND item_key = ?",
					orphan.AppID, orphan.UserID, profile.ID, orphan.ItemKey).
				Count(&count).Error
			if err != nil {
				result.Errors++
				copyFailed = true
				continue
			}
			if count > 0 {
				result.Skipped++
				continue
			}

			profileID := profile.ID
			dup := models.LibraryItem{
				AppID:     orphan.AppID,
				UserID:    orphan.UserID,
				ProfileID: &profileID,
				ItemKey:   orphan.ItemKey,
			}
			if err := s.db.Create(&dup).Error; err != nil {
				result.Errors++
				copyFailed = true
				slog.Error("backfill: failed to create copy", "item_id", orphan.ID, "profile_id", profile.ID, "error", err)
				continue
			}
			result.Created++
		}

		// Keep the orphan around if any copy failed so a re-run can finish
		// the job.
		if copyFailed {
			continue
		}
		if err := s.db.Delete(&models.LibraryItem{}, "id = ?", orphan.ID).Error; err != nil {
			result.Errors++
			slog.Error("backfill: failed to delete orphan", "item_id", orphan.ID, "error", err)
			continue
		}
		result.Deleted++
	}

	return result, nil
}

// RetryFailedSyncs replays up to batchSize failed or pending sync rows by
// pushing the current central snapshot to the target app. Provisioning is
// idempotent, so replaying an already-converged row just re-confirms it.
func (s *ReconcileService) RetryFailedSyncs(ctx context.Context, batchSize int) (retried, recovered int) {
	var rows []models.AppSyncStatus
	err := s.db.Where("sync_status IN ?", []string{models.SyncStatusFailed, models.SyncStatusPending}).
		Order("updated_at ASC").Limit(batchSize).Find(&rows).Error
	if err != nil {
		slog.Error("sync retry: failed to load rows", "error", err)
		return 0, 0
	}

	for _, row := range rows {
		retried++

		var user models.CentralUser
		if err := s.db.First(&user, "id = ?", row.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// User is gone; nothing to converge.
				s.db.Delete(&models.AppSyncStatus{}, "id = ?", row.ID)
			}
			continue
		}

		entitled := false
		for _, app := range user.EntitledApps {
			if app == row.AppID {
				entitled = true
				break
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		err := s.client.Provision(callCtx, row.AppID, appclient.ProvisionPush{
			UserID:               user.ID.String(),
			Email:                user.Email,
			PasswordHash:         user.PasswordHash,
			Name:                 user.Name,
			CentralStatus:        user.SubscriptionStatus,
			Entitled:             entitled,
			StripeCustomerID:     user.StripeCustomerID,
			StripeSubscriptionID: user.StripeSubscriptionID,
		})
		cancel()

		if err != nil {
			s.provision.RecordSyncStatus(user.ID, row.AppID, models.SyncStatusFailed, err.Error())
			continue
		}
		s.provision.RecordSyncStatus(user.ID, row.AppID, models.SyncStatusSynced, "")
		recovered++
	}
	return retried, recovered
}

// StartRetryWorker replays failed syncs on an interval until done closes.
func (s *ReconcileService) StartRetryWorker(interval time.Duration, done chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				retried, recovered := s.RetryFailedSyncs(context.Background(), 50)
				if retried > 0 {
					slog.Info("sync retry pass completed", "retried", retried, "recovered", recovered)
				}
			case <-done:
				return
			}
		}
	}()
}
