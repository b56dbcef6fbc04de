package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/appclient"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/google/uuid"
)

// PasswordSyncService fans a password change out from the app that
// originated it to the central store and every sibling app. There is no
// cross-store transaction: each target succeeds or fails on its own and the
// caller gets the per-app breakdown. Failed targets are left for the
// reconciliation worker, not retried here.
type PasswordSyncService struct {
	accounts  *AccountService
	provision *ProvisionService
	audit     *AuditService
	client    *appclient.Client
	registry  *tenant.Registry
	timeout   time.Duration
}

func NewPasswordSyncService(
	accounts *AccountService,
	provision *ProvisionService,
	audit *AuditService,
	client *appclient.Client,
	registry *tenant.Registry,
	timeout time.Duration,
) *PasswordSyncService {
	return &PasswordSyncService{
		accounts:  accounts,
		provision: provision,
		audit:     audit,
		client:    client,
		registry:  registry,
		timeout:   timeout,
	}
}

type AppSyncResult struct {
	App     string `json:"app"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type PasswordSyncResult struct {
	Email          string          `json:"email"`
	CentralUpdated bool            `json:"central_updated"`
	AppsUpdated    []AppSyncResult `json:"apps_updated"`
}

// SyncPassword propagates a new hash to the central store and concurrently
// to every app except sourceApp, each under an independent timeout. The
// overall call succeeds even when individual targets fail; callers must
// inspect AppsUpdated to know what converged.
func (s *PasswordSyncService) SyncPassword(ctx context.Context, email, newHash, sourceApp string) *PasswordSyncResult {
	email = models.NormalizeEmail(email)
	result := &PasswordSyncResult{Email: email}

	var userID uuid.UUID
	if user, err := s.accounts.GetByEmail(email); err == nil {
		userID = user.ID
	}

	if err := s.accounts.UpdatePasswordHash(email, newHash); err != nil {
		slog.Error("central password update failed", "email", email, "error", err)
	} else {
		result.CentralUpdated = true
	}

	var targets []string
	for _, app := range s.registry.AppIDs() {
		if app != sourceApp {
			targets = append(targets, app)
		}
	}

	result.AppsUpdated = make([]AppSyncResult, len(targets))
	var wg sync.WaitGroup
	for i, app := range targets {
		wg.Add(1)
		go func(i int, app string) {
			defer wg.Done()
			callCtx, cancel := context.WithTimeout(ctx, s.timeout)
			defer cancel()

			err := s.client.UpdatePassword(callCtx, app, email, newHash)
			if err != nil {
				result.AppsUpdated[i] = AppSyncResult{App: app, Success: false, Error: err.Error()}
				s.provision.RecordSyncStatus(userID, app, models.SyncStatusFailed, err.Error())
				return
			}
			result.AppsUpdated[i] = AppSyncResult{App: app, Success: true}
			s.provision.RecordSyncStatus(userID, app, models.SyncStatusSynced, "")
		}(i, app)
	}
	wg.Wait()

	details := map[string]interface{}{
		"source_app":      sourceApp,
		"central_updated": result.CentralUpdated,
	}
	for _, r := range result.AppsUpdated {
		details["app_"+r.App] = r.Success
	}
	s.audit.Record(AuditEntry{
		Actor:   sourceApp,
		Action:  "password_sync",
		Target:  email,
		Details: details,
	})

	return result
}
