package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const ProviderPassword = "password"

// ProvisionService is the gateway that pushes credentials and resolved
// entitlement into one app's store. All writes are create-or-update by
// normalized email and safe to retry: re-running with identical arguments
// re-confirms the same end state.
type ProvisionService struct {
	db *gorm.DB
}

func NewProvisionService(db *gorm.DB) *ProvisionService {
	return &ProvisionService{db: db}
}

type ProvisionInput struct {
	UserID               uuid.UUID
	Email                string
	PasswordHash         string
	Name                 string
	CentralStatus        string
	Entitled             bool
	StripeCustomerID     string
	StripeSubscriptionID string
}

type ProvisionResult struct {
	Created            bool `json:"provisioned"`
	Updated            bool `json:"updated"`
	AuthAccountCreated bool `json:"auth_account_created"`
	AuthAccountUpdated bool `json:"auth_account_updated"`
}

// Provision upserts the AppAccount and its credential record inside a single
// transaction against the app's store. Merge semantics: a provided value
// wins, an empty value keeps what is already there, so a partial push never
// blanks a field.
func (s *ProvisionService) Provision(appID string, in ProvisionInput) (ProvisionResult, error) {
	var result ProvisionResult
	email := models.NormalizeEmail(in.Email)

	status := models.AppStatusInactive
	if in.Entitled {
		mapped, known := entitlement.MapStatus(in.CentralStatus)
		if !known {
			slog.Warn("unrecognized central status, provisioning as inactive",
				"app_id", appID, "status", in.CentralStatus)
		}
		status = mapped
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.AppAccount
		err := tx.Scopes(tenant.ForApp(appID)).Where("email = ?", email).First(&account).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			account = models.AppAccount{
				AppID:        appID,
				Email:        email,
				PasswordHash: in.PasswordHash,
				Name:         in.Name,
				Status:       status,
				Entitled:     in.Entitled,
			}
			if err := tx.Create(&account).Error; err != nil {
				return fmt.Errorf("failed to create app account: %w", err)
			}
			result.Created = true
		case err != nil:
			return err
		default:
			updates := map[string]interface{}{}
			if in.PasswordHash != "" && in.PasswordHash != account.PasswordHash {
				updates["password_hash"] = in.PasswordHash
			}
			if in.Name != "" && in.Name != account.Name {
				updates["name"] = in.Name
			}
			if status != account.Status {
				updates["status"] = status
			}
			if in.Entitled != account.Entitled {
				updates["entitled"] = in.Entitled
			}
			if len(updates) > 0 {
				if err := tx.Model(&account).Updates(updates).Error; err != nil {
					return fmt.Errorf("failed to update app account: %w", err)
				}
				result.Updated = true
			}
		}

		credCreated, credUpdated, err := s.upsertCredential(tx, appID, account.ID, email, in.PasswordHash)
		if err != nil {
			return err
		}
		result.AuthAccountCreated = credCreated
		result.AuthAccountUpdated = credUpdated
		return nil
	})
	if err != nil {
		return ProvisionResult{}, err
	}
	return result, nil
}

// UpdateCredential is the credential-only path used by password sync. It
// never creates an app account; a missing credential for an existing account
// is created, an identical hash is a no-op.
func (s *ProvisionService) UpdateCredential(appID, email, passwordHash string) (bool, bool, error) {
	email = models.NormalizeEmail(email)

	var account models.AppAccount
	if err := s.db.Scopes(tenant.ForApp(appID)).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, false, ErrUserNotFound
		}
		return false, false, err
	}

	var created, updated bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var errTx error
		created, updated, errTx = s.upsertCredential(tx, appID, account.ID, email, passwordHash)
		if errTx != nil {
			return errTx
		}
		if passwordHash != "" && passwordHash != account.PasswordHash {
			return tx.Model(&account).Update("password_hash", passwordHash).Error
		}
		return nil
	})
	return created, updated, err
}

func (s *ProvisionService) upsertCredential(tx *gorm.DB, appID string, accountID uuid.UUID, email, passwordHash string) (created, updated bool, err error) {
	if passwordHash == "" {
		return false, false, nil
	}

	var cred models.AuthCredential
	err = tx.Scopes(tenant.ForApp(appID)).
		Where("provider = ? AND account_id = ?", ProviderPassword, email).
		First(&cred).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cred = models.AuthCredential{
			AppID:        appID,
			Provider:     ProviderPassword,
			AccountID:    email,
			AppAccountID: accountID,
			PasswordHash: passwordHash,
		}
		if err := tx.Create(&cred).Error; err != nil {
			return false, false, fmt.Errorf("failed to create credential: %w", err)
		}
		return true, false, nil
	case err != nil:
		return false, false, err
	case cred.PasswordHash != passwordHash:
		if err := tx.Model(&cred).Update("password_hash", passwordHash).Error; err != nil {
			return false, false, fmt.Errorf("failed to update credential: %w", err)
		}
		return false, true, nil
	default:
		return false, false, nil
	}
}

// RecordSyncStatus overwrites the (user, app) bookkeeping row after a sync
// attempt. Failed rows are picked up by the reconciliation worker.
func (s *ProvisionService) RecordSyncStatus(userID uuid.UUID, appID, status, lastError string) {
	if userID == uuid.Nil {
		return
	}
	row := models.AppSyncStatus{
		UserID:       userID,
		AppID:        appID,
		SyncStatus:   status,
		LastSyncedAt: time.Now(),
		LastError:    lastError,
	}
	err := s.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "app_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sync_status", "last_synced_at", "last_error", "updated_at",
		}),
	}).Create(&row).Error
	if err != nil {
		slog.Error("failed to record sync status", "user_id", userID, "app_id", appID, "error", err)
	}
}
