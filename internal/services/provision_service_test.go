package services

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProvisionCreatesAccountAndCredential(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)

	result, err := svc.Provision("songpress", ProvisionInput{
		UserID:        uuid.New(),
		Email:         "A@X.com",
		PasswordHash:  "hash-1",
		Name:          "Ada",
		CentralStatus: models.StatusTrial,
		Entitled:      true,
	})
	require.NoError(t, err)

	assert.True(t, result.Created)
	assert.False(t, result.Updated)
	assert.True(t, result.AuthAccountCreated)
	assert.False(t, result.AuthAccountUpdated)

	var account models.AppAccount
	require.NoError(t, db.Scopes(tenant.ForApp("songpress")).Where("email = ?", "a@x.com").First(&account).Error)
	assert.Equal(t, models.AppStatusTrial, account.Status)
	assert.True(t, account.Entitled)

	var cred models.AuthCredential
	require.NoError(t, db.Scopes(tenant.ForApp("songpress")).
		Where("provider = ? AND account_id = ?", ProviderPassword, "a@x.com").First(&cred).Error)
	assert.Equal(t, "hash-1", cred.PasswordHash)
	assert.Equal(t, account.ID, cred.AppAccountID)
}

func TestProvisionIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)

	in := ProvisionInput{
		UserID:        uuid.New(),
		Email:         "a@x.com",
		PasswordHash:  "hash-1",
		Name:          "Ada",
		CentralStatus: models.StatusActive,
		Entitled:      true,
	}

	first, err := svc.Provision("songpress", in)
	require.NoError(t, err)
	require.True(t, first.Created)

	second, err := svc.Provision("songpress", in)
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.False(t, second.Updated, "identical arguments must be a no-op")
	assert.False(t, second.AuthAccountCreated)
	assert.False(t, second.AuthAccountUpdated)

	var accounts int64
	require.NoError(t, db.Model(&models.AppAccount{}).Count(&accounts).Error)
	assert.Equal(t, int64(1), accounts)
}

func TestProvisionNotEntitledAlwaysInactive(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)

	for _, status := range []string{models.StatusTrial, models.StatusActive, models.StatusLifetime} {
		email := status + "@x.com"
		_, err := svc.Provision("reelroom", ProvisionInput{
			UserID:        uuid.New(),
			Email:         email,
			PasswordHash:  "h",
			CentralStatus: status,
			Entitled:      false,
		})
		require.NoError(t, err)

		var account models.AppAccount
		require.NoError(t, db.Scopes(tenant.ForApp("reelroom")).Where("email = ?", email).First(&account).Error)
		assert.Equal(t, models.AppStatusInactive, account.Status, "central status %s", status)
	}
}

func TestProvisionUnknownStatusFailsClosed(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)

	_, err := svc.Provision("songpress", ProvisionInput{
		UserID:        uuid.New(),
		Email:         "a@x.com",
		PasswordHash:  "h",
		CentralStatus: "platinum_forever",
		Entitled:      true,
	})
	require.NoError(t, err)

	var account models.AppAccount
	require.NoError(t, db.Scopes(tenant.ForApp("songpress")).Where("email = ?", "a@x.com").First(&account).Error)
	assert.Equal(t, models.AppStatusInactive, account.Status)
}

func TestProvisionMergeNeverBlanksFields(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)

	userID := uuid.New()
	_, err := svc.Provision("songpress", ProvisionInput{
		UserID:        userID,
		Email:         "a@x.com",
		PasswordHash:  "hash-1",
		Name:          "Ada",
		CentralStatus: models.StatusTrial,
		Entitled:      true,
	})
	require.NoError(t, err)

	// Second push omits name and hash; both survive.
	result, err := svc.Provision("songpress", ProvisionInput{
		UserID:        userID,
		Email:         "a@x.com",
		CentralStatus: models.StatusActive,
		Entitled:      true,
	})
	require.NoError(t, err)
	assert.True(t, result.Updated)

	var account models.AppAccount
	require.NoError(t, db.Scopes(tenant.ForApp("songpress")).Where("email = ?", "a@x.com").First(&account).Error)
	assert.Equal(t, "Ada", account.Name)
	assert.Equal(t, "hash-1", account.PasswordHash)
	assert.Equal(t, models.AppStatusActive, account.Status)
}

func TestUpdateCredentialOnlyWhenHashDiffers(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)

	_, err := svc.Provision("songpress", ProvisionInput{
		UserID:        uuid.New(),
		Email:         "a@x.com",
		PasswordHash:  "hash-1",
		CentralStatus: models.StatusTrial,
		Entitled:      true,
	})
	require.NoError(t, err)

	created, updated, err := svc.UpdateCredential("songpress", "a@x.com", "hash-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.False(t, updated, "identical hash is a no-op")

	created, updated, err = svc.UpdateCredential("songpress", "a@x.com", "hash-2")
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, updated)

	_, _, err = svc.UpdateCredential("songpress", "ghost@x.com", "hash-2")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestRecordSyncStatusOverwrites(t *testing.T) {
	db := newTestDB(t)
	svc := NewProvisionService(db)
	userID := uuid.New()

	svc.RecordSyncStatus(userID, "songpress", models.SyncStatusFailed, "timeout")
	svc.RecordSyncStatus(userID, "songpress", models.SyncStatusSynced, "")

	var rows []models.AppSyncStatus
	require.NoError(t, db.Where("user_id = ?", userID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, models.SyncStatusSynced, rows[0].SyncStatus)
	assert.Equal(t, "", rows[0].LastError)
}
