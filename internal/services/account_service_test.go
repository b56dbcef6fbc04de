package services

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestCreateAccount(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, newTestRegistry("songpress", "reelroom", "pageturn"), 7)

	before := time.Now()
	user, err := svc.CreateAccount(CreateAccountInput{
		Email:        "  A@X.com ",
		Password:     "Abcd1234!",
		Name:         "Ada",
		SelectedApps: []string{"songpress"},
	})
	require.NoError(t, err)

	assert.Equal(t, "a@x.com", user.Email)
	assert.Equal(t, models.StatusTrial, user.SubscriptionStatus)
	assert.Equal(t, []string{"songpress"}, user.EntitledApps)
	assert.NotEqual(t, "Abcd1234!", user.PasswordHash)
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Abcd1234!")))

	wantExpiry := before.AddDate(0, 0, 7)
	assert.WithinDuration(t, wantExpiry, user.TrialExpiresAt, time.Minute)
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, newTestRegistry("songpress"), 7)

	_, err := svc.CreateAccount(CreateAccountInput{Email: "a@x.com", Password: "Abcd1234!"})
	require.NoError(t, err)

	// Same email, different casing: still one CentralUser.
	_, err = svc.CreateAccount(CreateAccountInput{Email: "A@X.COM", Password: "Wxyz5678!"})
	require.ErrorIs(t, err, ErrEmailTaken)

	var count int64
	require.NoError(t, db.Model(&models.CentralUser{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestCreateAccountValidation(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, newTestRegistry("songpress"), 7)

	_, err := svc.CreateAccount(CreateAccountInput{Email: "not-an-email", Password: "Abcd1234!"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = svc.CreateAccount(CreateAccountInput{Email: "a@x.com", Password: "short1"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.CreateAccount(CreateAccountInput{Email: "a@x.com", Password: "allletters"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = svc.CreateAccount(CreateAccountInput{Email: "a@x.com", Password: "Abcd1234!", SelectedApps: []string{"nope"}})
	assert.ErrorIs(t, err, ErrUnknownApp)

	var count int64
	require.NoError(t, db.Model(&models.CentralUser{}).Count(&count).Error)
	assert.Equal(t, int64(0), count, "validation failures must not write")
}

func TestUpdatePasswordHash(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccountService(db, newTestRegistry("songpress"), 7)

	_, err := svc.CreateAccount(CreateAccountInput{Email: "a@x.com", Password: "Abcd1234!"})
	require.NoError(t, err)

	require.NoError(t, svc.UpdatePasswordHash("A@x.com", "new-opaque-hash"))

	user, err := svc.GetByEmail("a@x.com")
	require.NoError(t, err)
	assert.Equal(t, "new-opaque-hash", user.PasswordHash)

	assert.ErrorIs(t, svc.UpdatePasswordHash("missing@x.com", "h"), ErrUserNotFound)
}
