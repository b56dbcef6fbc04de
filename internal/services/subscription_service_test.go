package services

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleCheckoutCompleted(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db, NewProvisionService(db))

	seedUser(t, db, "a@x.com", models.StatusTrial, time.Now().AddDate(0, 0, 7))

	err := svc.HandleStripeEvent(&dto.StripeEvent{
		ID:             "evt_1",
		Type:           "checkout.session.completed",
		CustomerEmail:  "A@X.com",
		CustomerID:     "cus_123",
		SubscriptionID: "sub_456",
	})
	require.NoError(t, err)

	var user models.CentralUser
	require.NoError(t, db.Where("email = ?", "a@x.com").First(&user).Error)
	assert.Equal(t, models.StatusActive, user.SubscriptionStatus)
	assert.Equal(t, "cus_123", user.StripeCustomerID)
	assert.Equal(t, "sub_456", user.StripeSubscriptionID)

	var events int64
	require.NoError(t, db.Model(&models.SubscriptionEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events)
}

func TestHandleStripeEventRedelivery(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db, NewProvisionService(db))

	seedUser(t, db, "a@x.com", models.StatusActive, time.Now())

	event := &dto.StripeEvent{
		ID:            "evt_dup",
		Type:          "invoice.payment_failed",
		CustomerEmail: "a@x.com",
	}
	require.NoError(t, svc.HandleStripeEvent(event))
	require.NoError(t, svc.HandleStripeEvent(event))

	var events int64
	require.NoError(t, db.Model(&models.SubscriptionEvent{}).Count(&events).Error)
	assert.Equal(t, int64(1), events, "redelivered event must not append again")
}

func TestHandleSubscriptionUpdatedMapsStatus(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db, NewProvisionService(db))

	tests := []struct {
		stripe string
		want   string
	}{
		{stripe: "active", want: models.StatusActive},
		{stripe: "trialing", want: models.StatusTrial},
		{stripe: "past_due", want: models.StatusPastDue},
		{stripe: "unpaid", want: models.StatusExpired},
		{stripe: "something_new", want: models.StatusCanceled},
	}
	for i, tt := range tests {
		email := tt.stripe + "@x.com"
		seedUser(t, db, email, models.StatusActive, time.Now())

		err := svc.HandleStripeEvent(&dto.StripeEvent{
			ID:                 "evt_" + tt.stripe,
			Type:               "customer.subscription.updated",
			CustomerEmail:      email,
			SubscriptionStatus: tt.stripe,
		})
		require.NoError(t, err, "case %d", i)

		var user models.CentralUser
		require.NoError(t, db.Where("email = ?", email).First(&user).Error)
		assert.Equal(t, tt.want, user.SubscriptionStatus, "stripe status %q", tt.stripe)
	}
}

func TestHandleStripeEventMarksAppsPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db, NewProvisionService(db))

	user := seedUser(t, db, "a@x.com", models.StatusActive, time.Now())
	require.NoError(t, db.Model(&models.CentralUser{}).Where("id = ?", user.ID).
		Select("entitled_apps").
		Updates(models.CentralUser{EntitledApps: []string{"songpress", "reelroom"}}).Error)

	err := svc.HandleStripeEvent(&dto.StripeEvent{
		ID:            "evt_cancel",
		Type:          "customer.subscription.deleted",
		CustomerEmail: "a@x.com",
	})
	require.NoError(t, err)

	var rows []models.AppSyncStatus
	require.NoError(t, db.Where("user_id = ?", user.ID).Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, models.SyncStatusPending, row.SyncStatus)
	}
}

func TestHandleStripeEventUnknownUser(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db, NewProvisionService(db))

	err := svc.HandleStripeEvent(&dto.StripeEvent{
		ID:            "evt_ghost",
		Type:          "checkout.session.completed",
		CustomerEmail: "ghost@x.com",
	})
	assert.ErrorIs(t, err, ErrUserNotFound)

	err = svc.HandleStripeEvent(&dto.StripeEvent{ID: "evt_blank", Type: "checkout.session.completed"})
	assert.Error(t, err, "an event with no customer reference is rejected")
}

func TestHandleStripeEventUnhandledType(t *testing.T) {
	db := newTestDB(t)
	svc := NewSubscriptionService(db, NewProvisionService(db))

	seedUser(t, db, "a@x.com", models.StatusActive, time.Now())

	err := svc.HandleStripeEvent(&dto.StripeEvent{
		ID:            "evt_other",
		Type:          "customer.created",
		CustomerEmail: "a@x.com",
	})
	require.NoError(t, err)

	var events int64
	require.NoError(t, db.Model(&models.SubscriptionEvent{}).Count(&events).Error)
	assert.Equal(t, int64(0), events, "unhandled types are acknowledged without logging")
}
