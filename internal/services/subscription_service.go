package services

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SubscriptionService consumes billing facts delivered by the payment
// processor's webhooks and patches the central store. It never talks to the
// processor itself. Every accepted event is appended to the subscription
// event log; the unique event id makes redelivery a no-op.
type SubscriptionService struct {
	db        *gorm.DB
	provision *ProvisionService
}

func NewSubscriptionService(db *gorm.DB, provision *ProvisionService) *SubscriptionService {
	return &SubscriptionService{db: db, provision: provision}
}

func (s *SubscriptionService) HandleStripeEvent(event *dto.StripeEvent) error {
	if event.ID != "" {
		var existing models.SubscriptionEvent
		err := s.db.Where("stripe_event_id = ?", event.ID).First(&existing).Error
		if err == nil {
			slog.Info("duplicate stripe event ignored", "event_id", event.ID)
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
	}

	user, err := s.findUser(event)
	if err != nil {
		return err
	}

	switch event.Type {
	case "checkout.session.completed":
		err = s.applyStatus(user, models.StatusActive, event)
	case "customer.subscription.updated":
		err = s.applyStatus(user, mapStripeStatus(event.SubscriptionStatus), event)
	case "customer.subscription.deleted":
		err = s.applyStatus(user, models.StatusCanceled, event)
	case "invoice.payment_failed":
		err = s.applyStatus(user, models.StatusPastDue, event)
	default:
		slog.Info("unhandled stripe event type", "type", event.Type)
		return nil
	}
	if err != nil {
		return err
	}

	s.logEvent(user, event)

	// Mark entitled apps pending so the reconciliation worker re-provisions
	// them with the new status. The webhook response does not wait on that.
	if user != nil {
		for _, app := range user.EntitledApps {
			s.provision.RecordSyncStatus(user.ID, app, models.SyncStatusPending, "")
		}
	}
	return nil
}

func (s *SubscriptionService) findUser(event *dto.StripeEvent) (*models.CentralUser, error) {
	var user models.CentralUser
	q := s.db
	switch {
	case event.CustomerID != "":
		q = q.Where("stripe_customer_id = ? OR email = ?", event.CustomerID, models.NormalizeEmail(event.CustomerEmail))
	case event.CustomerEmail != "":
		q = q.Where("email = ?", models.NormalizeEmail(event.CustomerEmail))
	default:
		return nil, errors.New("stripe event carries no customer reference")
	}
	if err := q.First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: stripe customer %s", ErrUserNotFound, event.CustomerID)
		}
		return nil, err
	}
	return &user, nil
}

func (s *SubscriptionService) applyStatus(user *models.CentralUser, status string, event *dto.StripeEvent) error {
	updates := map[string]interface{}{
		"subscription_status": status,
	}
	if event.CustomerID != "" {
		updates["stripe_customer_id"] = event.CustomerID
	}
	if event.SubscriptionID != "" {
		updates["stripe_subscription_id"] = event.SubscriptionID
	}
	if event.BillingInterval != "" {
		updates["billing_interval"] = event.BillingInterval
	}
	return s.db.Model(user).Updates(updates).Error
}

func (s *SubscriptionService) logEvent(user *models.CentralUser, event *dto.StripeEvent) {
	row := models.SubscriptionEvent{
		Email:         event.CustomerEmail,
		EventType:     event.Type,
		StripeEventID: event.ID,
	}
	if user != nil {
		row.UserID = &user.ID
		row.Email = user.Email
	}
	if len(event.Raw) > 0 {
		row.Payload = datatypes.JSON(event.Raw)
	}
	if err := s.db.Create(&row).Error; err != nil {
		slog.Error("failed to log subscription event", "event_id", event.ID, "error", err)
	}
}

// mapStripeStatus translates Stripe's subscription status vocabulary into
// the central one.
func mapStripeStatus(stripeStatus string) string {
	switch stripeStatus {
	case "active":
		return models.StatusActive
	case "trialing":
		return models.StatusTrial
	case "canceled":
		return models.StatusCanceled
	case "past_due":
		return models.StatusPastDue
	case "incomplete":
		return models.StatusIncomplete
	case "incomplete_expired", "unpaid":
		return models.StatusExpired
	default:
		return models.StatusCanceled
	}
}
