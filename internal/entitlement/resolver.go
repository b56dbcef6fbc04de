// Package entitlement is the single place access decisions are made. It is
// pure: callers hand it a central account snapshot and a clock reading and
// get back a decision, with no store access and no side effects.
package entitlement

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
)

// Access is the resolved entitlement for one user at one instant.
type Access struct {
	HasAccess          bool       `json:"has_access"`
	IsSubscribed       bool       `json:"is_subscribed"`
	Status             string     `json:"subscription_status"`
	Reason             string     `json:"reason"`
	TrialDaysRemaining int        `json:"trial_days_remaining"`
	EntitledApps       []string   `json:"entitled_apps"`
	TrialExpiresAt     *time.Time `json:"trial_expires_at,omitempty"`
}

// Resolve turns a central account snapshot into an access decision.
// allApps is the full family roster, used for grandfathered users who keep
// every app at their locked rate regardless of the nominal plan.
func Resolve(u *models.CentralUser, now time.Time, allApps []string) Access {
	access := Access{
		Status:       u.SubscriptionStatus,
		EntitledApps: u.EntitledApps,
	}

	if u.IsGrandfathered() {
		access.HasAccess = true
		access.IsSubscribed = true
		access.Reason = "grandfathered"
		access.EntitledApps = allApps
		return access
	}

	switch u.SubscriptionStatus {
	case models.StatusActive, models.StatusLifetime:
		access.IsSubscribed = true
	}

	trialValid := u.SubscriptionStatus == models.StatusTrial && now.Before(u.TrialExpiresAt)
	access.HasAccess = access.IsSubscribed || trialValid

	if u.SubscriptionStatus == models.StatusTrial {
		exp := u.TrialExpiresAt
		access.TrialExpiresAt = &exp
		access.TrialDaysRemaining = trialDaysRemaining(u.TrialExpiresAt, now)
	}

	switch {
	case access.IsSubscribed:
		access.Reason = "subscribed"
	case trialValid:
		access.Reason = "trial"
	case u.SubscriptionStatus == models.StatusTrial:
		access.Reason = "trial_expired"
	default:
		access.Reason = "inactive"
	}

	return access
}

// trialDaysRemaining is ceil((expiry-now)/day), floored at zero.
func trialDaysRemaining(expiry, now time.Time) int {
	remaining := expiry.Sub(now)
	if remaining <= 0 {
		return 0
	}
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// MapStatus converts a central subscription status into the app-local
// vocabulary. Unknown statuses map to inactive: a value the gateway does not
// recognize must never grant access.
func MapStatus(central string) (string, bool) {
	switch central {
	case models.StatusActive, models.StatusLifetime:
		return models.AppStatusActive, true
	case models.StatusTrial:
		return models.AppStatusTrial, true
	case models.StatusCanceled, models.StatusPastDue, models.StatusIncomplete, models.StatusExpired:
		return models.AppStatusInactive, true
	default:
		return models.AppStatusInactive, false
	}
}
