package entitlement

import (
	"testing"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
)

var allApps = []string{"pageturn", "reelroom", "songpress"}

func TestResolveSubscribed(t *testing.T) {
	now := time.Now()
	for _, status := range []string{models.StatusActive, models.StatusLifetime} {
		u := &models.CentralUser{SubscriptionStatus: status, EntitledApps: []string{"songpress"}}
		access := Resolve(u, now, allApps)
		if !access.HasAccess || !access.IsSubscribed {
			t.Fatalf("expected status %q to grant subscribed access", status)
		}
		if access.Reason != "subscribed" {
			t.Fatalf("expected reason subscribed, got %q", access.Reason)
		}
	}
}

func TestResolveTrial(t *testing.T) {
	now := time.Now()
	u := &models.CentralUser{
		SubscriptionStatus: models.StatusTrial,
		TrialExpiresAt:     now.Add(36 * time.Hour),
	}

	access := Resolve(u, now, allApps)
	if !access.HasAccess {
		t.Fatal("expected valid trial to grant access")
	}
	if access.IsSubscribed {
		t.Fatal("trial must not count as subscribed")
	}
	if access.Reason != "trial" {
		t.Fatalf("expected reason trial, got %q", access.Reason)
	}
	if access.TrialDaysRemaining != 2 {
		t.Fatalf("expected 2 days remaining (ceil of 1.5), got %d", access.TrialDaysRemaining)
	}
}

func TestResolveExpiredTrial(t *testing.T) {
	now := time.Now()
	u := &models.CentralUser{
		SubscriptionStatus: models.StatusTrial,
		TrialExpiresAt:     now.Add(-time.Hour),
	}

	access := Resolve(u, now, allApps)
	if access.HasAccess {
		t.Fatal("expected expired trial to deny access")
	}
	if access.Reason != "trial_expired" {
		t.Fatalf("expected reason trial_expired, got %q", access.Reason)
	}
	if access.TrialDaysRemaining != 0 {
		t.Fatalf("expected 0 days remaining, got %d", access.TrialDaysRemaining)
	}
}

func TestResolveInactiveStatuses(t *testing.T) {
	now := time.Now()
	for _, status := range []string{models.StatusCanceled, models.StatusPastDue, models.StatusIncomplete, models.StatusExpired} {
		u := &models.CentralUser{SubscriptionStatus: status}
		access := Resolve(u, now, allApps)
		if access.HasAccess {
			t.Fatalf("expected status %q to deny access", status)
		}
		if access.Reason != "inactive" {
			t.Fatalf("expected reason inactive for %q, got %q", status, access.Reason)
		}
	}
}

func TestResolveGrandfathered(t *testing.T) {
	now := time.Now()
	migrated := now.Add(-24 * time.Hour)
	rate := 499
	u := &models.CentralUser{
		SubscriptionStatus:      models.StatusCanceled,
		EntitledApps:            []string{"songpress"},
		GrandfatheredPriceCents: &rate,
		GrandfatherOriginApp:    "songpress",
		GrandfatheredAt:         &migrated,
	}

	access := Resolve(u, now, allApps)
	if !access.HasAccess {
		t.Fatal("grandfathered users keep access regardless of nominal status")
	}
	if len(access.EntitledApps) != len(allApps) {
		t.Fatalf("grandfathered users get the full roster, got %v", access.EntitledApps)
	}
	if access.Reason != "grandfathered" {
		t.Fatalf("expected reason grandfathered, got %q", access.Reason)
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		in    string
		want  string
		known bool
	}{
		{in: models.StatusActive, want: models.AppStatusActive, known: true},
		{in: models.StatusLifetime, want: models.AppStatusActive, known: true},
		{in: models.StatusTrial, want: models.AppStatusTrial, known: true},
		{in: models.StatusCanceled, want: models.AppStatusInactive, known: true},
		{in: models.StatusPastDue, want: models.AppStatusInactive, known: true},
		{in: models.StatusIncomplete, want: models.AppStatusInactive, known: true},
		{in: models.StatusExpired, want: models.AppStatusInactive, known: true},
		{in: "premium_plus", want: models.AppStatusInactive, known: false},
		{in: "", want: models.AppStatusInactive, known: false},
	}

	for _, tt := range tests {
		got, known := MapStatus(tt.in)
		if got != tt.want || known != tt.known {
			t.Fatalf("MapStatus(%q) = (%q, %v), want (%q, %v)", tt.in, got, known, tt.want, tt.known)
		}
	}
}

func TestTrialDaysRemainingCeil(t *testing.T) {
	now := time.Now()
	if got := trialDaysRemaining(now.Add(1*time.Minute), now); got != 1 {
		t.Fatalf("one minute left should round up to 1 day, got %d", got)
	}
	if got := trialDaysRemaining(now.Add(48*time.Hour), now); got != 2 {
		t.Fatalf("exactly 48h should be 2 days, got %d", got)
	}
	if got := trialDaysRemaining(now.Add(-time.Minute), now); got != 0 {
		t.Fatalf("past expiry should floor at 0, got %d", got)
	}
}
