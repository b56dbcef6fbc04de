package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"gorm.io/gorm"
)

var ErrCouponNotFound = errors.New("coupon not found")

// CouponService redeems promotional codes against the shared usage ledger.
// The usage counter is advanced with a single conditional UPDATE so two
// concurrent redemptions of a limit-1 code can never both succeed.
type CouponService struct {
	db       *gorm.DB
	registry *tenant.Registry
}

func NewCouponService(db *gorm.DB, registry *tenant.Registry) *CouponService {
	return &CouponService{db: db, registry: registry}
}

type RedeemResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Redeem applies a code to a user. Each user may redeem at most one coupon,
// ever; that guard and the usage ceiling both ride conditional updates
// inside one transaction, so a failed step rolls the counter back.
func (s *CouponService) Redeem(email, code string) (RedeemResult, error) {
	user, err := s.loadUser(email)
	if err != nil {
		return RedeemResult{}, err
	}

	if user.RedeemedCoupon != "" {
		return RedeemResult{Message: "a coupon has already been redeemed on this account"}, nil
	}
	if user.SubscriptionStatus == models.StatusActive || user.SubscriptionStatus == models.StatusLifetime {
		return RedeemResult{Message: "subscription is already active"}, nil
	}

	code = models.NormalizeCouponCode(code)
	var coupon models.CouponCode
	if err := s.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RedeemResult{Message: "invalid coupon code"}, nil
		}
		return RedeemResult{}, err
	}

	if !coupon.Active {
		return RedeemResult{Message: "this coupon is no longer active"}, nil
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return RedeemResult{Message: "this coupon has expired"}, nil
	}

	var message string
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Increment-if-below-limit. RowsAffected == 0 means the ceiling was
		// hit by a concurrent redemption.
		inc := tx.Model(&models.CouponCode{}).
			Where("code = ? AND active = ?", code, true).
			Where("usage_limit IS NULL OR usage_count < usage_limit").
			UpdateColumn("usage_count", gorm.Expr("usage_count + 1"))
		if inc.Error != nil {
			return inc.Error
		}
		if inc.RowsAffected == 0 {
			return errLimitReached
		}

		patch, fields, msg, err := s.couponEffect(&coupon, user)
		if err != nil {
			return err
		}
		message = msg
		patch.RedeemedCoupon = code
		fields = append(fields, "redeemed_coupon")

		// Write-once guard: loses against a concurrent redemption on the
		// same account and rolls the counter back with it.
		res := tx.Model(&models.CentralUser{}).
			Where("id = ? AND (redeemed_coupon IS NULL OR redeemed_coupon = '')", user.ID).
			Select(fields).
			Updates(patch)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errAlreadyRedeemed
		}
		return nil
	})

	switch {
	case errors.Is(err, errLimitReached):
		return RedeemResult{Message: "this coupon has reached its usage limit"}, nil
	case errors.Is(err, errAlreadyRedeemed):
		return RedeemResult{Message: "a coupon has already been redeemed on this account"}, nil
	case err != nil:
		return RedeemResult{}, err
	}

	return RedeemResult{Success: true, Message: message}, nil
}

var (
	errLimitReached    = errors.New("coupon usage limit reached")
	errAlreadyRedeemed = errors.New("coupon already redeemed on account")
)

// couponEffect builds the user patch for one coupon type. Lifetime codes
// grant the lifetime status outright; trial extensions push the trial window
// out and restore trial status if it had lapsed.
func (s *CouponService) couponEffect(coupon *models.CouponCode, user *models.CentralUser) (models.CentralUser, []string, string, error) {
	switch coupon.Type {
	case models.CouponTypeLifetime:
		apps := coupon.GrantedApps
		if len(apps) == 0 {
			apps = s.registry.AppIDs()
		}
		patch := models.CentralUser{
			SubscriptionStatus: models.StatusLifetime,
			EntitledApps:       mergeApps(user.EntitledApps, apps),
		}
		return patch, []string{"subscription_status", "entitled_apps"}, "lifetime access unlocked", nil

	case models.CouponTypeTrialExtension:
		base := user.TrialExpiresAt
		if base.Before(time.Now()) {
			base = time.Now()
		}
		days := coupon.ExtensionDays
		if days <= 0 {
			days = 30
		}
		patch := models.CentralUser{
			SubscriptionStatus: models.StatusTrial,
			TrialExpiresAt:     base.AddDate(0, 0, days),
		}
		return patch, []string{"subscription_status", "trial_expires_at"}, fmt.Sprintf("trial extended by %d days", days), nil

	default:
		return models.CentralUser{}, nil, "", fmt.Errorf("unknown coupon type %q", coupon.Type)
	}
}

type ValidateResult struct {
	Valid       bool   `json:"valid"`
	Type        string `json:"type,omitempty"`
	Description string `json:"description,omitempty"`
}

// Validate performs the redemption checks read-only, for UI pre-checks.
func (s *CouponService) Validate(code string) (ValidateResult, error) {
	code = models.NormalizeCouponCode(code)

	var coupon models.CouponCode
	if err := s.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ValidateResult{Valid: false}, nil
		}
		return ValidateResult{}, err
	}

	if !coupon.Active {
		return ValidateResult{Valid: false}, nil
	}
	if coupon.ExpiresAt != nil && time.Now().After(*coupon.ExpiresAt) {
		return ValidateResult{Valid: false}, nil
	}
	if coupon.UsageLimit != nil && coupon.UsageCount >= *coupon.UsageLimit {
		return ValidateResult{Valid: false}, nil
	}

	return ValidateResult{Valid: true, Type: coupon.Type, Description: coupon.Description}, nil
}

func (s *CouponService) loadUser(email string) (*models.CentralUser, error) {
	var user models.CentralUser
	err := s.db.Where("email = ?", models.NormalizeEmail(email)).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func mergeApps(existing, granted []string) []string {
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(granted))
	for _, app := range existing {
		if !seen[app] {
			seen[app] = true
			merged = append(merged, app)
		}
	}
	for _, app := range granted {
		if !seen[app] {
			seen[app] = true
			merged = append(merged, app)
		}
	}
	return merged
}
