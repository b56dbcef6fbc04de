package services

import (
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken   = errors.New("email already registered")
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password must be at least 8 characters and contain a letter and a digit")
	ErrUnknownApp   = errors.New("unknown app")
	ErrUserNotFound = errors.New("user not found")
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// AccountService owns the central account store. It is the only writer of
// CentralUser credentials and the single source of truth every app mirrors.
type AccountService struct {
	db        *gorm.DB
	registry  *tenant.Registry
	trialDays int
}

func NewAccountService(db *gorm.DB, registry *tenant.Registry, trialDays int) *AccountService {
	return &AccountService{db: db, registry: registry, trialDays: trialDays}
}

type CreateAccountInput struct {
	Email        string
	Password     string
	Name         string
	SelectedApps []string
}

// CreateAccount validates and inserts one CentralUser with a fresh trial.
// It has no side effects beyond the single write: provisioning the selected
// apps is a separate, caller-driven step.
func (s *AccountService) CreateAccount(in CreateAccountInput) (*models.CentralUser, error) {
	email := models.NormalizeEmail(in.Email)
	if !emailPattern.MatchString(email) {
		return nil, ErrInvalidEmail
	}
	if !passwordAcceptable(in.Password) {
		return nil, ErrWeakPassword
	}
	for _, app := range in.SelectedApps {
		if !s.registry.Exists(app) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownApp, app)
		}
	}

	var existing models.CentralUser
	if err := s.db.Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now()
	user := models.CentralUser{
		Email:              email,
		PasswordHash:       string(hash),
		Name:               in.Name,
		SubscriptionStatus: models.StatusTrial,
		TrialStartedAt:     now,
		TrialExpiresAt:     now.AddDate(0, 0, s.trialDays),
		EntitledApps:       in.SelectedApps,
		OnboardedApps:      map[string]bool{},
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create central user: %w", err)
	}

	return &user, nil
}

func (s *AccountService) GetByEmail(email string) (*models.CentralUser, error) {
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

// UpdatePasswordHash replaces the central credential. The hash is opaque
// here; it was produced by whichever app originated the change with the
// family-wide algorithm.
func (s *AccountService) UpdatePasswordHash(email, passwordHash string) error {
	result := s.db.Model(&models.CentralUser{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Update("password_hash", passwordHash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}

// MarkOnboarded flags one app as onboarded for the user. Best-effort
// bookkeeping written after a successful first provision.
func (s *AccountService) MarkOnboarded(email, appID string) error {
	user, err := s.GetByEmail(email)
	if err != nil {
		return err
	}
	if user.OnboardedApps == nil {
		user.OnboardedApps = map[string]bool{}
	}
	if user.OnboardedApps[appID] {
		return nil
	}
	user.OnboardedApps[appID] = true
	return s.db.Model(user).Select("onboarded_apps").
		Updates(models.CentralUser{OnboardedApps: user.OnboardedApps}).Error
}

func passwordAcceptable(password string) bool {
	if len(password) < 8 {
		return false
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLetter && hasDigit
}
