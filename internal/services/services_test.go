package services

import (
	"testing"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// One connection keeps the in-memory database alive and serializes
	// concurrent writers.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.CentralUser{},
		&models.Profile{},
		&models.AppAccount{},
		&models.AuthCredential{},
		&models.AppSyncStatus{},
		&models.CouponCode{},
		&models.AuditLog{},
		&models.SubscriptionEvent{},
		&models.LibraryItem{},
	))
	return db
}

func newTestRegistry(appIDs ...string) *tenant.Registry {
	registry := tenant.NewRegistry()
	for _, id := range appIDs {
		registry.Register(&tenant.AppConfig{AppID: id, AppName: id})
	}
	return registry
}
