package tenant

import "gorm.io/gorm"

// ForApp returns a GORM scope that filters by app_id. Every query against a
// per-app mirror table goes through this scope.
func ForApp(appID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("app_id = ?", appID)
	}
}
