package routes

import (
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// Rate limit class names. Budgets live in main where the limiter is built.
const (
	ClassDefault = "default"
	ClassSignup  = "signup"
	ClassSync    = "sync"
	ClassCoupon  = "coupon"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	limiter *ratelimit.Limiter,
	accountHandler *handlers.AccountHandler,
	provisionHandler *handlers.ProvisionHandler,
	passwordHandler *handlers.PasswordHandler,
	couponHandler *handlers.CouponHandler,
	entitlementHandler *handlers.EntitlementHandler,
	webhookHandler *handlers.WebhookHandler,
	auditHandler *handlers.AuditHandler,
	reconcileHandler *handlers.ReconcileHandler,
	healthHandler *handlers.HealthHandler,
) {
	api := app.Group("/api")
	api.Use(middleware.RateLimit(limiter, ClassDefault))

	// Health (no tenant, no auth)
	api.Get("/health", healthHandler.Check)

	// Admin / internal sync surface, shared-secret protected
	admin := api.Group("/admin", middleware.SyncKeyRequired(cfg))
	admin.Post("/createCentralUser", middleware.RateLimit(limiter, ClassSignup), accountHandler.CreateCentralUser)
	admin.Post("/provisionUser", provisionHandler.ProvisionUser)
	admin.Post("/updatePassword", passwordHandler.UpdatePassword)
	admin.Post("/updateCentralPassword", passwordHandler.UpdateCentralPassword)
	admin.Post("/sync-password", middleware.RateLimit(limiter, ClassSync), passwordHandler.SyncPassword)
	admin.Post("/reconcile/library-items", reconcileHandler.BackfillLibraryItems)
	admin.Get("/audit", auditHandler.List)

	// Entitlement check: apps call this at their login gate with the user's
	// JWT; internal tools pass email + sync key instead.
	api.Get("/entitlement", middleware.JWTProtected(cfg), entitlementHandler.Check)
	admin.Get("/entitlement", entitlementHandler.Check)

	// Coupons (user-facing, JWT)
	coupons := api.Group("/coupons", middleware.RateLimit(limiter, ClassCoupon))
	coupons.Post("/redeem", middleware.JWTProtected(cfg), couponHandler.Redeem)
	coupons.Post("/validate", couponHandler.Validate)

	// Webhooks — shared-secret auth, no JWT
	api.Post("/webhooks/stripe", webhookHandler.HandleStripe)
}
