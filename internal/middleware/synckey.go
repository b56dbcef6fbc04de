package middleware

import (
	"crypto/subtle"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/gofiber/fiber/v2"
)

// SyncKeyRequired guards admin/internal sync endpoints with the shared
// secret. The key is accepted as a ?key= query parameter or an X-Sync-Key
// header; siblings in the family use the header, older callers the query.
func SyncKeyRequired(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if cfg.SyncKey == "" {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Error: true, Message: "Sync key not configured",
			})
		}

		provided := c.Get("X-Sync-Key")
		if provided == "" {
			provided = c.Query("key")
		}

		if subtle.ConstantTimeCompare([]byte(provided), []byte(cfg.SyncKey)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Error: true, Message: "Unauthorized",
			})
		}
		return c.Next()
	}
}
