package middleware

import (
	"strconv"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/ratelimit"
	"github.com/gofiber/fiber/v2"
)

// RateLimit admits requests through the sliding-window limiter for the given
// endpoint class. Denials carry a retry_after_seconds hint.
func RateLimit(limiter *ratelimit.Limiter, class string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		decision := limiter.Allow(c.Context(), class, c.IP())
		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter.Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Set("Retry-After", strconv.Itoa(retryAfter))
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":               true,
				"message":             "Too many requests",
				"retry_after_seconds": retryAfter,
			})
		}
		return c.Next()
	}
}
