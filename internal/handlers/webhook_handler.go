package handlers

import (
	"crypto/subtle"
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/config"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	subscriptions *services.SubscriptionService
	cfg           *config.Config
}

func NewWebhookHandler(subscriptions *services.SubscriptionService, cfg *config.Config) *WebhookHandler {
	return &WebhookHandler{subscriptions: subscriptions, cfg: cfg}
}

// HandleStripe consumes billing facts. Checkout and portal sessions are
// created by a separate surface; only the resulting status changes land
// here, authenticated with the webhook shared secret.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	if h.cfg.StripeWebhookSecret == "" {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
			Error: true, Message: "Webhooks not configured",
		})
	}

	authHeader := c.Get("Authorization")
	if subtle.ConstantTimeCompare([]byte(authHeader), []byte(h.cfg.StripeWebhookSecret)) != 1 {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	var event dto.StripeEvent
	if err := c.BodyParser(&event); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid webhook payload",
		})
	}

	if err := h.subscriptions.HandleStripeEvent(&event); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			// Acknowledge so the processor stops retrying an event we can
			// never apply.
			slog.Warn("stripe event for unknown user", "event_id", event.ID, "customer", event.CustomerID)
			return c.JSON(fiber.Map{"received": true, "applied": false})
		}
		slog.Error("webhook processing failed", "event_id", event.ID, "event_type", event.Type, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to process webhook event",
		})
	}

	slog.Info("webhook processed", "event_id", event.ID, "event_type", event.Type)
	return c.JSON(fiber.Map{"received": true, "applied": true})
}
