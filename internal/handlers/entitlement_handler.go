package handlers

import (
	"errors"
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/entitlement"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type EntitlementHandler struct {
	accounts *services.AccountService
	registry *tenant.Registry
}

func NewEntitlementHandler(accounts *services.AccountService, registry *tenant.Registry) *EntitlementHandler {
	return &EntitlementHandler{accounts: accounts, registry: registry}
}

// Check resolves the caller's current access. Consumed at every app's login
// gate. The email comes from the JWT; internal callers may pass ?email= with
// the sync key instead.
func (h *EntitlementHandler) Check(c *fiber.Ctx) error {
	email, err := tenant.GetUserEmail(c)
	if err != nil {
		email = c.Query("email")
	}
	if email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "email is required",
		})
	}

	user, err := h.accounts.GetByEmail(email)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	access := entitlement.Resolve(user, time.Now(), h.registry.AppIDs())
	return c.JSON(access)
}
