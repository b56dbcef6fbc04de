package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/models"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ProvisionHandler struct {
	provision *services.ProvisionService
	accounts  *services.AccountService
	audit     *services.AuditService
}

func NewProvisionHandler(provision *services.ProvisionService, accounts *services.AccountService, audit *services.AuditService) *ProvisionHandler {
	return &ProvisionHandler{provision: provision, accounts: accounts, audit: audit}
}

// ProvisionUser is the internal per-app push: create-or-update the app's
// mirror of one central user. Safe to retry.
func (h *ProvisionHandler) ProvisionUser(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)

	var req dto.ProvisionUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Email == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "email is required",
		})
	}

	userID, _ := uuid.Parse(req.UserID)

	result, err := h.provision.Provision(appID, services.ProvisionInput{
		UserID:               userID,
		Email:                req.Email,
		PasswordHash:         req.PasswordHash,
		Name:                 req.Name,
		CentralStatus:        req.CentralStatus,
		Entitled:             req.Entitled,
		StripeCustomerID:     req.StripeCustomerID,
		StripeSubscriptionID: req.StripeSubscriptionID,
	})
	if err != nil {
		h.provision.RecordSyncStatus(userID, appID, models.SyncStatusFailed, err.Error())
		slog.Error("provisioning failed", "app_id", appID, "email", req.Email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Provisioning failed",
		})
	}

	h.provision.RecordSyncStatus(userID, appID, models.SyncStatusSynced, "")
	if result.Created {
		if err := h.accounts.MarkOnboarded(req.Email, appID); err != nil {
			slog.Warn("failed to mark onboarding", "email", req.Email, "app_id", appID, "error", err)
		}
	}

	h.audit.Record(services.AuditEntry{
		Actor:  appID,
		Action: "provision_user",
		Target: models.NormalizeEmail(req.Email),
		IP:     c.IP(),
		Details: map[string]interface{}{
			"provisioned": result.Created,
			"updated":     result.Updated,
		},
	})

	return c.JSON(dto.ProvisionUserResponse{
		Success:            true,
		UserID:             req.UserID,
		Provisioned:        result.Created,
		Updated:            result.Updated,
		AuthAccountCreated: result.AuthAccountCreated,
		AuthAccountUpdated: result.AuthAccountUpdated,
	})
}
