package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type PasswordHandler struct {
	accounts  *services.AccountService
	provision *services.ProvisionService
	sync      *services.PasswordSyncService
}

func NewPasswordHandler(accounts *services.AccountService, provision *services.ProvisionService, sync *services.PasswordSyncService) *PasswordHandler {
	return &PasswordHandler{accounts: accounts, provision: provision, sync: sync}
}

// UpdatePassword is the per-app credential path: replace the hash in this
// app's credential store. Called by the fan-out on sibling apps.
func (h *PasswordHandler) UpdatePassword(c *fiber.Ctx) error {
	appID := tenant.GetAppID(c)

	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.UpdatePasswordResponse{
			Success: false, Error: "Invalid request body",
		})
	}
	if req.Email == "" || req.PasswordHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.UpdatePasswordResponse{
			Success: false, Error: "email and password_hash are required",
		})
	}

	if _, _, err := h.provision.UpdateCredential(appID, req.Email, req.PasswordHash); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.UpdatePasswordResponse{
				Success: false, Error: "user not found", Reason: "NOT_PROVISIONED",
			})
		}
		slog.Error("credential update failed", "app_id", appID, "email", req.Email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.UpdatePasswordResponse{
			Success: false, Error: "Internal server error",
		})
	}

	return c.JSON(dto.UpdatePasswordResponse{Success: true})
}

// UpdateCentralPassword replaces the hash in the central store only.
func (h *PasswordHandler) UpdateCentralPassword(c *fiber.Ctx) error {
	var req dto.UpdatePasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.UpdatePasswordResponse{
			Success: false, Error: "Invalid request body",
		})
	}
	if req.Email == "" || req.PasswordHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.UpdatePasswordResponse{
			Success: false, Error: "email and password_hash are required",
		})
	}

	if err := h.accounts.UpdatePasswordHash(req.Email, req.PasswordHash); err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.UpdatePasswordResponse{
				Success: false, Error: "user not found",
			})
		}
		slog.Error("central password update failed", "email", req.Email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.UpdatePasswordResponse{
			Success: false, Error: "Internal server error",
		})
	}

	return c.JSON(dto.UpdatePasswordResponse{Success: true})
}

// SyncPassword is the orchestrator: fan the change out to the central store
// and every sibling app. The response is success=true even when individual
// targets failed; apps_updated carries the per-target truth.
func (h *PasswordHandler) SyncPassword(c *fiber.Ctx) error {
	var req dto.SyncPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Email == "" || req.PasswordHash == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "email and password_hash are required",
		})
	}

	result := h.sync.SyncPassword(c.Context(), req.Email, req.PasswordHash, req.SourceApp)

	return c.JSON(fiber.Map{
		"success":         true,
		"email":           result.Email,
		"central_updated": result.CentralUpdated,
		"apps_updated":    result.AppsUpdated,
	})
}
