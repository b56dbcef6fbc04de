package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AccountHandler struct {
	accounts *services.AccountService
	coupons  *services.CouponService
	audit    *services.AuditService
}

func NewAccountHandler(accounts *services.AccountService, coupons *services.CouponService, audit *services.AuditService) *AccountHandler {
	return &AccountHandler{accounts: accounts, coupons: coupons, audit: audit}
}

// CreateCentralUser creates the authoritative account record. Provisioning
// the selected apps is a separate call; a signup-time coupon is applied
// best-effort after the account write succeeds.
func (h *AccountHandler) CreateCentralUser(c *fiber.Ctx) error {
	var req dto.CreateCentralUserRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.CreateCentralUserResponse{
			Success: false, Error: "Invalid request body",
		})
	}

	user, err := h.accounts.CreateAccount(services.CreateAccountInput{
		Email:        req.Email,
		Password:     req.Password,
		Name:         req.Name,
		SelectedApps: req.SelectedApps,
	})
	if err != nil {
		if errors.Is(err, services.ErrEmailTaken) {
			return c.Status(fiber.StatusConflict).JSON(dto.CreateCentralUserResponse{
				Success: false, Error: err.Error(), Code: "USER_EXISTS",
			})
		}
		if errors.Is(err, services.ErrInvalidEmail) || errors.Is(err, services.ErrWeakPassword) || errors.Is(err, services.ErrUnknownApp) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.CreateCentralUserResponse{
				Success: false, Error: err.Error(),
			})
		}
		slog.Error("account creation failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.CreateCentralUserResponse{
			Success: false, Error: "Internal server error",
		})
	}

	if req.CouponCode != "" {
		if result, err := h.coupons.Redeem(user.Email, req.CouponCode); err != nil {
			slog.Error("signup coupon redemption failed", "email", user.Email, "error", err)
		} else if !result.Success {
			slog.Info("signup coupon rejected", "email", user.Email, "reason", result.Message)
		}
	}

	h.audit.Record(services.AuditEntry{
		Actor:     "admin",
		Action:    "create_central_user",
		Target:    user.Email,
		IP:        c.IP(),
		UserAgent: c.Get("User-Agent"),
		Details:   map[string]interface{}{"selected_apps": req.SelectedApps},
	})

	return c.Status(fiber.StatusCreated).JSON(dto.CreateCentralUserResponse{
		Success: true, UserID: user.ID.String(),
	})
}
