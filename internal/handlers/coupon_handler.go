package handlers

import (
	"errors"
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/gofiber/fiber/v2"
)

type CouponHandler struct {
	coupons *services.CouponService
	audit   *services.AuditService
}

func NewCouponHandler(coupons *services.CouponService, audit *services.AuditService) *CouponHandler {
	return &CouponHandler{coupons: coupons, audit: audit}
}

// Redeem applies a coupon to the authenticated user's account.
func (h *CouponHandler) Redeem(c *fiber.Ctx) error {
	var req dto.RedeemCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if req.Code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "code is required",
		})
	}

	email, err := tenant.GetUserEmail(c)
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	result, err := h.coupons.Redeem(email, req.Code)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		slog.Error("coupon redemption failed", "email", email, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	if result.Success {
		h.audit.Record(services.AuditEntry{
			Actor:   email,
			Action:  "coupon_redeemed",
			Target:  req.Code,
			IP:      c.IP(),
			Details: map[string]interface{}{"app_id": tenant.GetAppID(c)},
		})
	}

	return c.JSON(result)
}

// Validate is the read-only pre-check used by signup and settings UIs.
func (h *CouponHandler) Validate(c *fiber.Ctx) error {
	var req dto.ValidateCouponRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	result, err := h.coupons.Validate(req.Code)
	if err != nil {
		slog.Error("coupon validation failed", "code", req.Code, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Internal server error",
		})
	}

	return c.JSON(result)
}
