package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/gofiber/fiber/v2"
)

type AuditHandler struct {
	audit *services.AuditService
}

func NewAuditHandler(audit *services.AuditService) *AuditHandler {
	return &AuditHandler{audit: audit}
}

// List returns audit entries filtered by action, actor, target, and time
// range, newest first.
func (h *AuditHandler) List(c *fiber.Ctx) error {
	filter := services.AuditFilter{
		Action: c.Query("action"),
		Actor:  c.Query("actor"),
		Target: c.Query("target"),
		Limit:  c.QueryInt("limit"),
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			filter.From = t
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			filter.To = t
		}
	}

	entries, err := h.audit.List(filter)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to list audit entries",
		})
	}

	return c.JSON(fiber.Map{"entries": entries, "count": len(entries)})
}
