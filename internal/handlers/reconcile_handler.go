package handlers

import (
	"log/slog"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/services"
	"github.com/gofiber/fiber/v2"
)

type ReconcileHandler struct {
	reconcile *services.ReconcileService
	audit     *services.AuditService
}

func NewReconcileHandler(reconcile *services.ReconcileService, audit *services.AuditService) *ReconcileHandler {
	return &ReconcileHandler{reconcile: reconcile, audit: audit}
}

// BackfillLibraryItems repairs orphaned library items that lost their
// profile scoping key. Idempotent; safe to trigger repeatedly.
func (h *ReconcileHandler) BackfillLibraryItems(c *fiber.Ctx) error {
	result, err := h.reconcile.BackfillLibraryItems()
	if err != nil {
		slog.Error("library item backfill failed", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Backfill failed",
		})
	}

	h.audit.Record(services.AuditEntry{
		Actor:  "admin",
		Action: "backfill_library_items",
		IP:     c.IP(),
		Details: map[string]interface{}{
			"created": result.Created,
			"deleted": result.Deleted,
			"skipped": result.Skipped,
			"errors":  result.Errors,
		},
	})

	return c.JSON(fiber.Map{
		"success": true,
		"created": result.Created,
		"deleted": result.Deleted,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	})
}
