package handlers

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/account-hub/internal/database"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/dto"
	"github.com/ahmetcoskunkizilkaya/account-hub/internal/tenant"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
)

type HealthHandler struct {
	registry *tenant.Registry
	rdb      *redis.Client
}

func NewHealthHandler(registry *tenant.Registry, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{registry: registry, rdb: rdb}
}

func (h *HealthHandler) Check(c *fiber.Ctx) error {
	dbStatus := "ok"
	if err := database.Ping(); err != nil {
		dbStatus = "unhealthy: " + err.Error()
	}

	// Redis being down is not fatal: the rate limiter fails open.
	redisStatus := "ok"
	if err := h.rdb.Ping(c.Context()).Err(); err != nil {
		redisStatus = "unhealthy: " + err.Error()
	}

	return c.JSON(dto.HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		DB:        dbStatus,
		Redis:     redisStatus,
		AppCount:  len(h.registry.All()),
	})
}
