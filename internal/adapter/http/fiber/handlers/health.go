package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler backs /health/live and /health/ready.
type HealthHandler struct {
	db *gorm.DB
}

func NewHealthHandler(db *gorm.DB) *HealthHandler {
	return &HealthHandler{db: db}
}

func (h *HealthHandler) Live(c *fiber.Ctx) error {
	return c.SendString("OK")
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	sqlDB, err := h.db.DB()
	if err != nil || sqlDB.PingContext(c.Context()) != nil {
		return c.Status(fiber.StatusServiceUnavailable).SendString("database not ready")
	}
	return c.SendString("Ready")
}
