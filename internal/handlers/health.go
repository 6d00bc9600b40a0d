package handlers

import (
	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/database"
)

// HealthHandler serves liveness and readiness probes
type HealthHandler struct {
	mongoDB *database.MongoDB
}

func NewHealthHandler(mongoDB *database.MongoDB) *HealthHandler {
	return &HealthHandler{mongoDB: mongoDB}
}

// Health reports process liveness
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ready reports whether the database is reachable
// GET /ready
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	if h.mongoDB != nil {
		if err := h.mongoDB.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"status": "degraded",
				"error":  "database unreachable",
			})
		}
	}
	return c.JSON(fiber.Map{"status": "ready"})
}
