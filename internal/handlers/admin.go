package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/services"
)

// AdminHandler serves the admin analytics endpoints
type AdminHandler struct {
	analyticsService *services.AnalyticsService
}

func NewAdminHandler(analyticsService *services.AnalyticsService) *AdminHandler {
	return &AdminHandler{analyticsService: analyticsService}
}

// AnalyticsOverview returns the platform summary
// GET /api/admin/analytics/overview
func (h *AdminHandler) AnalyticsOverview(c *fiber.Ctx) error {
	overview, err := h.analyticsService.Overview(c.Context())
	if err != nil {
		return respondError(c, "ADMIN", err)
	}
	return c.JSON(overview)
}

// RollupDay recomputes one day's analytics on demand
// POST /api/admin/analytics/rollup?date=2026-08-27
func (h *AdminHandler) RollupDay(c *fiber.Ctx) error {
	day := time.Now().UTC().AddDate(0, 0, -1)
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "date must be formatted YYYY-MM-DD",
			})
		}
		day = parsed
	}

	rollup, err := h.analyticsService.RollupDay(c.Context(), day)
	if err != nil {
		return respondError(c, "ADMIN", err)
	}
	return c.JSON(rollup)
}
