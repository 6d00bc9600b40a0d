package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/models"
)

// respondError maps service errors to HTTP responses. The four domain error
// types are caller-facing; anything else logs and returns an opaque 500.
func respondError(c *fiber.Ctx, tag string, err error) error {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		body := fiber.Map{"error": validationErr.Message}
		if len(validationErr.Fields) > 0 {
			body["fields"] = validationErr.Fields
		}
		return c.Status(fiber.StatusBadRequest).JSON(body)
	}

	var authErr *models.AuthorizationError
	if errors.As(err, &authErr) {
		body := fiber.Map{"error": authErr.Message}
		if authErr.RequiredPlan != "" {
			body["required_plan"] = authErr.RequiredPlan
		}
		return c.Status(fiber.StatusForbidden).JSON(body)
	}

	var notFoundErr *models.NotFoundError
	if errors.As(err, &notFoundErr) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": notFoundErr.Error(),
		})
	}

	var stateErr *models.InvalidStateError
	if errors.As(err, &stateErr) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": stateErr.Message,
		})
	}

	log.Printf("❌ [%s] %v", tag, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}

// pageParams reads pagination query params with defaults
func pageParams(c *fiber.Ctx) (int, int) {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", models.DefaultLimit)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > models.MaxLimit {
		limit = models.DefaultLimit
	}
	return page, limit
}

func currentUserID(c *fiber.Ctx) string {
	if id, ok := c.Locals("user_id").(string); ok {
		return id
	}
	return ""
}

func isAdmin(c *fiber.Ctx) bool {
	if admin, ok := c.Locals("is_admin").(bool); ok && admin {
		return true
	}
	role, ok := c.Locals("user_role").(string)
	return ok && role == models.RoleAdmin
}
