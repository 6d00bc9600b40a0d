package handlers

import (
	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/services"
)

// NotificationHandler serves in-app notifications
type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// List returns the caller's notifications
// GET /api/notifications?unread=true
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)
	unreadOnly := c.QueryBool("unread", false)

	notifications, pagination, err := h.notificationService.ListByUser(c.Context(),
		currentUserID(c), unreadOnly, page, limit)
	if err != nil {
		return respondError(c, "NOTIFY", err)
	}
	return c.JSON(fiber.Map{
		"notifications": notifications,
		"pagination":    pagination,
	})
}

// MarkRead marks one notification read
// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	if err := h.notificationService.MarkRead(c.Context(), currentUserID(c), c.Params("id")); err != nil {
		return respondError(c, "NOTIFY", err)
	}
	return c.JSON(fiber.Map{"message": "Notification marked read"})
}

// MarkAllRead marks every unread notification read
// POST /api/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	updated, err := h.notificationService.MarkAllRead(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, "NOTIFY", err)
	}
	return c.JSON(fiber.Map{"updated": updated})
}
