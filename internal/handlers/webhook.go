package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/services"
)

// WebhookHandler receives billing gateway callbacks
type WebhookHandler struct {
	billingService *services.BillingService
}

func NewWebhookHandler(billingService *services.BillingService) *WebhookHandler {
	return &WebhookHandler{billingService: billingService}
}

// Billing applies a signed subscription event
// POST /api/webhooks/billing
func (h *WebhookHandler) Billing(c *fiber.Ctx) error {
	// Signature verification needs the exact raw headers
	headers := make(http.Header)
	c.Request().Header.VisitAll(func(key, value []byte) {
		headers.Add(string(key), string(value))
	})

	if err := h.billingService.HandleWebhook(c.Context(), c.Body(), headers); err != nil {
		return respondError(c, "WEBHOOK", err)
	}
	return c.JSON(fiber.Map{"received": true})
}
