package handlers

import (
	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/services"
)

// InvestmentHandler exposes the investment ledger over HTTP
type InvestmentHandler struct {
	investmentService *services.InvestmentService
	usageLimiter      *services.UsageLimiter
}

func NewInvestmentHandler(investmentService *services.InvestmentService, usageLimiter *services.UsageLimiter) *InvestmentHandler {
	return &InvestmentHandler{
		investmentService: investmentService,
		usageLimiter:      usageLimiter,
	}
}

type investRequest struct {
	ProjectID     string  `json:"project_id"`
	Amount        float64 `json:"amount"`
	PaymentMethod string  `json:"payment_method"`
	PaymentRef    string  `json:"payment_ref"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type simulateRequest struct {
	ProjectID string  `json:"project_id"`
	Amount    float64 `json:"amount"`
}

// Create records an investment
// POST /api/investments
func (h *InvestmentHandler) Create(c *fiber.Ctx) error {
	var req investRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	investment, err := h.investmentService.Invest(c.Context(), currentUserID(c),
		req.ProjectID, req.Amount, req.PaymentMethod, req.PaymentRef)
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.Status(fiber.StatusCreated).JSON(investment)
}

// Cancel refunds an investment
// POST /api/investments/:id/cancel
func (h *InvestmentHandler) Cancel(c *fiber.Ctx) error {
	var req cancelRequest
	// Body is optional; a missing reason gets the default
	_ = c.BodyParser(&req)

	investment, err := h.investmentService.Cancel(c.Context(), currentUserID(c),
		c.Params("id"), req.Reason, isAdmin(c))
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(investment)
}

// Simulate projects the return for an amount without investing, counting
// against the monthly simulation quota
// POST /api/investments/simulate
func (h *InvestmentHandler) Simulate(c *fiber.Ctx) error {
	var req simulateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.usageLimiter.Consume(c.Context(), currentUserID(c), services.UsageSimulations); err != nil {
		return respondError(c, "INVEST", err)
	}

	simulation, err := h.investmentService.Simulate(c.Context(), req.ProjectID, req.Amount)
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(simulation)
}

// MyInvestments lists the caller's investments with summary totals
// GET /api/investments/my-investments?status=&page=&limit=
func (h *InvestmentHandler) MyInvestments(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	investments, pagination, totals, err := h.investmentService.ListByUser(c.Context(),
		currentUserID(c), c.Query("status"), page, limit)
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(fiber.Map{
		"investments": investments,
		"pagination":  pagination,
		"totals":      totals,
	})
}

// Stats summarizes the caller's portfolio
// GET /api/investments/stats
func (h *InvestmentHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.investmentService.UserStats(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(stats)
}

// Get returns one investment, owner or admin only
// GET /api/investments/:id
func (h *InvestmentHandler) Get(c *fiber.Ctx) error {
	investment, err := h.investmentService.GetByID(c.Context(), currentUserID(c),
		c.Params("id"), isAdmin(c))
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(investment)
}

// ListByProject lists a project's investments (admin)
// GET /api/investments/project/:projectId
func (h *InvestmentHandler) ListByProject(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	investments, pagination, totals, err := h.investmentService.ListByProject(c.Context(),
		c.Params("projectId"), page, limit)
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(fiber.Map{
		"investments": investments,
		"pagination":  pagination,
		"totals":      totals,
	})
}

// Usage reports the caller's quota consumption
// GET /api/investments/usage
func (h *InvestmentHandler) Usage(c *fiber.Ctx) error {
	snapshot, err := h.usageLimiter.Snapshot(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, "INVEST", err)
	}
	return c.JSON(snapshot)
}
