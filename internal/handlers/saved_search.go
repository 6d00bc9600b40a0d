package handlers

import (
	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/models"
	"crowdvest/internal/services"
)

// SavedSearchHandler manages stored search requests
type SavedSearchHandler struct {
	savedSearchService *services.SavedSearchService
}

func NewSavedSearchHandler(savedSearchService *services.SavedSearchService) *SavedSearchHandler {
	return &SavedSearchHandler{savedSearchService: savedSearchService}
}

type saveSearchRequest struct {
	Name    string               `json:"name"`
	Request models.SearchRequest `json:"request"`
}

// Create stores a search for later
// POST /api/saved-searches
func (h *SavedSearchHandler) Create(c *fiber.Ctx) error {
	var req saveSearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	saved, err := h.savedSearchService.Save(c.Context(), currentUserID(c), req.Name, req.Request)
	if err != nil {
		return respondError(c, "SAVED_SEARCH", err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// List returns the caller's saved searches
// GET /api/saved-searches
func (h *SavedSearchHandler) List(c *fiber.Ctx) error {
	searches, err := h.savedSearchService.List(c.Context(), currentUserID(c))
	if err != nil {
		return respondError(c, "SAVED_SEARCH", err)
	}
	return c.JSON(fiber.Map{"saved_searches": searches})
}

// Run executes a saved search under the caller's current plan
// POST /api/saved-searches/:id/run
func (h *SavedSearchHandler) Run(c *fiber.Ctx) error {
	result, err := h.savedSearchService.Run(c.Context(), currentUserID(c), c.Params("id"))
	if err != nil {
		return respondError(c, "SAVED_SEARCH", err)
	}
	return c.JSON(result)
}

// Delete removes a saved search
// DELETE /api/saved-searches/:id
func (h *SavedSearchHandler) Delete(c *fiber.Ctx) error {
	if err := h.savedSearchService.Delete(c.Context(), currentUserID(c), c.Params("id")); err != nil {
		return respondError(c, "SAVED_SEARCH", err)
	}
	return c.JSON(fiber.Map{"message": "Saved search deleted"})
}
