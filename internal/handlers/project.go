package handlers

import (
	"github.com/gofiber/fiber/v2"

	"crowdvest/internal/models"
	"crowdvest/internal/services"
)

// ProjectHandler handles project listing, search, and admin CRUD
type ProjectHandler struct {
	projectService *services.ProjectService
	searchService  *services.SearchService
	importService  *services.ImportService
	usageLimiter   *services.UsageLimiter
}

func NewProjectHandler(projectService *services.ProjectService, searchService *services.SearchService, importService *services.ImportService, usageLimiter *services.UsageLimiter) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		searchService:  searchService,
		importService:  importService,
		usageLimiter:   usageLimiter,
	}
}

// Search runs a plan-gated project search
// POST /api/projects/search
func (h *ProjectHandler) Search(c *fiber.Ctx) error {
	var req models.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	result, err := h.searchService.Search(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondError(c, "SEARCH", err)
	}
	return c.JSON(result)
}

// List returns the default listing: non-premium projects, newest first
// GET /api/projects
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	result, err := h.searchService.List(c.Context(), currentUserID(c), page, limit)
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(result)
}

// Premium returns the premium-only listing, premium plan required
// GET /api/projects/premium
func (h *ProjectHandler) Premium(c *fiber.Ctx) error {
	page, limit := pageParams(c)

	result, err := h.searchService.ListPremium(c.Context(), currentUserID(c), page, limit)
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(result)
}

// Get returns one project, counting against the monthly view quota
// GET /api/projects/:id
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	if err := h.usageLimiter.Consume(c.Context(), currentUserID(c), services.UsageProjectViews); err != nil {
		return respondError(c, "PROJECT", err)
	}

	project, err := h.projectService.GetByID(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, "PROJECT", err)
	}

	return c.JSON(fiber.Map{
		"project":          project,
		"progress_percent": project.ProgressPercent(),
	})
}

// Categories lists distinct category tags
// GET /api/projects/categories
func (h *ProjectHandler) Categories(c *fiber.Ctx) error {
	categories, err := h.projectService.Categories(c.Context())
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// Create adds a project (admin)
// POST /api/projects
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	created, err := h.projectService.Create(c.Context(), &project, currentUserID(c))
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.Status(fiber.StatusCreated).JSON(created)
}

// Update edits a project's attributes (admin)
// PUT /api/projects/:id
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	var project models.Project
	if err := c.BodyParser(&project); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	updated, err := h.projectService.Update(c.Context(), c.Params("id"), &project)
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(updated)
}

// Close stops a project from accepting investments (admin)
// POST /api/projects/:id/close
func (h *ProjectHandler) Close(c *fiber.Ctx) error {
	project, err := h.projectService.Close(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(project)
}

// Delete removes an investment-free project (admin)
// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *fiber.Ctx) error {
	if err := h.projectService.Delete(c.Context(), c.Params("id")); err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// Import bulk-creates projects from an uploaded Excel workbook (admin)
// POST /api/projects/import
func (h *ProjectHandler) Import(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "A file upload named 'file' is required",
		})
	}

	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read uploaded file",
		})
	}
	defer file.Close()

	result, err := h.importService.ImportProjects(c.Context(), file, currentUserID(c))
	if err != nil {
		return respondError(c, "IMPORT", err)
	}
	return c.JSON(result)
}

// Stats returns platform-wide project aggregates (admin)
// GET /api/projects/stats
func (h *ProjectHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.projectService.Stats(c.Context())
	if err != nil {
		return respondError(c, "PROJECT", err)
	}
	return c.JSON(stats)
}
