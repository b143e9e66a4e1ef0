package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/config"
	"github.com/nihalvp321/ekarbot-server/internal/importer"
	"github.com/nihalvp321/ekarbot-server/internal/models"
)

type ProjectHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewProjectHandler(db *gorm.DB, cfg *config.Config) *ProjectHandler {
	return &ProjectHandler{db: db, cfg: cfg}
}

// ListProjects supports the portal's filter bar: free-text q over title
// and developer, plus emirate, property type and price range.
func (h *ProjectHandler) ListProjects(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	q := h.db.Model(&models.Project{})

	if text := c.Query("q"); text != "" {
		like := "%" + text + "%"
		q = q.Where("title ILIKE ? OR developer ILIKE ? OR project_code ILIKE ?", like, like, like)
	}
	if emirate := c.Query("emirate"); emirate != "" {
		q = q.Where("emirate = ?", emirate)
	}
	if pt := c.Query("property_type"); pt != "" {
		q = q.Where("property_type = ?", pt)
	}
	if ut := c.Query("unit_type"); ut != "" {
		q = q.Where("unit_type = ?", ut)
	}
	if minPrice, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		q = q.Where("starting_price >= ?", minPrice)
	}
	if maxPrice, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		q = q.Where("starting_price <= ?", maxPrice)
	}
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	q.Count(&total)

	var projects []models.Project
	if err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&projects).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list projects",
		})
	}

	return c.JSON(fiber.Map{
		"projects": projects,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *ProjectHandler) GetProject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.db.Preload("Units").First(&project, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Project not found",
		})
	}
	return c.JSON(project)
}

func (h *ProjectHandler) CreateProject(c *fiber.Ctx) error {
	var req struct {
		ProjectCode   string  `json:"project_code"`
		Title         string  `json:"title"`
		Developer     string  `json:"developer"`
		Emirate       string  `json:"emirate"`
		Region        string  `json:"region"`
		PropertyType  string  `json:"property_type"`
		UnitType      string  `json:"unit_type"`
		StartingPrice float64 `json:"starting_price"`
		CoverImage    string  `json:"cover_image"`
		WebsiteURL    string  `json:"website_url"`
		Description   string  `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if req.ProjectCode == "" || req.Title == "" || req.Emirate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "project_code, title and emirate are required",
		})
	}

	project := models.Project{
		ProjectCode:   req.ProjectCode,
		Title:         req.Title,
		Developer:     req.Developer,
		Emirate:       req.Emirate,
		Region:        req.Region,
		PropertyType:  req.PropertyType,
		UnitType:      req.UnitType,
		StartingPrice: req.StartingPrice,
		CoverImage:    req.CoverImage,
		WebsiteURL:    req.WebsiteURL,
		Description:   req.Description,
		Status:        "active",
	}
	if err := h.db.Create(&project).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create project (duplicate code?)",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(project)
}

func (h *ProjectHandler) UpdateProject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid project ID",
		})
	}

	var project models.Project
	if err := h.db.First(&project, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Project not found",
		})
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	allowed := map[string]bool{
		"title": true, "developer": true, "emirate": true, "region": true,
		"property_type": true, "unit_type": true, "starting_price": true,
		"cover_image": true, "website_url": true, "description": true, "status": true,
	}
	updates := make(map[string]interface{})
	for k, v := range req {
		if allowed[k] {
			updates[k] = v
		}
	}
	if len(updates) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "No updatable fields provided",
		})
	}

	if err := h.db.Model(&project).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update project",
		})
	}
	return c.JSON(project)
}

func (h *ProjectHandler) DeleteProject(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid project ID",
		})
	}

	h.db.Delete(&models.Unit{}, "project_id = ?", id)
	h.db.Delete(&models.Project{}, "id = ?", id)
	return c.JSON(fiber.Map{"message": "Project deleted"})
}

// ListUnits returns a project's units.
func (h *ProjectHandler) ListUnits(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid project ID",
		})
	}

	var units []models.Unit
	if err := h.db.Where("project_id = ?", id).Order("unit_code ASC").Find(&units).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list units",
		})
	}
	return c.JSON(fiber.Map{"units": units})
}

// ImportWorkbook ingests an uploaded .xlsx of projects and units.
// Row-level failures are reported, not fatal.
func (h *ProjectHandler) ImportWorkbook(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "An .xlsx file field is required",
		})
	}

	f, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to read upload",
		})
	}
	defer f.Close()

	wb, err := importer.Parse(f, h.cfg.ImportMaxRows)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": err.Error(),
		})
	}

	result, err := importer.Apply(h.db, wb)
	if err != nil {
		slog.Error("Import batch failed", "file", fileHeader.Filename, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Import failed, no rows were applied",
		})
	}

	slog.Info("Workbook imported",
		"file", fileHeader.Filename,
		"projects_created", result.ProjectsCreated,
		"projects_updated", result.ProjectsUpdated,
		"units_created", result.UnitsCreated,
		"row_errors", len(result.Errors),
	)
	return c.JSON(result)
}
