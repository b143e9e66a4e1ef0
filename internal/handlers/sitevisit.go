package handlers

import (
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
)

type SiteVisitHandler struct {
	db       *gorm.DB
	validate *validator.Validate
}

func NewSiteVisitHandler(db *gorm.DB) *SiteVisitHandler {
	return &SiteVisitHandler{db: db, validate: validator.New()}
}

type bookVisitRequest struct {
	ProjectID       string `json:"project_id" validate:"required,uuid4"`
	CustomerName    string `json:"customer_name" validate:"required,min=2,max=128"`
	CustomerPhone   string `json:"customer_phone" validate:"required,min=7,max=20"`
	CustomerEmail   string `json:"customer_email" validate:"omitempty,email"`
	VisitDate       string `json:"visit_date" validate:"required"` // YYYY-MM-DD
	VisitTime       string `json:"visit_time" validate:"required"` // HH:MM
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=15,max=480"`
	VisitType       string `json:"visit_type" validate:"omitempty,oneof=in_person virtual"`
	Notes           string `json:"notes" validate:"max=2000"`
}

// BookVisit schedules a site visit. The date must be in the future and
// the project must exist; overlapping visits for the same agent on the
// same slot are rejected.
func (h *SiteVisitHandler) BookVisit(c *fiber.Ctx) error {
	var req bookVisitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if err := h.validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": validationMessage(err),
		})
	}

	visitDate, err := time.Parse("2006-01-02", req.VisitDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "visit_date must be YYYY-MM-DD",
		})
	}
	if _, err := time.Parse("15:04", req.VisitTime); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "visit_time must be HH:MM",
		})
	}
	today := time.Now().Truncate(24 * time.Hour)
	if visitDate.Before(today) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "visit_date must not be in the past",
		})
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid project ID",
		})
	}
	var project models.Project
	if err := h.db.First(&project, "id = ?", projectID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Project not found",
		})
	}

	agentID := middleware.UserID(c)

	var clash int64
	h.db.Model(&models.SiteVisit{}).
		Where("agent_id = ? AND visit_date = ? AND visit_time = ? AND status IN ?",
			agentID, visitDate, req.VisitTime, []string{"pending", "confirmed"}).
		Count(&clash)
	if clash > 0 {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "You already have a visit booked at that time",
		})
	}

	visit := models.SiteVisit{
		ProjectID:       projectID,
		AgentID:         agentID,
		CustomerName:    req.CustomerName,
		CustomerPhone:   req.CustomerPhone,
		CustomerEmail:   req.CustomerEmail,
		VisitDate:       visitDate,
		VisitTime:       req.VisitTime,
		DurationMinutes: req.DurationMinutes,
		VisitType:       req.VisitType,
		Notes:           req.Notes,
		Status:          "pending",
	}
	if visit.DurationMinutes == 0 {
		visit.DurationMinutes = 60
	}
	if visit.VisitType == "" {
		visit.VisitType = "in_person"
	}

	if err := h.db.Create(&visit).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to book visit",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(visit)
}

func (h *SiteVisitHandler) ListVisits(c *fiber.Ctx) error {
	q := h.db.Model(&models.SiteVisit{}).Preload("Project")

	// Agents see their own calendar; managers can pass agent_id to see anyone's.
	role, _ := c.Locals("role").(string)
	if role == models.RoleUserManager {
		if agentID := c.Query("agent_id"); agentID != "" {
			if id, err := uuid.Parse(agentID); err == nil {
				q = q.Where("agent_id = ?", id)
			}
		}
	} else {
		q = q.Where("agent_id = ?", middleware.UserID(c))
	}

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if from := c.Query("from"); from != "" {
		if t, err := time.Parse("2006-01-02", from); err == nil {
			q = q.Where("visit_date >= ?", t)
		}
	}
	if to := c.Query("to"); to != "" {
		if t, err := time.Parse("2006-01-02", to); err == nil {
			q = q.Where("visit_date <= ?", t)
		}
	}

	var visits []models.SiteVisit
	if err := q.Order("visit_date ASC, visit_time ASC").Limit(200).Find(&visits).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list visits",
		})
	}
	return c.JSON(fiber.Map{"visits": visits})
}

var visitTransitions = map[string][]string{
	"pending":   {"confirmed", "cancelled"},
	"confirmed": {"completed", "cancelled"},
}

// UpdateVisitStatus enforces the pending -> confirmed -> completed
// lifecycle, with cancellation allowed until completion.
func (h *SiteVisitHandler) UpdateVisitStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid visit ID",
		})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	var visit models.SiteVisit
	if err := h.db.First(&visit, "id = ? AND agent_id = ?", id, middleware.UserID(c)).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Visit not found",
		})
	}

	allowed := false
	for _, next := range visitTransitions[visit.Status] {
		if next == req.Status {
			allowed = true
			break
		}
	}
	if !allowed {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   true,
			"message": "Cannot move visit from " + visit.Status + " to " + req.Status,
		})
	}

	if err := h.db.Model(&visit).Update("status", req.Status).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update visit",
		})
	}
	return c.JSON(visit)
}

func (h *SiteVisitHandler) DeleteVisit(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid visit ID",
		})
	}
	h.db.Delete(&models.SiteVisit{}, "id = ? AND agent_id = ?", id, middleware.UserID(c))
	return c.JSON(fiber.Map{"message": "Visit deleted"})
}

// validationMessage flattens the first validator error into a readable string.
func validationMessage(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return "Validation failed"
	}
	fe := ve[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email"
	case "oneof":
		return fe.Field() + " must be one of: " + fe.Param()
	default:
		return fe.Field() + " is invalid"
	}
}
