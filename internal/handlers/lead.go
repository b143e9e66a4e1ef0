package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
)

var leadStatuses = map[string]bool{
	"new": true, "contacted": true, "qualified": true, "lost": true, "converted": true,
}

type LeadHandler struct {
	db *gorm.DB
}

func NewLeadHandler(db *gorm.DB) *LeadHandler {
	return &LeadHandler{db: db}
}

func (h *LeadHandler) ListLeads(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	q := h.db.Model(&models.Lead{})
	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if assigned := c.Query("assigned_to"); assigned != "" {
		if id, err := uuid.Parse(assigned); err == nil {
			q = q.Where("assigned_to = ?", id)
		}
	}
	if source := c.Query("source"); source != "" {
		q = q.Where("source = ?", source)
	}

	var total int64
	q.Count(&total)

	var leads []models.Lead
	if err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&leads).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list leads",
		})
	}

	return c.JSON(fiber.Map{
		"leads":    leads,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *LeadHandler) CreateLead(c *fiber.Ctx) error {
	var req struct {
		Name     string  `json:"name"`
		Phone    string  `json:"phone"`
		Email    string  `json:"email"`
		Source   string  `json:"source"`
		Budget   float64 `json:"budget"`
		Interest string  `json:"interest"`
		Notes    string  `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "A lead name is required",
		})
	}

	agentID := middleware.UserID(c)
	lead := models.Lead{
		Name:       req.Name,
		Phone:      req.Phone,
		Email:      req.Email,
		Source:     req.Source,
		Budget:     req.Budget,
		Interest:   req.Interest,
		Notes:      req.Notes,
		Status:     "new",
		AssignedTo: &agentID,
	}
	if err := h.db.Create(&lead).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create lead",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(lead)
}

// UpdateStatus moves a lead through the pipeline. Converting a lead
// also creates a customer record linked back to it.
func (h *LeadHandler) UpdateStatus(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid lead ID",
		})
	}

	var req struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := c.BodyParser(&req); err != nil || !leadStatuses[req.Status] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Status must be one of: new, contacted, qualified, lost, converted",
		})
	}

	var lead models.Lead
	if err := h.db.First(&lead, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Lead not found",
		})
	}

	updates := map[string]interface{}{"status": req.Status}
	if req.Notes != "" {
		updates["notes"] = req.Notes
	}
	if err := h.db.Model(&lead).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update lead",
		})
	}

	if req.Status == "converted" {
		customer := models.Customer{
			Name:   lead.Name,
			Phone:  lead.Phone,
			Email:  lead.Email,
			LeadID: &lead.ID,
		}
		if err := h.db.Create(&customer).Error; err == nil {
			return c.JSON(fiber.Map{"lead": lead, "customer": customer})
		}
	}
	return c.JSON(fiber.Map{"lead": lead})
}

func (h *LeadHandler) AssignLead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid lead ID",
		})
	}

	var req struct {
		AgentID string `json:"agent_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid agent ID",
		})
	}

	var agent models.User
	if err := h.db.First(&agent, "id = ? AND is_active = ?", agentID, true).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Agent not found or inactive",
		})
	}

	if err := h.db.Model(&models.Lead{}).Where("id = ?", id).
		Update("assigned_to", agentID).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to assign lead",
		})
	}
	return c.JSON(fiber.Map{"message": "Lead assigned", "agent_id": agentID})
}

func (h *LeadHandler) DeleteLead(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid lead ID",
		})
	}
	h.db.Delete(&models.Lead{}, "id = ?", id)
	return c.JSON(fiber.Map{"message": "Lead deleted"})
}
