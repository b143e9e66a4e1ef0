package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
)

type CustomerHandler struct {
	db *gorm.DB
}

func NewCustomerHandler(db *gorm.DB) *CustomerHandler {
	return &CustomerHandler{db: db}
}

func (h *CustomerHandler) ListCustomers(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	q := h.db.Model(&models.Customer{})
	if text := c.Query("q"); text != "" {
		like := "%" + text + "%"
		q = q.Where("name ILIKE ? OR phone ILIKE ? OR email ILIKE ?", like, like, like)
	}
	if emirate := c.Query("emirate"); emirate != "" {
		q = q.Where("emirate = ?", emirate)
	}

	var total int64
	q.Count(&total)

	var customers []models.Customer
	if err := q.Order("created_at DESC").Offset((page - 1) * perPage).Limit(perPage).Find(&customers).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list customers",
		})
	}

	return c.JSON(fiber.Map{
		"customers": customers,
		"total":     total,
		"page":      page,
		"per_page":  perPage,
	})
}

func (h *CustomerHandler) CreateCustomer(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Email   string `json:"email"`
		Emirate string `json:"emirate"`
	}
	if err := c.BodyParser(&req); err != nil || req.Name == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "A customer name is required",
		})
	}

	customer := models.Customer{
		Name:    req.Name,
		Phone:   req.Phone,
		Email:   req.Email,
		Emirate: req.Emirate,
	}
	if err := h.db.Create(&customer).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to create customer",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// GetCustomer returns the customer with their activity log and any
// site visits booked for them, newest first.
func (h *CustomerHandler) GetCustomer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := h.db.First(&customer, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Customer not found",
		})
	}

	var activities []models.Activity
	h.db.Where("customer_id = ?", id).Order("occurred_at DESC").Limit(50).Find(&activities)

	var visits []models.SiteVisit
	h.db.Where("customer_phone = ?", customer.Phone).Order("visit_date DESC").Limit(20).Find(&visits)

	return c.JSON(fiber.Map{
		"customer":    customer,
		"activities":  activities,
		"site_visits": visits,
	})
}

func (h *CustomerHandler) UpdateCustomer(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid customer ID",
		})
	}

	var customer models.Customer
	if err := h.db.First(&customer, "id = ?", id).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Customer not found",
		})
	}

	var req map[string]interface{}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}

	allowed := map[string]bool{"name": true, "phone": true, "email": true, "emirate": true}
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

	if err := h.db.Model(&customer).Updates(updates).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to update customer",
		})
	}
	return c.JSON(customer)
}

// ─── Activities ───

type ActivityHandler struct {
	db *gorm.DB
}

func NewActivityHandler(db *gorm.DB) *ActivityHandler {
	return &ActivityHandler{db: db}
}

var activityTypes = map[string]bool{"call": true, "email": true, "meeting": true, "note": true}

func (h *ActivityHandler) LogActivity(c *fiber.Ctx) error {
	var req struct {
		LeadID      string `json:"lead_id"`
		CustomerID  string `json:"customer_id"`
		Type        string `json:"type"`
		Description string `json:"description"`
		OccurredAt  string `json:"occurred_at"` // RFC 3339, defaults to now
	}
	if err := c.BodyParser(&req); err != nil || !activityTypes[req.Type] {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Type must be one of: call, email, meeting, note",
		})
	}
	if req.LeadID == "" && req.CustomerID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Either lead_id or customer_id is required",
		})
	}

	activity := models.Activity{
		AgentID:     middleware.UserID(c),
		Type:        req.Type,
		Description: req.Description,
		OccurredAt:  time.Now(),
	}
	if req.LeadID != "" {
		id, err := uuid.Parse(req.LeadID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid lead ID",
			})
		}
		activity.LeadID = &id
	}
	if req.CustomerID != "" {
		id, err := uuid.Parse(req.CustomerID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid customer ID",
			})
		}
		activity.CustomerID = &id
	}
	if req.OccurredAt != "" {
		if t, err := time.Parse(time.RFC3339, req.OccurredAt); err == nil {
			activity.OccurredAt = t
		}
	}

	if err := h.db.Create(&activity).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to log activity",
		})
	}
	return c.Status(fiber.StatusCreated).JSON(activity)
}

func (h *ActivityHandler) ListActivities(c *fiber.Ctx) error {
	q := h.db.Model(&models.Activity{})

	if leadID := c.Query("lead_id"); leadID != "" {
		if id, err := uuid.Parse(leadID); err == nil {
			q = q.Where("lead_id = ?", id)
		}
	}
	if customerID := c.Query("customer_id"); customerID != "" {
		if id, err := uuid.Parse(customerID); err == nil {
			q = q.Where("customer_id = ?", id)
		}
	}
	if agentID := c.Query("agent_id"); agentID != "" {
		if id, err := uuid.Parse(agentID); err == nil {
			q = q.Where("agent_id = ?", id)
		}
	}

	var activities []models.Activity
	if err := q.Order("occurred_at DESC").Limit(200).Find(&activities).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to list activities",
		})
	}
	return c.JSON(fiber.Map{"activities": activities})
}
