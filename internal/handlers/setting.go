package handlers

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/models"
)

type SettingHandler struct {
	db *gorm.DB
}

func NewSettingHandler(db *gorm.DB) *SettingHandler {
	return &SettingHandler{db: db}
}

// GetSettings returns all portal settings as a flat JSON object. Clients
// poll this at startup, so it is public and cacheable.
func (h *SettingHandler) GetSettings(c *fiber.Ctx) error {
	var settings []models.PortalSetting
	h.db.Find(&settings)

	result := make(map[string]interface{})
	var maxUpdated time.Time

	for _, s := range settings {
		switch s.Type {
		case "bool":
			result[s.Key] = s.Value == "true" || s.Value == "1"
		case "int":
			if v, err := strconv.Atoi(s.Value); err == nil {
				result[s.Key] = v
			} else {
				result[s.Key] = s.Value
			}
		default:
			result[s.Key] = s.Value
		}
		if s.UpdatedAt.After(maxUpdated) {
			maxUpdated = s.UpdatedAt
		}
	}

	if maxUpdated.IsZero() {
		result["settings_version"] = int64(0)
	} else {
		result["settings_version"] = maxUpdated.Unix()
	}

	c.Set("Cache-Control", "public, max-age=60")
	if !maxUpdated.IsZero() {
		c.Set("Last-Modified", maxUpdated.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	}

	return c.JSON(result)
}

func (h *SettingHandler) GetSettingKey(c *fiber.Ctx) error {
	key := c.Params("key")

	var s models.PortalSetting
	if err := h.db.Where("key = ?", key).First(&s).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Setting not found: " + key,
		})
	}

	return c.JSON(fiber.Map{
		"key":        s.Key,
		"value":      s.Value,
		"type":       s.Type,
		"updated_at": s.UpdatedAt,
	})
}

// SetSettingKey creates or updates a setting. Manager-only.
func (h *SettingHandler) SetSettingKey(c *fiber.Ctx) error {
	key := c.Params("key")

	var req struct {
		Value string `json:"value"`
		Type  string `json:"type"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid request body",
		})
	}
	if req.Type == "" {
		req.Type = "string"
	}

	var s models.PortalSetting
	if h.db.Where("key = ?", key).First(&s).Error != nil {
		s = models.PortalSetting{Key: key, Value: req.Value, Type: req.Type}
		h.db.Create(&s)
	} else {
		h.db.Model(&s).Updates(map[string]interface{}{
			"value":      req.Value,
			"type":       req.Type,
			"updated_at": time.Now(),
		})
	}

	return c.JSON(fiber.Map{
		"key":        key,
		"value":      req.Value,
		"type":       req.Type,
		"updated_at": s.UpdatedAt,
	})
}

func (h *SettingHandler) DeleteSettingKey(c *fiber.Ctx) error {
	key := c.Params("key")
	h.db.Where("key = ?", key).Delete(&models.PortalSetting{})
	return c.JSON(fiber.Map{"message": "Setting deleted: " + key})
}

// SeedDefaults inserts the settings the clients expect, skipping any
// key an operator has already customised.
func (h *SettingHandler) SeedDefaults() {
	defaults := []models.PortalSetting{
		{Key: "app_name", Value: "EkarBot", Type: "string"},
		{Key: "app_version", Value: Version, Type: "string"},
		{Key: "feature_chatbot", Value: "true", Type: "bool"},
		{Key: "feature_messaging", Value: "true", Type: "bool"},
		{Key: "feature_site_visits", Value: "true", Type: "bool"},
		{Key: "feature_excel_import", Value: "true", Type: "bool"},
		{Key: "default_chat_mode", Value: "ekarbot-ai", Type: "string"},
		{Key: "chat_history_page_size", Value: "50", Type: "int"},
		{Key: "maintenance_mode", Value: "false", Type: "bool"},
		{Key: "announcement", Value: "", Type: "string"},
	}

	for _, d := range defaults {
		var existing models.PortalSetting
		if h.db.Where("key = ?", d.Key).First(&existing).Error != nil {
			h.db.Create(&d)
		}
	}
}
