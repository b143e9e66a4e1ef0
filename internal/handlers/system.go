package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/config"
)

var startTime = time.Now()
var Version = "1.0.0"

type SystemHandler struct {
	db  *gorm.DB
	cfg *config.Config
}

func NewSystemHandler(db *gorm.DB, cfg *config.Config) *SystemHandler {
	return &SystemHandler{db: db, cfg: cfg}
}

func (h *SystemHandler) Health(c *fiber.Ctx) error {
	dbStatus := "ok"
	statusCode := fiber.StatusOK

	sqlDB, err := h.db.DB()
	if err != nil {
		dbStatus = "error: " + err.Error()
		statusCode = fiber.StatusServiceUnavailable
	} else if err := sqlDB.Ping(); err != nil {
		dbStatus = "unreachable: " + err.Error()
		statusCode = fiber.StatusServiceUnavailable
	}

	overall := "ok"
	if statusCode != fiber.StatusOK {
		overall = "degraded"
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":  overall,
		"service": "ekarbot",
		"version": Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"uptime":  time.Since(startTime).String(),
		"db":      dbStatus,
	})
}

func (h *SystemHandler) DashboardOverview(c *fiber.Ctx) error {
	// ─── Project counts ─────────────────────────────────────────────────
	var projectTotal, projectActive int64
	h.db.Table("projects").Where("deleted_at IS NULL").Count(&projectTotal)
	h.db.Table("projects").Where("deleted_at IS NULL AND status = ?", "active").Count(&projectActive)

	var unitTotal, unitAvailable int64
	h.db.Table("units").Where("deleted_at IS NULL").Count(&unitTotal)
	h.db.Table("units").Where("deleted_at IS NULL AND is_available = ?", true).Count(&unitAvailable)

	// ─── Lead pipeline ──────────────────────────────────────────────────
	var leadTotal, leadNew, leadQualified, leadConverted int64
	h.db.Table("leads").Where("deleted_at IS NULL").Count(&leadTotal)
	h.db.Table("leads").Where("deleted_at IS NULL AND status = ?", "new").Count(&leadNew)
	h.db.Table("leads").Where("deleted_at IS NULL AND status = ?", "qualified").Count(&leadQualified)
	h.db.Table("leads").Where("deleted_at IS NULL AND status = ?", "converted").Count(&leadConverted)

	var customerTotal int64
	h.db.Table("customers").Where("deleted_at IS NULL").Count(&customerTotal)

	// ─── Site visits (next 7 days) ──────────────────────────────────────
	var visitsUpcoming, visitsPending int64
	h.db.Table("site_visits").
		Where("deleted_at IS NULL AND visit_date BETWEEN ? AND ? AND status IN ?",
			time.Now(), time.Now().Add(7*24*time.Hour), []string{"pending", "confirmed"}).
		Count(&visitsUpcoming)
	h.db.Table("site_visits").
		Where("deleted_at IS NULL AND status = ?", "pending").
		Count(&visitsPending)

	// ─── Chat activity (last 24h) ───────────────────────────────────────
	var recentChats, sessionTotal int64
	h.db.Table("chat_rows").
		Where("created_at > ?", time.Now().Add(-24*time.Hour)).
		Count(&recentChats)
	h.db.Table("chat_sessions").Where("deleted_at IS NULL").Count(&sessionTotal)

	return c.JSON(fiber.Map{
		"projects": fiber.Map{
			"total":  projectTotal,
			"active": projectActive,
		},
		"units": fiber.Map{
			"total":     unitTotal,
			"available": unitAvailable,
		},
		"leads": fiber.Map{
			"total":     leadTotal,
			"new":       leadNew,
			"qualified": leadQualified,
			"converted": leadConverted,
		},
		"customers": fiber.Map{
			"total": customerTotal,
		},
		"site_visits": fiber.Map{
			"upcoming_week": visitsUpcoming,
			"pending":       visitsPending,
		},
		"chat": fiber.Map{
			"sessions":          sessionTotal,
			"messages_last_24h": recentChats,
		},
	})
}
