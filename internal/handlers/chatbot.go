package handlers

import (
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/nihalvp321/ekarbot-server/internal/chatbot"
	"github.com/nihalvp321/ekarbot-server/internal/middleware"
	"github.com/nihalvp321/ekarbot-server/internal/models"
	"github.com/nihalvp321/ekarbot-server/internal/services"
)

const defaultChatMode = "ekarbot-ai"

type ChatbotHandler struct {
	db      *gorm.DB
	webhook *services.WebhookClient
	cache   *services.HistoryCache
}

func NewChatbotHandler(db *gorm.DB, webhook *services.WebhookClient, cache *services.HistoryCache) *ChatbotHandler {
	return &ChatbotHandler{db: db, webhook: webhook, cache: cache}
}

// toRawRows adapts stored rows to the normalizer's input shape.
func toRawRows(rows []models.ChatRow) []chatbot.RawRow {
	out := make([]chatbot.RawRow, len(rows))
	for i, r := range rows {
		var data interface{}
		if len(r.ResponseData) > 0 {
			data = []byte(r.ResponseData)
		}
		out[i] = chatbot.RawRow{
			ID:             r.ID.String(),
			MessageType:    r.MessageType,
			MessageContent: r.MessageContent,
			UserMessage:    r.UserMessage,
			BotResponse:    r.BotResponse,
			ResponseData:   data,
			ChatMode:       r.ChatMode,
			CreatedAt:      r.CreatedAt,
		}
	}
	return out
}

// ─── Chat ───────────────────────────────────────────────────────────────────

func (h *ChatbotHandler) Chat(c *fiber.Ctx) error {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
		Mode      string `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil || req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Message is required",
		})
	}
	if req.Mode == "" {
		req.Mode = defaultChatMode
	}

	agentID := middleware.UserID(c)

	// Load or create the session.
	var session models.ChatSession
	if req.SessionID != "" {
		sessionID, err := uuid.Parse(req.SessionID)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":   true,
				"message": "Invalid session ID",
			})
		}
		if err := h.db.First(&session, "id = ? AND agent_id = ?", sessionID, agentID).Error; err != nil {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error":   true,
				"message": "Session not found",
			})
		}
	} else {
		session = models.ChatSession{
			AgentID:  agentID,
			Title:    truncate(req.Message, 100),
			IsActive: true,
		}
		if err := h.db.Create(&session).Error; err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error":   true,
				"message": "Failed to create session",
			})
		}
	}

	// Persist the user turn first so the timeline survives a webhook
	// success whose response we fail to store.
	userRow := models.ChatRow{
		SessionID:      session.ID,
		MessageType:    chatbot.RoleUser,
		MessageContent: req.Message,
		ChatMode:       req.Mode,
	}
	if err := h.db.Create(&userRow).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to store message",
		})
	}

	data, rawBody, err := h.webhook.Send(services.WebhookRequest{
		Message:   req.Message,
		SessionID: session.ID.String(),
		AgentID:   agentID.String(),
		Mode:      req.Mode,
	})
	if err != nil {
		// Roll back the optimistic user turn: the UI must not claim a
		// message was delivered when the round trip failed.
		h.db.Delete(&models.ChatRow{}, "id = ?", userRow.ID)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"error":   true,
			"message": "Assistant service unavailable",
		})
	}

	reply := chatbot.ReplyText(data)
	if reply == "" {
		reply = "I couldn't generate a response. Please try again."
	}

	botRow := models.ChatRow{
		SessionID:      session.ID,
		MessageType:    chatbot.RoleBot,
		MessageContent: reply,
		ResponseData:   datatypes.JSON(rawBody),
		ChatMode:       req.Mode,
	}
	if err := h.db.Create(&botRow).Error; err != nil {
		slog.Error("Failed to store bot turn", "session_id", session.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to store response",
		})
	}

	h.db.Model(&session).Update("updated_at", botRow.CreatedAt)
	h.cache.Invalidate(agentID.String(), session.ID.String())

	// Run the new pair through the normalizer so live turns and history
	// fetches render identically.
	turn := chatbot.NormalizeHistory(toRawRows([]models.ChatRow{userRow, botRow}))

	return c.JSON(fiber.Map{
		"session_id":          session.ID,
		"messages":            turn.Messages,
		"projects_by_message": turn.ProjectsByMessage,
	})
}

// ─── History ────────────────────────────────────────────────────────────────

func (h *ChatbotHandler) GetHistory(c *fiber.Ctx) error {
	agentID := middleware.UserID(c)
	session, ok := h.ownedSession(c, agentID)
	if !ok {
		return nil
	}

	// Instant-paint path: serve the cached blob when asked to.
	if c.QueryBool("cached") {
		if cached, hit := h.cache.Get(agentID.String(), session.ID.String()); hit {
			return c.JSON(fiber.Map{
				"session_id":          session.ID,
				"messages":            cached.Messages,
				"projects_by_message": cached.ProjectsByMessage,
				"cached":              true,
			})
		}
	}

	var rows []models.ChatRow
	if err := h.db.Where("session_id = ?", session.ID).Order("created_at ASC").Find(&rows).Error; err != nil {
		// Degrade to the cache rather than a blank screen.
		if cached, hit := h.cache.Get(agentID.String(), session.ID.String()); hit {
			return c.JSON(fiber.Map{
				"session_id":          session.ID,
				"messages":            cached.Messages,
				"projects_by_message": cached.ProjectsByMessage,
				"cached":              true,
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to load history",
		})
	}

	history := chatbot.NormalizeHistory(toRawRows(rows))
	h.cache.Set(agentID.String(), session.ID.String(), history)

	return c.JSON(fiber.Map{
		"session_id":          session.ID,
		"messages":            history.Messages,
		"projects_by_message": history.ProjectsByMessage,
		"cached":              false,
	})
}

// ─── Sessions ───────────────────────────────────────────────────────────────

func (h *ChatbotHandler) ListSessions(c *fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	perPage, _ := strconv.Atoi(c.Query("per_page", "20"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 50 {
		perPage = 20
	}

	agentID := middleware.UserID(c)

	var sessions []models.ChatSession
	var total int64
	h.db.Model(&models.ChatSession{}).Where("agent_id = ?", agentID).Count(&total)
	h.db.Where("agent_id = ?", agentID).
		Order("updated_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&sessions)

	return c.JSON(fiber.Map{
		"sessions": sessions,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (h *ChatbotHandler) RenameSession(c *fiber.Ctx) error {
	agentID := middleware.UserID(c)
	session, ok := h.ownedSession(c, agentID)
	if !ok {
		return nil
	}

	var req struct {
		Title string `json:"title"`
	}
	if err := c.BodyParser(&req); err != nil || req.Title == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Title is required",
		})
	}

	if err := h.db.Model(&session).Update("title", truncate(req.Title, 100)).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": "Failed to rename session",
		})
	}
	return c.JSON(fiber.Map{"message": "Session renamed"})
}

func (h *ChatbotHandler) DeleteSession(c *fiber.Ctx) error {
	agentID := middleware.UserID(c)
	session, ok := h.ownedSession(c, agentID)
	if !ok {
		return nil
	}

	h.db.Delete(&models.ChatRow{}, "session_id = ?", session.ID)
	h.db.Delete(&session)
	h.cache.Invalidate(agentID.String(), session.ID.String())

	return c.JSON(fiber.Map{"message": "Session deleted"})
}

// DeleteRow removes one stored chat row from a session.
func (h *ChatbotHandler) DeleteRow(c *fiber.Ctx) error {
	agentID := middleware.UserID(c)
	session, ok := h.ownedSession(c, agentID)
	if !ok {
		return nil
	}

	rowID, err := uuid.Parse(c.Params("rowID"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid row ID",
		})
	}

	res := h.db.Delete(&models.ChatRow{}, "id = ? AND session_id = ?", rowID, session.ID)
	if res.RowsAffected == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Message not found",
		})
	}
	h.cache.Invalidate(agentID.String(), session.ID.String())

	return c.JSON(fiber.Map{"message": "Message deleted"})
}

// ownedSession resolves :id to a session owned by the caller, writing
// the error response itself when the lookup fails.
func (h *ChatbotHandler) ownedSession(c *fiber.Ctx, agentID uuid.UUID) (models.ChatSession, bool) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Invalid session ID",
		})
		return models.ChatSession{}, false
	}

	var session models.ChatSession
	if err := h.db.First(&session, "id = ? AND agent_id = ?", id, agentID).Error; err != nil {
		c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   true,
			"message": "Session not found",
		})
		return models.ChatSession{}, false
	}
	return session, true
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
