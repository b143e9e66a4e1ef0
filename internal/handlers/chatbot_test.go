package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nihalvp321/ekarbot-server/internal/config"
	"github.com/nihalvp321/ekarbot-server/internal/models"
	"github.com/nihalvp321/ekarbot-server/internal/services"
)

func chatTestApp(t *testing.T, webhookURL string) (*fiber.App, *gorm.DB, uuid.UUID) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Discard,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ChatSession{}, &models.ChatRow{}))

	cfg := &config.Config{
		WebhookEkarBotAI:      webhookURL,
		WebhookHybrid:         webhookURL,
		WebhookTimeoutSeconds: 2,
	}
	handler := NewChatbotHandler(db, services.NewWebhookClient(cfg),
		services.NewHistoryCache(services.NewMemoryKV()))

	agentID := uuid.New()
	app := fiber.New()
	app.Post("/chatbot/chat", func(c *fiber.Ctx) error {
		c.Locals("user_id", agentID)
		return c.Next()
	}, handler.Chat)

	return app, db, agentID
}

func postChat(t *testing.T, app *fiber.App, body map[string]string) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest("POST", "/chatbot/chat", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, 5000)
	require.NoError(t, err)
	return resp
}

func TestChatRollsBackUserRowWhenWebhookFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	app, db, _ := chatTestApp(t, srv.URL)

	resp := postChat(t, app, map[string]string{"message": "villas in dubai"})
	assert.Equal(t, fiber.StatusBadGateway, resp.StatusCode)

	// The optimistic user turn must not survive a failed round trip.
	var rows int64
	db.Model(&models.ChatRow{}).Count(&rows)
	assert.Zero(t, rows)
}

func TestChatPersistsBothTurnsOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":"Found 1 project","projects":[{"project_id":"EKB-1","project_title":"Marina Heights","similarity_percentage":0.87}]}`))
	}))
	defer srv.Close()

	app, db, agentID := chatTestApp(t, srv.URL)

	resp := postChat(t, app, map[string]string{"message": "villas in dubai"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		SessionID string `json:"session_id"`
		Messages  []struct {
			Role string `json:"role"`
			Text string `json:"text"`
		} `json:"messages"`
		ProjectsByMessage map[string][]struct {
			ProjectID            string `json:"projectId"`
			SimilarityPercentage int    `json:"similarityPercentage"`
		} `json:"projects_by_message"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	require.Len(t, body.Messages, 2)
	assert.Equal(t, "user", body.Messages[0].Role)
	assert.Equal(t, "villas in dubai", body.Messages[0].Text)
	assert.Equal(t, "bot", body.Messages[1].Role)
	assert.Equal(t, "Found 1 project", body.Messages[1].Text)

	require.Len(t, body.ProjectsByMessage, 1)
	for _, cards := range body.ProjectsByMessage {
		require.Len(t, cards, 1)
		assert.Equal(t, "EKB-1", cards[0].ProjectID)
		assert.Equal(t, 87, cards[0].SimilarityPercentage)
	}

	var userRow, botRow models.ChatRow
	require.NoError(t, db.First(&userRow, "message_type = ?", "user").Error)
	require.NoError(t, db.First(&botRow, "message_type = ?", "bot").Error)
	assert.Equal(t, "villas in dubai", userRow.MessageContent)
	assert.JSONEq(t,
		`{"content":"Found 1 project","projects":[{"project_id":"EKB-1","project_title":"Marina Heights","similarity_percentage":0.87}]}`,
		string(botRow.ResponseData))

	var session models.ChatSession
	require.NoError(t, db.First(&session, "agent_id = ?", agentID).Error)
	assert.Equal(t, "villas in dubai", session.Title)
}
