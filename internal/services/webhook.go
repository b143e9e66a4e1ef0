package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/nihalvp321/ekarbot-server/internal/chatbot"
	"github.com/nihalvp321/ekarbot-server/internal/config"
)

// WebhookClient forwards agent prompts to the external AI service. Each
// chat mode routes to its own endpoint; the reply shape is not
// contractually fixed, so the raw body is decoded fail-soft and stored
// as-is alongside the bot turn.
type WebhookClient struct {
	cfg    *config.Config
	client *http.Client
}

func NewWebhookClient(cfg *config.Config) *WebhookClient {
	return &WebhookClient{
		cfg: cfg,
		client: &http.Client{
			Timeout: time.Duration(cfg.WebhookTimeoutSeconds) * time.Second,
		},
	}
}

type WebhookRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
	AgentID   string `json:"agent_id"`
	Mode      string `json:"mode"`
}

// Send posts the prompt to the mode's endpoint and returns the decoded
// payload plus the exact bytes received, for persistence.
func (w *WebhookClient) Send(req WebhookRequest) (chatbot.ResponseData, []byte, error) {
	url := w.cfg.WebhookURL(req.Mode)
	if url == "" {
		return chatbot.ResponseData{}, nil, fmt.Errorf("no webhook configured for mode %q", req.Mode)
	}

	body, _ := json.Marshal(req)
	httpReq, err := http.NewRequest("POST", url, bytes.NewReader(body))
	if err != nil {
		return chatbot.ResponseData{}, nil, fmt.Errorf("failed to build webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(httpReq)
	if err != nil {
		slog.Error("Chatbot webhook call failed", "mode", req.Mode, "error", err)
		return chatbot.ResponseData{}, nil, fmt.Errorf("webhook unreachable: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode >= 500 {
		slog.Error("Chatbot webhook returned server error", "mode", req.Mode, "status", resp.StatusCode)
		return chatbot.ResponseData{}, nil, fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return chatbot.DecodeResponseData(respBody), respBody, nil
}
