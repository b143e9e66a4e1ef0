package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalvp321/ekarbot-server/internal/config"
)

func webhookClientFor(url string) *WebhookClient {
	return NewWebhookClient(&config.Config{
		WebhookEkarBotAI:      url,
		WebhookHybrid:         url,
		WebhookTimeoutSeconds: 2,
	})
}

func TestSendDecodesStructuredReply(t *testing.T) {
	var got WebhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"content":"Found 2 projects","projects":[{"project_id":"EKB-1"}]}`))
	}))
	defer srv.Close()

	data, raw, err := webhookClientFor(srv.URL).Send(WebhookRequest{
		Message:   "villas in dubai",
		SessionID: "s1",
		AgentID:   "a1",
		Mode:      "ekarbot-ai",
	})
	require.NoError(t, err)
	assert.Equal(t, "villas in dubai", got.Message)
	assert.Equal(t, "ekarbot-ai", got.Mode)
	require.NotNil(t, data.Structured)
	assert.Equal(t, "Found 2 projects", data.Structured["content"])
	assert.JSONEq(t, string(raw), `{"content":"Found 2 projects","projects":[{"project_id":"EKB-1"}]}`)
}

func TestSendKeepsNonJSONReplyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text reply"))
	}))
	defer srv.Close()

	data, raw, err := webhookClientFor(srv.URL).Send(WebhookRequest{Mode: "ekarbot-ai"})
	require.NoError(t, err)
	assert.Nil(t, data.Structured)
	assert.Equal(t, "plain text reply", data.Raw)
	assert.Equal(t, "plain text reply", string(raw))
}

func TestSendErrors(t *testing.T) {
	t.Run("no endpoint configured", func(t *testing.T) {
		client := NewWebhookClient(&config.Config{WebhookTimeoutSeconds: 1})
		_, _, err := client.Send(WebhookRequest{Mode: "ekarbot-ai"})
		assert.Error(t, err)
	})

	t.Run("upstream 500", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, _, err := webhookClientFor(srv.URL).Send(WebhookRequest{Mode: "ekarbot-ai"})
		assert.Error(t, err)
	})

	t.Run("upstream 4xx passes through", func(t *testing.T) {
		// Client errors still carry a usable body, so they are not fatal.
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			w.Write([]byte(`{"content":"I could not understand that"}`))
		}))
		defer srv.Close()

		data, _, err := webhookClientFor(srv.URL).Send(WebhookRequest{Mode: "ekarbot-ai"})
		require.NoError(t, err)
		require.NotNil(t, data.Structured)
		assert.Equal(t, "I could not understand that", data.Structured["content"])
	})
}
