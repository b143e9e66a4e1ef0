package chatbot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func row(id, msgType, content string, data interface{}) RawRow {
	return RawRow{
		ID:             id,
		MessageType:    msgType,
		MessageContent: content,
		ResponseData:   data,
		ChatMode:       "ekarbot-ai",
		CreatedAt:      time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestNormalizeHistoryModernPair(t *testing.T) {
	rows := []RawRow{
		row("r1", "user", "Show me villas in Dubai", nil),
		row("r2", "bot", "Found 2 matches", map[string]interface{}{
			"projects": []interface{}{
				map[string]interface{}{"project_id": "P1", "similarity_percentage": 0.87},
				map[string]interface{}{"project_id": "P2", "similarity_percentage": 0.52},
			},
		}),
	}

	h := NormalizeHistory(rows)

	require.Len(t, h.Messages, 2)
	assert.Equal(t, "r1-user", h.Messages[0].ID)
	assert.Equal(t, RoleUser, h.Messages[0].Role)
	assert.Equal(t, "Show me villas in Dubai", h.Messages[0].Text)
	assert.Equal(t, "r2-bot", h.Messages[1].ID)
	assert.Equal(t, RoleBot, h.Messages[1].Role)
	assert.Equal(t, "Found 2 matches", h.Messages[1].Text)

	// Cards key off the user row, not the bot row.
	cards, ok := h.ProjectsByMessage["r1"]
	require.True(t, ok, "cards must be keyed by the user row id")
	require.Len(t, cards, 2)
	assert.Equal(t, "P1", cards[0].ProjectID)
	assert.Equal(t, 87, cards[0].Match.SimilarityPercentage)
	assert.Equal(t, "P2", cards[1].ProjectID)
	assert.Equal(t, 52, cards[1].Match.SimilarityPercentage)
	_, botKeyed := h.ProjectsByMessage["r2"]
	assert.False(t, botKeyed)
}

func TestNormalizeHistoryLegacyCombinedRow(t *testing.T) {
	legacy := RawRow{
		ID:          "r9",
		UserMessage: "2 bed apartments in Sharjah",
		BotResponse: "Here are some options",
		ResponseData: map[string]interface{}{
			"projects": []interface{}{
				map[string]interface{}{"id": "P7", "name": "Aljada Heights"},
			},
		},
		CreatedAt: time.Now(),
	}

	h := NormalizeHistory([]RawRow{legacy})

	require.Len(t, h.Messages, 2)
	assert.Equal(t, "r9-user", h.Messages[0].ID)
	assert.Equal(t, "r9-bot", h.Messages[1].ID)
	assert.Equal(t, "2 bed apartments in Sharjah", h.Messages[0].Text)
	assert.Equal(t, "Here are some options", h.Messages[1].Text)

	// Combined rows key their cards off their own id.
	cards := h.ProjectsByMessage["r9"]
	require.Len(t, cards, 1)
	assert.Equal(t, "P7", cards[0].ProjectID)
	assert.Equal(t, "Aljada Heights", cards[0].Title)
}

func TestNormalizeHistoryIdempotent(t *testing.T) {
	rows := []RawRow{
		row("a", "user", "hi", nil),
		row("b", "bot", "hello", map[string]interface{}{
			"listings": []interface{}{
				map[string]interface{}{"project_id": "X", "similarity_percentage": 44},
			},
		}),
	}

	first := NormalizeHistory(rows)
	second := NormalizeHistory(rows)

	assert.Equal(t, first.Messages, second.Messages)
	assert.Equal(t, first.ProjectsByMessage, second.ProjectsByMessage)
}

func TestNormalizeHistoryOrderPreserved(t *testing.T) {
	rows := []RawRow{
		row("1", "user", "q1", nil),
		row("2", "bot", "a1", nil),
		row("3", "user", "q2", nil),
		row("4", "bot", "a2", nil),
	}

	h := NormalizeHistory(rows)

	ids := make([]string, len(h.Messages))
	for i, m := range h.Messages {
		ids[i] = m.ID
	}
	assert.Equal(t, []string{"1-user", "2-bot", "3-user", "4-bot"}, ids)
}

func TestNormalizeHistoryNonJSONResponseData(t *testing.T) {
	rows := []RawRow{
		row("u", "user", "anything off-plan?", nil),
		row("b", "bot", "sure", "plain text, not JSON"),
	}

	var h History
	assert.NotPanics(t, func() { h = NormalizeHistory(rows) })

	require.Len(t, h.Messages, 2)
	assert.Equal(t, "plain text, not JSON", h.Messages[1].ResponseData.Raw)
	assert.Nil(t, h.Messages[1].ResponseData.Structured)
	assert.Empty(t, h.ProjectsByMessage)
}

func TestNormalizeHistoryOrphanBotRow(t *testing.T) {
	rows := []RawRow{
		row("solo", "bot", "unsolicited", map[string]interface{}{
			"projects": []interface{}{
				map[string]interface{}{"project_id": "P1"},
			},
		}),
	}

	h := NormalizeHistory(rows)

	// No preceding user row in the batch: cards fall back to the bot row id.
	require.Len(t, h.Messages, 1)
	assert.Len(t, h.ProjectsByMessage["solo"], 1)
}

func TestNormalizeHistoryLastWriteWinsOnDuplicateBase(t *testing.T) {
	rows := []RawRow{
		row("u1", "user", "villas", nil),
		row("b1", "bot", "page 1", map[string]interface{}{
			"projects": []interface{}{map[string]interface{}{"project_id": "OLD"}},
		}),
		row("b2", "bot", "page 2", map[string]interface{}{
			"projects": []interface{}{map[string]interface{}{"project_id": "NEW"}},
		}),
	}

	h := NormalizeHistory(rows)

	cards := h.ProjectsByMessage["u1"]
	require.Len(t, cards, 1)
	assert.Equal(t, "NEW", cards[0].ProjectID)
}

func TestNormalizeHistoryJSONStringResponseData(t *testing.T) {
	rows := []RawRow{
		row("u", "user", "q", nil),
		row("b", "bot", "a", `{"data":{"projects":[{"projectId":"P3","match":{"similarity_percentage":0.5,"reasoning":"close"}}]}}`),
	}

	h := NormalizeHistory(rows)

	cards := h.ProjectsByMessage["u"]
	require.Len(t, cards, 1)
	assert.Equal(t, "P3", cards[0].ProjectID)
	assert.Equal(t, 50, cards[0].Match.SimilarityPercentage)
	assert.Equal(t, "close", cards[0].Match.Content)
}
