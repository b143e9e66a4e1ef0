// Package chatbot reconciles the assistant's stored chat rows into a
// render-ready timeline. The table holds two generations of schema
// (legacy paired rows and modern one-row-per-turn rows) and the webhook
// payloads attached to bot turns vary in shape, so everything here is
// fail-soft: malformed input degrades to defaults instead of erroring.
package chatbot

import (
	"strings"
	"time"
)

// Message roles.
const (
	RoleUser = "user"
	RoleBot  = "bot"
)

// RawRow is one stored chat row as fetched, independent of which schema
// generation wrote it. Callers supply rows ordered by creation time
// ascending; the normalizer preserves that order.
type RawRow struct {
	ID             string
	MessageType    string      // modern schema: "user" or "bot"
	MessageContent string      // modern schema turn text
	UserMessage    string      // legacy schema user turn
	BotResponse    string      // legacy schema bot turn
	ResponseData   interface{} // object, JSON string, or nil
	ChatMode       string
	CreatedAt      time.Time
}

// ChatMessage is one turn in the normalized timeline.
type ChatMessage struct {
	ID           string       `json:"id"`
	Role         string       `json:"role"`
	Text         string       `json:"text"`
	Mode         string       `json:"mode,omitempty"`
	ResponseData ResponseData `json:"response_data"`
	CreatedAt    time.Time    `json:"created_at"`
}

// History is the full normalized result for one session.
type History struct {
	Messages          []ChatMessage            `json:"messages"`
	ProjectsByMessage map[string][]ProjectCard `json:"projects_by_message"`
}

// NormalizeHistory rebuilds the timeline and the per-message project card
// lookup from stored rows. A legacy row contributes both turns; a modern
// row contributes exactly one. Cards extracted from a bot-only row are
// keyed by the preceding user row's id so they render beneath the query
// that produced them. Pure function: same rows in, same history out.
func NormalizeHistory(rows []RawRow) History {
	out := History{
		Messages:          make([]ChatMessage, 0, len(rows)*2),
		ProjectsByMessage: make(map[string][]ProjectCard),
	}

	lastUserID := ""
	for _, row := range rows {
		hasUser := row.MessageType == RoleUser || strings.TrimSpace(row.UserMessage) != ""
		hasBot := row.MessageType == RoleBot || strings.TrimSpace(row.BotResponse) != ""

		if hasUser {
			out.Messages = append(out.Messages, ChatMessage{
				ID:        row.ID + "-user",
				Role:      RoleUser,
				Text:      userText(row),
				Mode:      row.ChatMode,
				CreatedAt: row.CreatedAt,
			})
			lastUserID = row.ID
		}

		if hasBot {
			data := DecodeResponseData(row.ResponseData)
			out.Messages = append(out.Messages, ChatMessage{
				ID:           row.ID + "-bot",
				Role:         RoleBot,
				Text:         botText(row),
				Mode:         row.ChatMode,
				ResponseData: data,
				CreatedAt:    row.CreatedAt,
			})

			if cards := ExtractProjects(data); len(cards) > 0 {
				// Base id: the user turn this answer belongs to. An
				// orphaned bot row keys off its own id.
				key := lastUserID
				if key == "" {
					key = row.ID
				}
				out.ProjectsByMessage[key] = cards
			}
		}
	}

	return out
}

func userText(row RawRow) string {
	if row.UserMessage != "" {
		return row.UserMessage
	}
	return row.MessageContent
}

func botText(row RawRow) string {
	if row.BotResponse != "" {
		return row.BotResponse
	}
	return row.MessageContent
}

// ReplyText probes a live webhook payload for the assistant's display
// text, tolerating the same key drift as the card extraction.
func ReplyText(d ResponseData) string {
	if d.Structured == nil {
		return d.Raw
	}
	for _, k := range []string{"content", "text", "message", "response", "answer"} {
		if s, ok := d.Structured[k].(string); ok && s != "" {
			return s
		}
	}
	// Some shapes nest the text one level down.
	if resp, ok := d.Structured["response"].(map[string]interface{}); ok {
		for _, k := range []string{"content", "text", "message"} {
			if s, ok := resp[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
