package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nihalvp321/ekarbot-server/internal/chatbot"
)

func sampleHistory() chatbot.History {
	return chatbot.History{
		Messages: []chatbot.ChatMessage{
			{ID: "r1-user", Role: chatbot.RoleUser, Text: "villas in Dubai", CreatedAt: time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)},
			{ID: "r2-bot", Role: chatbot.RoleBot, Text: "found some", CreatedAt: time.Date(2026, 8, 1, 9, 0, 5, 0, time.UTC)},
		},
		ProjectsByMessage: map[string][]chatbot.ProjectCard{
			"r1": {{ProjectID: "P1", Match: chatbot.ProjectMatch{SimilarityPercentage: 87}}},
		},
	}
}

func TestHistoryCacheRoundTrip(t *testing.T) {
	cache := NewHistoryCache(NewMemoryKV())

	_, ok := cache.Get("agent1", "sess1")
	assert.False(t, ok)

	cache.Set("agent1", "sess1", sampleHistory())

	got, ok := cache.Get("agent1", "sess1")
	require.True(t, ok)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "r1-user", got.Messages[0].ID)
	assert.Equal(t, 87, got.ProjectsByMessage["r1"][0].Match.SimilarityPercentage)
}

func TestHistoryCacheKeyedPerAgentAndSession(t *testing.T) {
	cache := NewHistoryCache(NewMemoryKV())
	cache.Set("agent1", "sess1", sampleHistory())

	_, ok := cache.Get("agent2", "sess1")
	assert.False(t, ok, "another agent must not see the cached session")
	_, ok = cache.Get("agent1", "sess2")
	assert.False(t, ok)
}

func TestHistoryCacheInvalidate(t *testing.T) {
	cache := NewHistoryCache(NewMemoryKV())
	cache.Set("agent1", "sess1", sampleHistory())
	cache.Invalidate("agent1", "sess1")

	_, ok := cache.Get("agent1", "sess1")
	assert.False(t, ok)
}

func TestHistoryCacheCorruptEntryDropped(t *testing.T) {
	kv := NewMemoryKV()
	cache := NewHistoryCache(kv)
	kv.Set("chatbot:agent1:sess1", []byte("{not json"))

	_, ok := cache.Get("agent1", "sess1")
	assert.False(t, ok)
	_, still := kv.Get("chatbot:agent1:sess1")
	assert.False(t, still, "corrupt entries are evicted on read")
}
