package services

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/nihalvp321/ekarbot-server/internal/chatbot"
)

// KV is the key-value store behind the history cache. Kept as an
// interface so the cache is testable apart from any concrete store.
type KV interface {
	Get(key string) ([]byte, bool)
	Set(key string, val []byte)
	Delete(key string)
}

// MemoryKV is the in-process KV used in production. Sessions are small
// and rebuilt on every fetch, so nothing here needs eviction.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Get(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryKV) Set(key string, val []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = val
}

func (m *MemoryKV) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// HistoryCache stores the last normalized history per (agent, session)
// so session switches paint instantly while the fresh fetch runs. The
// cached blob is always overwritten whole, never patched.
type HistoryCache struct {
	kv KV
}

func NewHistoryCache(kv KV) *HistoryCache {
	return &HistoryCache{kv: kv}
}

func cacheKey(agentID, sessionID string) string {
	return fmt.Sprintf("chatbot:%s:%s", agentID, sessionID)
}

func (c *HistoryCache) Get(agentID, sessionID string) (chatbot.History, bool) {
	b, ok := c.kv.Get(cacheKey(agentID, sessionID))
	if !ok {
		return chatbot.History{}, false
	}
	var h chatbot.History
	if err := json.Unmarshal(b, &h); err != nil {
		c.kv.Delete(cacheKey(agentID, sessionID))
		return chatbot.History{}, false
	}
	return h, true
}

func (c *HistoryCache) Set(agentID, sessionID string, h chatbot.History) {
	b, err := json.Marshal(h)
	if err != nil {
		return
	}
	c.kv.Set(cacheKey(agentID, sessionID), b)
}

func (c *HistoryCache) Invalidate(agentID, sessionID string) {
	c.kv.Delete(cacheKey(agentID, sessionID))
}
