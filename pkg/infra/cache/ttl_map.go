package cache

import (
	"strings"
	"sync"
	"time"
)

// TTLEntry represents an entry in TTLMap
type TTLEntry struct {
	Value     []byte
	ExpiresAt time.Time
}

func (e *TTLEntry) expired(now time.Time) bool {
	return !e.ExpiresAt.IsZero() && now.After(e.ExpiresAt)
}

// TTLMap is a thread-safe map with a TTL for each entry. It backs both the
// in-process tier of ResultCache and the memory Store.
type TTLMap struct {
	data map[string]*TTLEntry
	mu   sync.RWMutex
	ttl  time.Duration
	now  func() time.Time
}

type TTLMapOption func(*TTLMap)

func WithClock(now func() time.Time) TTLMapOption {
	return func(m *TTLMap) {
		m.now = now
	}
}

// NewTTLMap creates a new TTLMap; a zero ttl means entries never expire.
func NewTTLMap(ttl time.Duration, opts ...TTLMapOption) *TTLMap {
	m := &TTLMap{
		data: make(map[string]*TTLEntry),
		ttl:  ttl,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Get retrieves a value from the TTLMap if it hasn't expired
func (m *TTLMap) Get(key string) ([]byte, bool) {
	value, _, ok := m.GetWithTTL(key)
	return value, ok
}

// GetWithTTL also reports how long the entry has left; zero means it never
// expires.
func (m *TTLMap) GetWithTTL(key string) ([]byte, time.Duration, bool) {
	m.mu.RLock()
	entry, exists := m.data[key]
	if !exists {
		m.mu.RUnlock()
		return nil, 0, false
	}
	now := m.now()
	isExpired := entry.expired(now)
	value, expiresAt := entry.Value, entry.ExpiresAt
	m.mu.RUnlock()

	if isExpired {
		m.mu.Lock()
		if current, ok := m.data[key]; ok && current.expired(now) {
			delete(m.data, key)
		}
		m.mu.Unlock()
		return nil, 0, false
	}

	var remaining time.Duration
	if !expiresAt.IsZero() {
		remaining = expiresAt.Sub(now)
	}
	return value, remaining, true
}

func (m *TTLMap) Set(key string, value []byte) {
	m.SetWithTTL(key, value, m.ttl)
}

func (m *TTLMap) SetWithTTL(key string, value []byte, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &TTLEntry{Value: value}
	if ttl > 0 {
		entry.ExpiresAt = m.now().Add(ttl)
	}
	m.data[key] = entry
}

func (m *TTLMap) Delete(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
}

// DeletePrefix removes every key starting with prefix and returns how many were dropped.
func (m *TTLMap) DeletePrefix(prefix string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prefix == "" {
		n := len(m.data)
		m.data = make(map[string]*TTLEntry)
		return n
	}
	var n int
	for key := range m.data {
		if strings.HasPrefix(key, prefix) {
			delete(m.data, key)
			n++
		}
	}
	return n
}

func (m *TTLMap) Clear() {
	m.DeletePrefix("")
}

// Len counts live entries.
func (m *TTLMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.now()
	var n int
	for _, entry := range m.data {
		if !entry.expired(now) {
			n++
		}
	}
	return n
}
