package store

import (
	"context"
	"sync"
	"time"
)

// Memory is an in-process Store. Used when no Redis URL is configured and in
// tests.
type Memory struct {
	mu     sync.RWMutex
	values map[string]memoryValue
	lists  map[string][]string
}

type memoryValue struct {
	value     string
	expiresAt time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]memoryValue),
		lists:  make(map[string][]string),
	}
}

// Get returns the value for key, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	if !v.expiresAt.IsZero() && time.Now().After(v.expiresAt) {
		return "", ErrNotFound
	}
	return v.value, nil
}

// Set stores value under key. A zero ttl means no expiry.
func (m *Memory) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := memoryValue{value: value}
	if ttl > 0 {
		v.expiresAt = time.Now().Add(ttl)
	}
	m.values[key] = v
	return nil
}

// Delete removes key.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// PushTrim prepends value to the list at key, keeping at most maxLen entries.
func (m *Memory) PushTrim(ctx context.Context, key, value string, maxLen int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := append([]string{value}, m.lists[key]...)
	if maxLen > 0 && len(list) > maxLen {
		list = list[:maxLen]
	}
	m.lists[key] = list
	return nil
}

// List returns a copy of the list at key, newest first.
func (m *Memory) List(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.lists[key]))
	copy(out, m.lists[key])
	return out
}

// Close implements Store.
func (m *Memory) Close() error { return nil }
