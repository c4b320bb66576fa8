package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemoryOption applies a configuration option to the MemoryBackend.
type MemoryOption func(*MemoryBackend)

// WithQuota caps the total stored bytes across all keys. Zero is unlimited.
func WithQuota(bytes int) MemoryOption {
	return func(m *MemoryBackend) {
		if bytes > 0 {
			m.quota = bytes
		}
	}
}

// MemoryBackend keeps documents in process memory. It can simulate the
// failures of a browser-style local store for tests.
type MemoryBackend struct {
	mu          sync.RWMutex
	data        map[string][]byte
	quota       int
	unavailable bool
	writes      int
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend(opts ...MemoryOption) *MemoryBackend {
	m := &MemoryBackend{data: make(map[string][]byte)}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetUnavailable makes every subsequent operation fail with ErrUnavailable
// until switched back.
func (m *MemoryBackend) SetUnavailable(down bool) {
	m.mu.Lock()
	m.unavailable = down
	m.mu.Unlock()
}

// Writes returns the number of successful Set calls.
func (m *MemoryBackend) Writes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}

func (m *MemoryBackend) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.unavailable {
		return nil, fmt.Errorf("memory get %q: %w", key, ErrUnavailable)
	}
	v, ok := m.data[key]
	if !ok {
		return nil, fmt.Errorf("memory get %q: %w", key, ErrNotFound)
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (m *MemoryBackend) Set(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return fmt.Errorf("memory set %q: %w", key, ErrUnavailable)
	}
	if m.quota > 0 {
		used := len(value)
		for k, v := range m.data {
			if k != key {
				used += len(v)
			}
		}
		if used > m.quota {
			return fmt.Errorf("memory set %q (%d > %d bytes): %w", key, used, m.quota, ErrQuotaExceeded)
		}
	}
	v := make([]byte, len(value))
	copy(v, value)
	m.data[key] = v
	m.writes++
	return nil
}

func (m *MemoryBackend) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unavailable {
		return fmt.Errorf("memory remove %q: %w", key, ErrUnavailable)
	}
	delete(m.data, key)
	return nil
}
