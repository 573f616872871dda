package storage

import (
	"context"
	"sync"

	domain "github.com/inference-gateway/operator/internal/domain"
)

// DefaultMaxEntries bounds the in-memory journal when no limit is configured
const DefaultMaxEntries = 1000

// MemoryStorage implements JournalStorage in process memory
// The journal is a ring: once full, the oldest entry is dropped
type MemoryStorage struct {
	entries    []domain.JournalEntry
	maxEntries int
	timestamps domain.Timestamps
	closed     bool
	mutex      sync.RWMutex
}

// NewMemoryStorage creates a new in-memory storage instance
func NewMemoryStorage(maxEntries int) *MemoryStorage {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryStorage{maxEntries: maxEntries}
}

// Append records a handled command
func (m *MemoryStorage) Append(_ context.Context, entry domain.JournalEntry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.entries = append(m.entries, entry)
	if over := len(m.entries) - m.maxEntries; over > 0 {
		m.entries = append(m.entries[:0:0], m.entries[over:]...)
	}
	return nil
}

// List returns up to limit entries, newest first
func (m *MemoryStorage) List(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return nil, ErrClosed
	}
	limit = clampLimit(limit)
	out := make([]domain.JournalEntry, 0, min(limit, len(m.entries)))
	for i := len(m.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// SaveTimestamps replaces the stored capture timestamps
func (m *MemoryStorage) SaveTimestamps(_ context.Context, ts domain.Timestamps) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if m.closed {
		return ErrClosed
	}
	m.timestamps = ts
	return nil
}

// LoadTimestamps returns the stored capture timestamps
func (m *MemoryStorage) LoadTimestamps(context.Context) (domain.Timestamps, error) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.closed {
		return domain.Timestamps{}, ErrClosed
	}
	return m.timestamps, nil
}

// Close marks the store closed
func (m *MemoryStorage) Close() error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.closed = true
	return nil
}

// Health always succeeds while the store is open
func (m *MemoryStorage) Health(context.Context) error {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	if m.closed {
		return ErrClosed
	}
	return nil
}
