package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	domain "github.com/inference-gateway/operator/internal/domain"
	logger "github.com/inference-gateway/operator/internal/logger"
)

const (
	journalFile    = "journal.jsonl"
	timestampsFile = "timestamps.json"
)

// JSONLStorage implements JournalStorage with one JSON object per line
type JSONLStorage struct {
	basePath string
	mu       sync.RWMutex
	closed   bool
}

// NewJSONLStorage creates the journal directory and checks it is writable
func NewJSONLStorage(config JSONLConfig) (*JSONLStorage, error) {
	path := config.Path
	if path == "" {
		return nil, fmt.Errorf("jsonl storage path is required")
	}
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[1:])
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	testFile := filepath.Join(path, ".write_test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return nil, fmt.Errorf("journal directory not writable: %w", err)
	}
	_ = os.Remove(testFile)

	return &JSONLStorage{basePath: path}, nil
}

// Append writes the entry as a single line at the end of the journal
func (s *JSONLStorage) Append(_ context.Context, entry domain.JournalEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal journal entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	f, err := os.OpenFile(filepath.Join(s.basePath, journalFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// List reads the journal and returns the newest entries first
// Lines that fail to decode are skipped
func (s *JSONLStorage) List(_ context.Context, limit int) ([]domain.JournalEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrClosed
	}

	f, err := os.Open(filepath.Join(s.basePath, journalFile))
	if errors.Is(err, os.ErrNotExist) {
		return []domain.JournalEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	defer func() { _ = f.Close() }()

	limit = clampLimit(limit)
	var tail []domain.JournalEntry
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		var entry domain.JournalEntry
		if err := json.Unmarshal(scanner.Bytes(), &entry); err != nil {
			logger.Warn("Skipping malformed journal line", "error", err)
			continue
		}
		tail = append(tail, entry)
		if len(tail) > limit {
			tail = tail[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read journal: %w", err)
	}

	out := make([]domain.JournalEntry, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out, nil
}

// SaveTimestamps rewrites timestamps.json through a temporary file
func (s *JSONLStorage) SaveTimestamps(_ context.Context, ts domain.Timestamps) error {
	data, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("failed to marshal timestamps: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	target := filepath.Join(s.basePath, timestampsFile)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write timestamps: %w", err)
	}
	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace timestamps: %w", err)
	}
	return nil
}

// LoadTimestamps reads timestamps.json
func (s *JSONLStorage) LoadTimestamps(context.Context) (domain.Timestamps, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return domain.Timestamps{}, ErrClosed
	}

	var ts domain.Timestamps
	data, err := os.ReadFile(filepath.Join(s.basePath, timestampsFile))
	if errors.Is(err, os.ErrNotExist) {
		return ts, nil
	}
	if err != nil {
		return ts, fmt.Errorf("failed to read timestamps: %w", err)
	}
	if err := json.Unmarshal(data, &ts); err != nil {
		return domain.Timestamps{}, fmt.Errorf("failed to decode timestamps: %w", err)
	}
	return ts, nil
}

// Close marks the store closed; files are opened per call
func (s *JSONLStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// Health checks the journal directory is still reachable
func (s *JSONLStorage) Health(context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	if _, err := os.Stat(s.basePath); err != nil {
		return fmt.Errorf("journal directory unavailable: %w", err)
	}
	return nil
}
