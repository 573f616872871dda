package storage

import (
	"context"
	"errors"

	domain "github.com/inference-gateway/operator/internal/domain"
)

// DefaultHistoryLimit caps List when the caller passes a non-positive limit
const DefaultHistoryLimit = 100

// ErrClosed is returned by operations on a closed store
var ErrClosed = errors.New("storage is closed")

// JournalStorage persists the command journal and the capture timestamps
type JournalStorage interface {
	// Append records a handled command
	Append(ctx context.Context, entry domain.JournalEntry) error

	// List returns up to limit entries, newest first
	List(ctx context.Context, limit int) ([]domain.JournalEntry, error)

	// SaveTimestamps replaces the stored capture timestamps
	SaveTimestamps(ctx context.Context, ts domain.Timestamps) error

	// LoadTimestamps returns the stored capture timestamps, zero when none were saved
	LoadTimestamps(ctx context.Context) (domain.Timestamps, error)

	// Close closes the storage connection
	Close() error

	// Health checks if the storage is healthy and reachable
	Health(ctx context.Context) error
}

// StorageConfig contains configuration for storage backends
type StorageConfig struct {
	// Type specifies the storage backend type (memory, jsonl, sqlite, postgres, redis)
	Type string `json:"type" yaml:"type" mapstructure:"type"`

	// MaxEntries bounds the journal kept by the memory and redis backends
	MaxEntries int `json:"max_entries,omitempty" yaml:"max_entries,omitempty" mapstructure:"max_entries"`

	JSONL    JSONLConfig    `json:"jsonl,omitempty" yaml:"jsonl,omitempty" mapstructure:"jsonl"`
	SQLite   SQLiteConfig   `json:"sqlite,omitempty" yaml:"sqlite,omitempty" mapstructure:"sqlite"`
	Postgres PostgresConfig `json:"postgres,omitempty" yaml:"postgres,omitempty" mapstructure:"postgres"`
	Redis    RedisConfig    `json:"redis,omitempty" yaml:"redis,omitempty" mapstructure:"redis"`
}

// JSONLConfig points at the directory holding journal.jsonl and timestamps.json
type JSONLConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// SQLiteConfig contains SQLite-specific configuration
type SQLiteConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// PostgresConfig contains Postgres-specific configuration
type PostgresConfig struct {
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Database string `json:"database" yaml:"database" mapstructure:"database"`
	Username string `json:"username" yaml:"username" mapstructure:"username"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	SSLMode  string `json:"ssl_mode" yaml:"ssl_mode" mapstructure:"ssl_mode"`
}

// RedisConfig contains Redis-specific configuration
type RedisConfig struct {
	Host     string `json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `json:"port" yaml:"port" mapstructure:"port"`
	Database int    `json:"database" yaml:"database" mapstructure:"database"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	TTL      int    `json:"ttl,omitempty" yaml:"ttl,omitempty" mapstructure:"ttl"` // seconds, 0 keeps entries forever
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultHistoryLimit
	}
	return limit
}
