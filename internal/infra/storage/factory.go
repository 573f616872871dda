package storage

import (
	"fmt"
)

// NewStorage creates a new storage instance based on the provided configuration
func NewStorage(config StorageConfig) (JournalStorage, error) {
	switch config.Type {
	case "", "memory":
		return NewMemoryStorage(config.MaxEntries), nil
	case "jsonl":
		return NewJSONLStorage(config.JSONL)
	case "sqlite":
		return NewSQLiteStorage(config.SQLite)
	case "postgres":
		return NewPostgresStorage(config.Postgres)
	case "redis":
		return NewRedisStorage(config.Redis, config.MaxEntries)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", config.Type)
	}
}
