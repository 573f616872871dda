package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domain "github.com/inference-gateway/operator/internal/domain"
	migrations "github.com/inference-gateway/operator/internal/infra/storage/migrations"
	_ "modernc.org/sqlite"
)

// SQLiteStorage implements JournalStorage using SQLite
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens the database file and applies pending migrations
func NewSQLiteStorage(config SQLiteConfig) (*SQLiteStorage, error) {
	if config.Path == "" {
		return nil, fmt.Errorf("sqlite storage path is required")
	}
	dir := filepath.Dir(config.Path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", config.Path+"?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(30000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := migrations.NewMigrationRunner(db, "sqlite").ApplyMigrations(ctx, migrations.GetSQLiteMigrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate SQLite database: %w", err)
	}

	return &SQLiteStorage{db: db, path: config.Path}, nil
}

// Append records a handled command
func (s *SQLiteStorage) Append(ctx context.Context, entry domain.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (id, command, query, success, message, status, duration_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Command, entry.Query, entry.Success, entry.Message, entry.Status,
		int64(entry.Duration), entry.Time.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first
func (s *SQLiteStorage) List(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, query, success, message, status, duration_ns, created_at
		FROM journal ORDER BY created_at DESC, rowid DESC LIMIT ?`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		var (
			entry    domain.JournalEntry
			duration int64
			created  int64
		)
		if err := rows.Scan(&entry.ID, &entry.Command, &entry.Query, &entry.Success,
			&entry.Message, &entry.Status, &duration, &created); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entry.Duration = time.Duration(duration)
		entry.Time = time.Unix(0, created)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveTimestamps upserts the single timestamps row
func (s *SQLiteStorage) SaveTimestamps(ctx context.Context, ts domain.Timestamps) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capture_timestamps (id, screenshot, xml) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET screenshot = excluded.screenshot, xml = excluded.xml`,
		ts.Screenshot, ts.XML)
	if err != nil {
		return fmt.Errorf("failed to save timestamps: %w", err)
	}
	return nil
}

// LoadTimestamps reads the timestamps row, zero when absent
func (s *SQLiteStorage) LoadTimestamps(ctx context.Context) (domain.Timestamps, error) {
	var ts domain.Timestamps
	err := s.db.QueryRowContext(ctx, "SELECT screenshot, xml FROM capture_timestamps WHERE id = 1").
		Scan(&ts.Screenshot, &ts.XML)
	if err == sql.ErrNoRows {
		return domain.Timestamps{}, nil
	}
	if err != nil {
		return domain.Timestamps{}, fmt.Errorf("failed to load timestamps: %w", err)
	}
	return ts, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health checks if the database is reachable
func (s *SQLiteStorage) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
