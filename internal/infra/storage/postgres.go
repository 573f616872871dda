package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	domain "github.com/inference-gateway/operator/internal/domain"
	migrations "github.com/inference-gateway/operator/internal/infra/storage/migrations"
	_ "github.com/lib/pq"
)

// PostgresStorage implements JournalStorage using PostgreSQL
type PostgresStorage struct {
	db *sql.DB
}

func postgresDSN(config PostgresConfig) string {
	sslMode := config.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.Username, config.Password, config.Database, sslMode)
}

// NewPostgresStorage connects, pings and migrates the journal schema
func NewPostgresStorage(config PostgresConfig) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", postgresDSN(config))
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("PostgreSQL connection test failed: %w\n\n"+
			"Failed to connect to PostgreSQL. Verify:\n"+
			"  - PostgreSQL server is running at %s:%d\n"+
			"  - Database '%s' exists\n"+
			"  - User '%s' has proper permissions", err, config.Host, config.Port, config.Database, config.Username)
	}

	if _, err := migrations.NewMigrationRunner(db, "postgres").ApplyMigrations(ctx, migrations.GetPostgresMigrations()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to migrate PostgreSQL database: %w", err)
	}

	return &PostgresStorage{db: db}, nil
}

// Append records a handled command
func (s *PostgresStorage) Append(ctx context.Context, entry domain.JournalEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (id, command, query, success, message, status, duration_ns, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, entry.Command, entry.Query, entry.Success, entry.Message, entry.Status,
		int64(entry.Duration), entry.Time.UTC())
	if err != nil {
		return fmt.Errorf("failed to append journal entry: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first
func (s *PostgresStorage) List(ctx context.Context, limit int) ([]domain.JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, command, query, success, message, status, duration_ns, created_at
		FROM journal ORDER BY created_at DESC, seq DESC LIMIT $1`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []domain.JournalEntry{}
	for rows.Next() {
		var (
			entry    domain.JournalEntry
			duration int64
		)
		if err := rows.Scan(&entry.ID, &entry.Command, &entry.Query, &entry.Success,
			&entry.Message, &entry.Status, &duration, &entry.Time); err != nil {
			return nil, fmt.Errorf("failed to scan journal entry: %w", err)
		}
		entry.Duration = time.Duration(duration)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SaveTimestamps upserts the single timestamps row
func (s *PostgresStorage) SaveTimestamps(ctx context.Context, ts domain.Timestamps) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO capture_timestamps (id, screenshot, xml) VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET screenshot = EXCLUDED.screenshot, xml = EXCLUDED.xml`,
		ts.Screenshot, ts.XML)
	if err != nil {
		return fmt.Errorf("failed to save timestamps: %w", err)
	}
	return nil
}

// LoadTimestamps reads the timestamps row, zero when absent
func (s *PostgresStorage) LoadTimestamps(ctx context.Context) (domain.Timestamps, error) {
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
func (s *PostgresStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Health checks if the database is reachable and functional
func (s *PostgresStorage) Health(ctx context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	if err := s.db.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("database query test failed: %w", err)
	}
	return nil
}
