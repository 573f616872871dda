package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"
)

// Migration represents a database migration
type Migration struct {
	// Version is the migration version (e.g., "001", "002")
	Version     string
	Description string
	UpSQL       string
	// DownSQL is optional
	DownSQL string
}

// MigrationStatus reports whether a known migration has been applied
type MigrationStatus struct {
	Version     string
	Description string
	Applied     bool
}

// MigrationRunner applies migrations and tracks them in schema_migrations
type MigrationRunner struct {
	db      *sql.DB
	dialect string // "sqlite" or "postgres"
}

// NewMigrationRunner creates a new migration runner
func NewMigrationRunner(db *sql.DB, dialect string) *MigrationRunner {
	return &MigrationRunner{db: db, dialect: dialect}
}

func (r *MigrationRunner) appliedAtType() (string, error) {
	switch r.dialect {
	case "sqlite":
		return "DATETIME", nil
	case "postgres":
		return "TIMESTAMP WITH TIME ZONE", nil
	default:
		return "", fmt.Errorf("unsupported dialect: %s", r.dialect)
	}
}

func (r *MigrationRunner) recordSQL() string {
	if r.dialect == "postgres" {
		return "INSERT INTO schema_migrations (version, description, applied_at) VALUES ($1, $2, $3)"
	}
	return "INSERT INTO schema_migrations (version, description, applied_at) VALUES (?, ?, ?)"
}

// EnsureMigrationTable creates the migration tracking table if it doesn't exist
func (r *MigrationRunner) EnsureMigrationTable(ctx context.Context) error {
	appliedAt, err := r.appliedAtType()
	if err != nil {
		return err
	}

	createSQL := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at %s NOT NULL
		)`, appliedAt)

	if _, err := r.db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// GetAppliedMigrations returns the set of applied migration versions
func (r *MigrationRunner) GetAppliedMigrations(ctx context.Context) (map[string]bool, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT version FROM schema_migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to query applied migrations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[string]bool)
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("failed to scan migration version: %w", err)
		}
		applied[version] = true
	}
	return applied, rows.Err()
}

// ApplyMigration runs one migration and records it in the same transaction
func (r *MigrationRunner) ApplyMigration(ctx context.Context, migration Migration) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, migration.UpSQL); err != nil {
		return fmt.Errorf("failed to execute migration %s: %w", migration.Version, err)
	}
	if _, err := tx.ExecContext(ctx, r.recordSQL(), migration.Version, migration.Description, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to record migration %s: %w", migration.Version, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration %s: %w", migration.Version, err)
	}
	return nil
}

// ApplyMigrations applies all pending migrations in version order and reports how many ran
func (r *MigrationRunner) ApplyMigrations(ctx context.Context, migrations []Migration) (int, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return 0, err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return 0, err
	}

	pending := sorted(migrations)
	count := 0
	for _, migration := range pending {
		if applied[migration.Version] {
			continue
		}
		if err := r.ApplyMigration(ctx, migration); err != nil {
			return count, fmt.Errorf("migration %s failed: %w", migration.Version, err)
		}
		count++
	}
	return count, nil
}

// GetMigrationStatus lists the known migrations with their applied state
func (r *MigrationRunner) GetMigrationStatus(ctx context.Context, available []Migration) ([]MigrationStatus, error) {
	if err := r.EnsureMigrationTable(ctx); err != nil {
		return nil, err
	}

	applied, err := r.GetAppliedMigrations(ctx)
	if err != nil {
		return nil, err
	}

	status := make([]MigrationStatus, 0, len(available))
	for _, migration := range sorted(available) {
		status = append(status, MigrationStatus{
			Version:     migration.Version,
			Description: migration.Description,
			Applied:     applied[migration.Version],
		})
	}
	return status, nil
}

func sorted(migrations []Migration) []Migration {
	out := append([]Migration(nil), migrations...)
	sort.Slice(out, func(i, j int) bool { return out[i].Version < out[j].Version })
	return out
}
