package migrations

// GetSQLiteMigrations returns all SQLite migrations in order
func GetSQLiteMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "Command journal",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS journal (
					id TEXT PRIMARY KEY,
					command TEXT NOT NULL,
					query TEXT NOT NULL DEFAULT '',
					success BOOLEAN NOT NULL,
					message TEXT NOT NULL,
					status INTEGER NOT NULL,
					duration_ns INTEGER NOT NULL,
					created_at INTEGER NOT NULL
				);

				CREATE INDEX IF NOT EXISTS idx_journal_created_at ON journal(created_at DESC);
			`,
			DownSQL: `
				DROP INDEX IF EXISTS idx_journal_created_at;
				DROP TABLE IF EXISTS journal;
			`,
		},
		{
			Version:     "002",
			Description: "Capture timestamps",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS capture_timestamps (
					id INTEGER PRIMARY KEY CHECK (id = 1),
					screenshot INTEGER NOT NULL DEFAULT 0,
					xml INTEGER NOT NULL DEFAULT 0
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS capture_timestamps;`,
		},
	}
}
