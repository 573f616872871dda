package migrations

// GetPostgresMigrations returns all PostgreSQL migrations in order
func GetPostgresMigrations() []Migration {
	return []Migration{
		{
			Version:     "001",
			Description: "Command journal",
			UpSQL: `
				CREATE TABLE IF NOT EXISTS journal (
					seq BIGSERIAL PRIMARY KEY,
					id VARCHAR(64) NOT NULL UNIQUE,
					command VARCHAR(255) NOT NULL,
					query TEXT NOT NULL DEFAULT '',
					success BOOLEAN NOT NULL,
					message TEXT NOT NULL,
					status INTEGER NOT NULL,
					duration_ns BIGINT NOT NULL,
					created_at TIMESTAMP WITH TIME ZONE NOT NULL
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
					id SMALLINT PRIMARY KEY CHECK (id = 1),
					screenshot BIGINT NOT NULL DEFAULT 0,
					xml BIGINT NOT NULL DEFAULT 0
				);
			`,
			DownSQL: `DROP TABLE IF EXISTS capture_timestamps;`,
		},
	}
}
