package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dfryer1193/alttext/shared/db"
	"github.com/rs/zerolog/log"
)

type migration struct {
	version int
	name    string
	up      string
}

// migrations are applied in order; versions must increase by one
var migrations = []migration{
	{
		version: 1,
		name:    "create_images_table",
		up: `
			CREATE TABLE IF NOT EXISTS images (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				filename TEXT NOT NULL,
				alt_text TEXT,
				mime_type TEXT NOT NULL,
				title TEXT NOT NULL DEFAULT '',
				caption TEXT NOT NULL DEFAULT '',
				description TEXT NOT NULL DEFAULT '',
				author_id TEXT NOT NULL DEFAULT '',
				updated_at TIMESTAMP,
				created_at TIMESTAMP NOT NULL
			);

			CREATE INDEX IF NOT EXISTS idx_images_mime_type
			ON images(mime_type);
		`,
	},
	{
		version: 2,
		name:    "index_images_missing_alt",
		up: `
			CREATE INDEX IF NOT EXISTS idx_images_missing_alt
			ON images(id)
			WHERE alt_text IS NULL OR TRIM(alt_text, char(32, 9, 10, 11, 12, 13)) = '';
		`,
	},
}

const createMigrationsTable = `
	CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)
`

// runMigrations applies every migration newer than the recorded schema version,
// each in its own transaction together with its schema_migrations row
func runMigrations(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("failed to create schema_migrations table: %w", err)
	}

	var current int
	err := conn.QueryRowContext(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to get current schema version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}

		err := db.RunInTransaction(ctx, conn, func(txCtx context.Context) error {
			exec := db.GetExecutor(txCtx, conn)
			if _, err := exec.ExecContext(txCtx, m.up); err != nil {
				return fmt.Errorf("failed to execute migration %d (%s): %w", m.version, m.name, err)
			}
			if _, err := exec.ExecContext(txCtx, "INSERT INTO schema_migrations (version, name) VALUES (?, ?)", m.version, m.name); err != nil {
				return fmt.Errorf("failed to record migration %d: %w", m.version, err)
			}
			return nil
		})
		if err != nil {
			return err
		}

		log.Info().Int("version", m.version).Str("name", m.name).Msg("Applied schema migration")
	}

	return nil
}
