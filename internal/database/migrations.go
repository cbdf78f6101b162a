package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

const createRunsTable = `
CREATE TABLE IF NOT EXISTS runs (
	id UUID PRIMARY KEY,
	title VARCHAR(255) NOT NULL,
	report_name VARCHAR(255) NOT NULL,
	browser VARCHAR(64) NOT NULL DEFAULT '',
	os VARCHAR(64) NOT NULL DEFAULT '',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC);
`

const createTestEntriesTable = `
CREATE TABLE IF NOT EXISTS test_entries (
	id UUID PRIMARY KEY,
	run_id UUID NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	name VARCHAR(255) NOT NULL,
	status VARCHAR(16) NOT NULL,
	cause TEXT NOT NULL DEFAULT '',
	logs JSONB NOT NULL DEFAULT '[]',
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ,
	UNIQUE (run_id, position)
);

CREATE INDEX IF NOT EXISTS idx_test_entries_run_id ON test_entries(run_id);
CREATE INDEX IF NOT EXISTS idx_test_entries_status ON test_entries(status);
`

// RunMigrations creates the run history tables
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("database connection not initialized")
	}

	if _, err := db.Exec(createRunsTable); err != nil {
		return fmt.Errorf("failed to create runs table: %w", err)
	}
	if _, err := db.Exec(createTestEntriesTable); err != nil {
		return fmt.Errorf("failed to create test_entries table: %w", err)
	}

	log.Info().Msg("Database migrations completed successfully")
	return nil
}
