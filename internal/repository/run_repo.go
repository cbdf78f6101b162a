package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/keyworddriven/loginharness/internal/models"
	"github.com/lib/pq"
)

// ErrRunNotFound is returned when no run matches the requested ID
var ErrRunNotFound = errors.New("run not found")

// DefaultListLimit caps ListRuns when no positive limit is given
const DefaultListLimit = 20

// RunRepository handles database operations for suite runs
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new run repository with a specific database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{
		db: db,
	}
}

// logRecord is the JSON shape of an entry's log lines
type logRecord struct {
	Status  string    `json:"status"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// SaveRun stores a run and its entries in one transaction. Saving the same
// run again replaces its entries.
func (r *RunRepository) SaveRun(ctx context.Context, run *models.Run) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, title, report_name, browser, os, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET title = EXCLUDED.title, report_name = EXCLUDED.report_name,
		    browser = EXCLUDED.browser, os = EXCLUDED.os,
		    started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at
	`,
		run.ID,
		run.Title,
		run.ReportName,
		run.Browser,
		run.OS,
		run.StartedAt,
		nullTime(run.FinishedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM test_entries WHERE run_id = $1`, run.ID); err != nil {
		return fmt.Errorf("failed to clear run entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO test_entries (id, run_id, position, name, status, cause, logs, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare entry insert: %w", err)
	}
	defer stmt.Close()

	for i, entry := range run.Entries {
		logs, err := encodeLogs(entry.Logs)
		if err != nil {
			return err
		}
		_, err = stmt.ExecContext(ctx,
			entry.ID,
			run.ID,
			i,
			entry.Name,
			string(entry.Status),
			entry.Cause,
			logs,
			entry.StartedAt,
			nullTime(entry.FinishedAt),
		)
		if err != nil {
			return fmt.Errorf("failed to save entry %s: %w", entry.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run with its entries in execution order
func (r *RunRepository) GetRun(ctx context.Context, id string) (*models.Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	run := &models.Run{}
	var finished sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, report_name, browser, os, started_at, finished_at
		FROM runs
		WHERE id = $1
	`, id).Scan(
		&run.ID,
		&run.Title,
		&run.ReportName,
		&run.Browser,
		&run.OS,
		&run.StartedAt,
		&finished,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.FinishedAt = finished.Time

	if err := r.loadEntries(ctx, []*models.Run{run}); err != nil {
		return nil, err
	}
	return run, nil
}

// ListRuns returns the most recent runs, newest first, with their entries
func (r *RunRepository) ListRuns(ctx context.Context, limit int) ([]*models.Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, report_name, browser, os, started_at, finished_at
		FROM runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run := &models.Run{}
		var finished sql.NullTime
		if err := rows.Scan(
			&run.ID,
			&run.Title,
			&run.ReportName,
			&run.Browser,
			&run.OS,
			&run.StartedAt,
			&finished,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.FinishedAt = finished.Time
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	if err := r.loadEntries(ctx, runs); err != nil {
		return nil, err
	}
	return runs, nil
}

func (r *RunRepository) loadEntries(ctx context.Context, runs []*models.Run) error {
	if len(runs) == 0 {
		return nil
	}
	byID := make(map[string]*models.Run, len(runs))
	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		byID[run.ID] = run
		ids = append(ids, run.ID)
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, run_id, name, status, cause, logs, started_at, finished_at
		FROM test_entries
		WHERE run_id::text = ANY($1)
		ORDER BY run_id, position
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry := &models.TestEntry{}
		var (
			status   string
			logs     []byte
			finished sql.NullTime
		)
		if err := rows.Scan(
			&entry.ID,
			&entry.RunID,
			&entry.Name,
			&status,
			&entry.Cause,
			&logs,
			&entry.StartedAt,
			&finished,
		); err != nil {
			return fmt.Errorf("failed to scan entry: %w", err)
		}
		entry.Status, err = models.ParseStatus(status)
		if err != nil {
			return err
		}
		entry.FinishedAt = finished.Time
		if entry.Logs, err = decodeLogs(logs); err != nil {
			return err
		}
		if run, ok := byID[entry.RunID]; ok {
			run.Entries = append(run.Entries, entry)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to load entries: %w", err)
	}
	return nil
}

func encodeLogs(lines []models.LogLine) ([]byte, error) {
	records := make([]logRecord, 0, len(lines))
	for _, l := range lines {
		records = append(records, logRecord{Status: string(l.Status), Message: l.Message, At: l.At})
	}
	data, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry logs: %w", err)
	}
	return data, nil
}

func decodeLogs(data []byte) ([]models.LogLine, error) {
	var records []logRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("failed to decode entry logs: %w", err)
	}
	lines := make([]models.LogLine, 0, len(records))
	for _, r := range records {
		lines = append(lines, models.LogLine{Status: models.Status(r.Status), Message: r.Message, At: r.At})
	}
	return lines, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
