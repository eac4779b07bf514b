package observations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aristath/petracker/internal/domain"
)

// RecordRun stores the outcome of one acquisition run
func (r *Repository) RecordRun(ctx context.Context, run domain.RunRecord) error {
	byTier, err := json.Marshal(run.ByTier)
	if err != nil {
		return fmt.Errorf("failed to encode tier counts: %w", err)
	}
	if run.ByTier == nil {
		byTier = []byte("{}")
	}

	runErr := sql.NullString{String: run.Error, Valid: run.Error != ""}

	_, err = r.db.ExecContext(ctx, r.q(`
		INSERT INTO acquisition_runs
			(id, trigger_kind, run_date, started_at, finished_at, attempted, succeeded, rows_written, status, error, by_tier)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`),
		run.RunID,
		string(run.Trigger),
		run.Date,
		run.StartedAt.Unix(),
		run.FinishedAt.Unix(),
		run.SymbolsAttempted,
		run.SymbolsSucceeded,
		run.RowsWritten,
		string(run.Status),
		runErr,
		string(byTier),
	)
	if err != nil {
		return fmt.Errorf("failed to record run %s: %w", run.RunID, err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first
func (r *Repository) ListRuns(ctx context.Context, limit int) ([]domain.RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.QueryContext(ctx, r.q(`
		SELECT id, trigger_kind, run_date, started_at, finished_at, attempted, succeeded, rows_written, status, error, by_tier
		FROM acquisition_runs
		ORDER BY started_at DESC
		LIMIT ?
	`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]domain.RunRecord, 0)
	for rows.Next() {
		var (
			run                 domain.RunRecord
			trigger, status     string
			startedAt, finished int64
			runErr              sql.NullString
			byTier              string
		)
		if err := rows.Scan(&run.RunID, &trigger, &run.Date, &startedAt, &finished,
			&run.SymbolsAttempted, &run.SymbolsSucceeded, &run.RowsWritten, &status, &runErr, &byTier); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Trigger = domain.Trigger(trigger)
		run.Status = domain.RunStatus(status)
		run.StartedAt = time.Unix(startedAt, 0).UTC()
		run.FinishedAt = time.Unix(finished, 0).UTC()
		run.Error = runErr.String
		if err := json.Unmarshal([]byte(byTier), &run.ByTier); err != nil {
			return nil, fmt.Errorf("failed to decode tier counts of run %s: %w", run.RunID, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
