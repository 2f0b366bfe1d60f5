package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FetchRepository persists the fetch log.
type FetchRepository struct {
	db *DB
}

func NewFetchRepository(db *DB) *FetchRepository {
	return &FetchRepository{db: db}
}

// StartRun opens a new fetch run and returns its id.
func (r *FetchRepository) StartRun(startedAt time.Time) (string, error) {
	id := uuid.NewString()
	_, err := r.db.Exec(`
		INSERT INTO fetch_runs (id, started_at)
		VALUES (?, ?)
	`, id, startedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to start fetch run: %w", err)
	}
	return id, nil
}

// FinishRun stores the results of a run and closes it with its totals.
func (r *FetchRepository) FinishRun(runID string, results []FetchResult, finishedAt time.Time) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	succeeded := 0
	for _, res := range results {
		if res.Status == "success" {
			succeeded++
		}
		_, err := tx.Exec(`
			INSERT INTO fetch_results (id, run_id, url, status, status_code, error, cache_file, kind, fetched_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, uuid.NewString(), runID, res.URL, res.Status, res.StatusCode, res.Error,
			res.CacheFile, res.Kind, res.FetchedAt.UTC())
		if err != nil {
			return fmt.Errorf("failed to store fetch result for %s: %w", res.URL, err)
		}
	}

	result, err := tx.Exec(`
		UPDATE fetch_runs
		SET finished_at = ?, targets = ?, succeeded = ?, failed = ?
		WHERE id = ?
	`, finishedAt.UTC(), len(results), succeeded, len(results)-succeeded, runID)
	if err != nil {
		return fmt.Errorf("failed to finish fetch run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("fetch run %s not found", runID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fetch run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *FetchRepository) ListRuns(limit int) ([]FetchRun, error) {
	rows, err := r.db.Query(`
		SELECT id, started_at, finished_at, targets, succeeded, failed
		FROM fetch_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetch runs: %w", err)
	}
	defer rows.Close()

	var runs []FetchRun
	for rows.Next() {
		var run FetchRun
		if err := rows.Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Targets, &run.Succeeded, &run.Failed); err != nil {
			return nil, fmt.Errorf("failed to scan fetch run row: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch run rows: %w", err)
	}

	return runs, nil
}

// GetRun returns the run with id, or nil when there is none.
func (r *FetchRepository) GetRun(id string) (*FetchRun, error) {
	var run FetchRun
	err := r.db.QueryRow(`
		SELECT id, started_at, finished_at, targets, succeeded, failed
		FROM fetch_runs
		WHERE id = ?
	`, id).Scan(&run.ID, &run.StartedAt, &run.FinishedAt, &run.Targets, &run.Succeeded, &run.Failed)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch run: %w", err)
	}

	return &run, nil
}

// GetResults returns the results of a run in the order they were stored.
func (r *FetchRepository) GetResults(runID string) ([]FetchResult, error) {
	rows, err := r.db.Query(`
		SELECT id, run_id, url, status, status_code, error, cache_file, kind, fetched_at
		FROM fetch_results
		WHERE run_id = ?
		ORDER BY rowid
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get fetch results: %w", err)
	}
	defer rows.Close()

	var results []FetchResult
	for rows.Next() {
		var res FetchResult
		err := rows.Scan(&res.ID, &res.RunID, &res.URL, &res.Status, &res.StatusCode,
			&res.Error, &res.CacheFile, &res.Kind, &res.FetchedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fetch result row: %w", err)
		}
		results = append(results, res)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fetch result rows: %w", err)
	}

	return results, nil
}
