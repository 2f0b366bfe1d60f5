package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AggregationRepository persists aggregation run history.
type AggregationRepository struct {
	db *DB
}

func NewAggregationRepository(db *DB) *AggregationRepository {
	return &AggregationRepository{db: db}
}

// RecordRun stores run and returns its id. A zero CreatedAt is set to now.
func (r *AggregationRepository) RecordRun(run AggregationRun) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	_, err := r.db.Exec(`
		INSERT INTO aggregation_runs (id, organization_key, items_before, items_after, cross_ref_matches, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.OrganizationKey, run.ItemsBefore, run.ItemsAfter, run.CrossRefMatches, run.Error, run.CreatedAt.UTC())
	if err != nil {
		return "", fmt.Errorf("failed to record aggregation run: %w", err)
	}

	return run.ID, nil
}

// ListRuns returns recent runs, newest first. An empty orgKey lists runs
// for every organization.
func (r *AggregationRepository) ListRuns(orgKey string, limit int) ([]AggregationRun, error) {
	query := `
		SELECT id, organization_key, items_before, items_after, cross_ref_matches, error, created_at
		FROM aggregation_runs`
	args := []any{}
	if orgKey != "" {
		query += ` WHERE organization_key = ?`
		args = append(args, orgKey)
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list aggregation runs: %w", err)
	}
	defer rows.Close()

	var runs []AggregationRun
	for rows.Next() {
		var run AggregationRun
		if err := scanAggregationRun(rows, &run); err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating aggregation run rows: %w", err)
	}

	return runs, nil
}

// LatestRun returns the newest run for orgKey, or nil when it has never
// been aggregated.
func (r *AggregationRepository) LatestRun(orgKey string) (*AggregationRun, error) {
	row := r.db.QueryRow(`
		SELECT id, organization_key, items_before, items_after, cross_ref_matches, error, created_at
		FROM aggregation_runs
		WHERE organization_key = ?
		ORDER BY created_at DESC
		LIMIT 1
	`, orgKey)

	var run AggregationRun
	err := scanAggregationRun(row, &run)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &run, nil
}

// GetRunCount returns the number of recorded aggregation runs.
func (r *AggregationRepository) GetRunCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM aggregation_runs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get aggregation run count: %w", err)
	}
	return count, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAggregationRun(s scanner, run *AggregationRun) error {
	err := s.Scan(&run.ID, &run.OrganizationKey, &run.ItemsBefore, &run.ItemsAfter,
		&run.CrossRefMatches, &run.Error, &run.CreatedAt)
	if err == sql.ErrNoRows {
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to scan aggregation run row: %w", err)
	}
	return nil
}
