package database

import (
	"time"
)

type FetchLog interface {
	StartRun(startedAt time.Time) (string, error)
	FinishRun(runID string, results []FetchResult, finishedAt time.Time) error
	ListRuns(limit int) ([]FetchRun, error)
	GetResults(runID string) ([]FetchResult, error)
}

type AggregationLog interface {
	RecordRun(run AggregationRun) (string, error)
	ListRuns(orgKey string, limit int) ([]AggregationRun, error)
	LatestRun(orgKey string) (*AggregationRun, error)
}
