package database

import (
	"time"
)

// FetchRun is one pass of the fetcher over the fetch plan.
type FetchRun struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Targets    int        `json:"targets"`
	Succeeded  int        `json:"succeeded"`
	Failed     int        `json:"failed"`
}

// FetchResult is the logged outcome of one URL within a run.
type FetchResult struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	URL        string    `json:"url"`
	Status     string    `json:"status"` // success, http_error, timeout, error
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	CacheFile  string    `json:"cache_file,omitempty"`
	Kind       string    `json:"kind,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// AggregationRun records the item counts around one organization's
// aggregation.
type AggregationRun struct {
	ID              string    `json:"id"`
	OrganizationKey string    `json:"organization"`
	ItemsBefore     int       `json:"items_before"`
	ItemsAfter      int       `json:"items_after"`
	CrossRefMatches int       `json:"cross_ref_matches"`
	Error           string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
