package api

import (
	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/database"
	"github.com/mibuhand/ai-news-direct/app/tasks"
)

type StatsInterface interface {
	Stats(key string) (aggregate.Stats, error)
}

var _ StatsInterface = (*aggregate.Aggregator)(nil)

type Handler struct {
	cfg       *config.Config
	stats     StatsInterface
	fetchLog  database.FetchLog
	aggLog    database.AggregationLog
	scheduler tasks.TaskSchedulerInterface
	runner    tasks.Runner
	version   string
}

// OrganizationSummary is the list view of one organization.
type OrganizationSummary struct {
	Key             string                   `json:"key"`
	Name            string                   `json:"name"`
	FeedTitle       string                   `json:"feed_title,omitempty"`
	TotalAggregated int                      `json:"total_aggregated"`
	LastAggregation *database.AggregationRun `json:"last_aggregation,omitempty"`
}
