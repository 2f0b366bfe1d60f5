package tasks

import (
	"context"

	"github.com/mibuhand/ai-news-direct/app/feed"
	"github.com/mibuhand/ai-news-direct/app/pipeline"
)

// TaskSchedulerInterface defines the interface for task scheduling operations.
// The API enqueues on-demand aggregations through it while the scheduler
// refreshes every organization on its own interval.
//
//	scheduler := NewScheduler(p, interval, workerCount)
//	scheduler.Start()
//	defer scheduler.Stop()
//	scheduler.EnqueueTask(NewAggregateTask("openai", p))
type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

// Runner is the part of the pipeline the tasks drive.
type Runner interface {
	Run(ctx context.Context) (pipeline.Report, error)
	Aggregate(key string) ([]pipeline.AggregateSummary, error)
	Generate() ([]feed.Generated, error)
}

var _ Runner = (*pipeline.Pipeline)(nil)
