package tasks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mibuhand/ai-news-direct/app/config"
)

// AggregateTask re-aggregates one organization from the item files already
// on disk and regenerates the feeds.
type AggregateTask struct {
	Task
	runner Runner
}

func NewAggregateTask(orgKey string, runner Runner) *AggregateTask {
	return &AggregateTask{
		Task:   NewTask(TaskTypeAggregate, orgKey),
		runner: runner,
	}
}

func (t *AggregateTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	summaries, err := t.runner.Aggregate(t.Subject)
	if errors.Is(err, config.ErrUnknownOrganization) {
		// Retrying cannot help.
		t.RetryCount = t.MaxRetries
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to aggregate %s: %w", t.Subject, err)
	}

	generated, err := t.runner.Generate()
	if err != nil {
		return fmt.Errorf("failed to generate feeds: %w", err)
	}

	total := 0
	for _, s := range summaries {
		total += s.After.TotalAggregated
	}

	slog.Info("Task completed",
		"type", "Aggregate",
		"organization", t.Subject,
		"duration", t.GetDuration(),
		"total", total,
		"feeds", len(generated))

	return nil
}
