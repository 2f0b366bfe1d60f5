package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
)

// RefreshTask runs the whole pipeline. Only one refresh runs at a time; a
// refresh enqueued while another is in flight completes as a no-op.
type RefreshTask struct {
	Task
	runner  Runner
	running *atomic.Bool
}

func NewRefreshTask(runner Runner, running *atomic.Bool) *RefreshTask {
	if running == nil {
		running = new(atomic.Bool)
	}
	return &RefreshTask{
		Task:    NewTask(TaskTypeRefresh, ""),
		runner:  runner,
		running: running,
	}
}

func (t *RefreshTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if !t.running.CompareAndSwap(false, true) {
		slog.Debug("Refresh already in progress, skipping", "id", t.ID)
		return nil
	}
	defer t.running.Store(false)

	report, err := t.runner.Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh feeds: %w", err)
	}

	slog.Info("Task completed",
		"type", "Refresh",
		"duration", t.GetDuration(),
		"fetched", report.Fetched,
		"fetch_failed", report.FetchFailed,
		"parsed_files", len(report.Scraped),
		"feeds", len(report.Generated))

	return nil
}
