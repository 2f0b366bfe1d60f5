package tasks

import (
	"context"
	"fmt"
	"log/slog"
)

// GenerateTask rewrites every Atom feed from the current item files.
type GenerateTask struct {
	Task
	runner Runner
}

func NewGenerateTask(runner Runner) *GenerateTask {
	return &GenerateTask{
		Task:   NewTask(TaskTypeGenerate, ""),
		runner: runner,
	}
}

func (t *GenerateTask) Execute(ctx context.Context) error {

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	generated, err := t.runner.Generate()
	if err != nil {
		slog.Error("Task failed", "type", "Generate", "error", err)
		return fmt.Errorf("failed to generate feeds: %w", err)
	}

	slog.Info("Task completed",
		"type", "Generate",
		"duration", t.GetDuration(),
		"feeds", len(generated))

	return nil
}
