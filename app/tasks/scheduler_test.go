package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/feed"
	"github.com/mibuhand/ai-news-direct/app/pipeline"
)

// MockRunner records pipeline calls for testing
type MockRunner struct {
	mu         sync.Mutex
	runs       int
	aggregated []string
	generated  int
	runErr     error
	aggErr     error
	ran        chan struct{}
}

func newMockRunner() *MockRunner {
	return &MockRunner{ran: make(chan struct{}, 10)}
}

func (m *MockRunner) Run(ctx context.Context) (pipeline.Report, error) {
	m.mu.Lock()
	m.runs++
	err := m.runErr
	m.mu.Unlock()

	m.ran <- struct{}{}
	return pipeline.Report{Fetched: 1}, err
}

func (m *MockRunner) Aggregate(key string) ([]pipeline.AggregateSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.aggregated = append(m.aggregated, key)
	if m.aggErr != nil {
		return nil, m.aggErr
	}
	return []pipeline.AggregateSummary{{Organization: key, After: aggregate.Stats{TotalAggregated: 3}}}, nil
}

func (m *MockRunner) Generate() ([]feed.Generated, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.generated++
	return []feed.Generated{{Name: "openai_aggregated", Entries: 3}}, nil
}

// flakyTask fails a fixed number of times before succeeding
type flakyTask struct {
	Task
	failures int32
	calls    atomic.Int32
	done     chan struct{}
}

func (t *flakyTask) Execute(ctx context.Context) error {
	if t.calls.Add(1) <= t.failures {
		return fmt.Errorf("attempt %d failed", t.calls.Load())
	}
	close(t.done)
	return nil
}

func TestNewScheduler(t *testing.T) {
	scheduler := NewScheduler(newMockRunner(), time.Second, 2)

	if scheduler == nil {
		t.Fatal("Expected scheduler to be created")
	}
	if scheduler.workerCount != 2 {
		t.Errorf("Expected worker count 2, got %d", scheduler.workerCount)
	}
	if scheduler.interval != time.Second {
		t.Errorf("Expected interval 1s, got %v", scheduler.interval)
	}

	if NewScheduler(newMockRunner(), time.Second, 0).workerCount != 1 {
		t.Error("Expected at least one worker")
	}
}

func TestSchedulerRefreshesOnStart(t *testing.T) {
	runner := newMockRunner()
	scheduler := NewScheduler(runner, time.Hour, 1)
	scheduler.Start()
	defer scheduler.Stop()

	select {
	case <-runner.ran:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected a refresh to run on start")
	}
}

func TestSchedulerAggregate(t *testing.T) {
	runner := newMockRunner()
	scheduler := NewScheduler(runner, time.Hour, 1)

	id, err := scheduler.Aggregate("openai")
	if err != nil {
		t.Fatalf("Failed to enqueue aggregation: %v", err)
	}
	if id == "" {
		t.Error("Expected task id")
	}

	task := <-scheduler.taskQueue
	if task.GetType() != TaskTypeAggregate || task.GetSubject() != "openai" {
		t.Errorf("Unexpected task: %s %s", task.GetType(), task.GetSubject())
	}
}

func TestEnqueueAfterStop(t *testing.T) {
	scheduler := NewScheduler(newMockRunner(), time.Hour, 1)
	scheduler.Stop()

	if err := scheduler.EnqueueTask(NewGenerateTask(newMockRunner())); err == nil {
		t.Error("Expected error when enqueueing on a stopped scheduler")
	}
}

func TestEnqueueFullQueue(t *testing.T) {
	scheduler := NewScheduler(newMockRunner(), time.Hour, 1)
	defer scheduler.Stop()

	runner := newMockRunner()
	for i := 0; i < queueSize; i++ {
		if err := scheduler.EnqueueTask(NewGenerateTask(runner)); err != nil {
			t.Fatalf("Unexpected error at %d: %v", i, err)
		}
	}
	if err := scheduler.EnqueueTask(NewGenerateTask(runner)); err == nil {
		t.Error("Expected error for full queue")
	}
}

func TestSchedulerRetriesFailedTask(t *testing.T) {
	scheduler := NewScheduler(newMockRunner(), time.Hour, 1)
	task := &flakyTask{Task: NewTask(TaskTypeGenerate, ""), failures: 1, done: make(chan struct{})}

	for i := 0; i < scheduler.workerCount; i++ {
		scheduler.wg.Add(1)
		go scheduler.worker(i)
	}
	defer scheduler.Stop()

	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatal(err)
	}

	select {
	case <-task.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Expected task to succeed after a retry")
	}
	if task.GetRetryCount() != 1 {
		t.Errorf("Expected 1 retry, got %d", task.GetRetryCount())
	}
}

func TestRetryDelay(t *testing.T) {
	tests := []struct {
		retry    int
		expected time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		if got := retryDelay(tt.retry); got != tt.expected {
			t.Errorf("retryDelay(%d) = %v, expected %v", tt.retry, got, tt.expected)
		}
	}
}

func TestRefreshTaskSkipsWhenRunning(t *testing.T) {
	runner := newMockRunner()
	running := new(atomic.Bool)
	running.Store(true)

	if err := NewRefreshTask(runner, running).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if runner.runs != 0 {
		t.Errorf("Expected refresh to be skipped, got %d runs", runner.runs)
	}

	running.Store(false)
	if err := NewRefreshTask(runner, running).Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if runner.runs != 1 || running.Load() {
		t.Errorf("Expected one run and the flag released, got %d runs", runner.runs)
	}
}

func TestRefreshTaskError(t *testing.T) {
	runner := newMockRunner()
	runner.runErr = errors.New("fetch interrupted")

	if err := NewRefreshTask(runner, nil).Execute(context.Background()); err == nil {
		t.Error("Expected refresh error")
	}
}

func TestAggregateTask(t *testing.T) {
	runner := newMockRunner()
	task := NewAggregateTask("openai", runner)

	if err := task.Execute(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(runner.aggregated) != 1 || runner.aggregated[0] != "openai" {
		t.Errorf("Unexpected aggregations: %v", runner.aggregated)
	}
	if runner.generated != 1 {
		t.Errorf("Expected feeds to be regenerated, got %d", runner.generated)
	}
}

func TestAggregateTaskUnknownOrganization(t *testing.T) {
	runner := newMockRunner()
	runner.aggErr = fmt.Errorf("%w: %q", config.ErrUnknownOrganization, "nope")
	task := NewAggregateTask("nope", runner)

	err := task.Execute(context.Background())
	if !errors.Is(err, config.ErrUnknownOrganization) {
		t.Errorf("Expected ErrUnknownOrganization, got %v", err)
	}
	if task.CanRetry() {
		t.Error("Expected unknown organization not to be retried")
	}
	if runner.generated != 0 {
		t.Error("Expected no feed generation")
	}
}

func TestTaskCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := NewGenerateTask(newMockRunner()).Execute(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}
