package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

type Status string

const (
	StatusSuccess   Status = "success"
	StatusHTTPError Status = "http_error"
	StatusTimeout   Status = "timeout"
	StatusError     Status = "error"
)

const DefaultConcurrency = 5

// Result is the outcome of fetching one target.
type Result struct {
	URL        string    `json:"url"`
	Status     Status    `json:"status"`
	StatusCode int       `json:"status_code,omitempty"`
	Error      string    `json:"error,omitempty"`
	File       string    `json:"file,omitempty"`
	Kind       Kind      `json:"type,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

type Options struct {
	HTMLDir     string
	FeedsDir    string
	Concurrency int
	Timeout     time.Duration
	UserAgent   string
	Limiter     *Limiter
	Robots      *RobotsChecker
}

// Fetcher downloads targets into the page and feed caches with a bounded
// number of requests in flight.
type Fetcher struct {
	httpClient *http.Client
	opts       Options
}

func NewFetcher(httpClient *http.Client, opts Options) *Fetcher {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Fetcher{httpClient: httpClient, opts: opts}
}

// Run fetches every target and returns one result per target, in target
// order, once all requests have finished.
func (f *Fetcher) Run(ctx context.Context, targets []Target) []Result {
	for _, dir := range []string{f.opts.HTMLDir, f.opts.FeedsDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create cache directory", "dir", dir, "error", err)
		}
	}

	sem := semaphore.NewWeighted(int64(f.opts.Concurrency))
	results := make([]Result, len(targets))
	var wg sync.WaitGroup

	for i, target := range targets {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sem.Acquire(ctx, 1); err != nil {
				results[i] = failure(target, err)
				return
			}
			defer sem.Release(1)
			results[i] = f.fetch(ctx, target)
		}()
	}
	wg.Wait()

	logSummary(results)
	return results
}

func (f *Fetcher) fetch(ctx context.Context, target Target) Result {
	if f.opts.Robots != nil && !f.opts.Robots.Allowed(ctx, target.URL) {
		slog.Warn("Disallowed by robots.txt", "url", target.URL)
		return Result{URL: target.URL, Status: StatusError, Error: "disallowed by robots.txt", FetchedAt: time.Now().UTC()}
	}
	if f.opts.Limiter != nil {
		if err := f.opts.Limiter.Wait(ctx, target.URL); err != nil {
			return failure(target, err)
		}
	}

	body, status, err := f.get(ctx, target.URL)
	if err != nil {
		return failure(target, err)
	}
	if status < 200 || status >= 300 {
		slog.Error("HTTP error", "url", target.URL, "status_code", status)
		return Result{
			URL:        target.URL,
			Status:     StatusHTTPError,
			StatusCode: status,
			Error:      fmt.Sprintf("HTTP %d", status),
			FetchedAt:  time.Now().UTC(),
		}
	}

	dir := f.opts.HTMLDir
	if target.Kind == KindFeed {
		dir = f.opts.FeedsDir
	}
	if err := os.WriteFile(filepath.Join(dir, target.FileName()), body, 0o644); err != nil {
		return failure(target, fmt.Errorf("failed to write cache file: %w", err))
	}

	return Result{
		URL:        target.URL,
		Status:     StatusSuccess,
		StatusCode: status,
		File:       target.CacheName,
		Kind:       target.Kind,
		FetchedAt:  time.Now().UTC(),
	}
}

func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, int, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.opts.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return data, resp.StatusCode, nil
}

func failure(target Target, err error) Result {
	status := StatusError
	if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
		status = StatusTimeout
		slog.Error("Timeout", "url", target.URL)
	} else {
		slog.Error("Fetch failed", "url", target.URL, "error", err)
	}
	return Result{URL: target.URL, Status: status, Error: err.Error(), FetchedAt: time.Now().UTC()}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func logSummary(results []Result) {
	succeeded := 0
	for _, r := range results {
		if r.Status == StatusSuccess {
			succeeded++
		}
	}
	slog.Info("Fetch summary", "successful", succeeded, "total", len(results))

	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
		case StatusHTTPError:
			slog.Info("Failed request", "url", r.URL, "status_code", r.StatusCode)
		default:
			slog.Info("Failed request", "url", r.URL, "status", r.Status)
		}
	}
}
