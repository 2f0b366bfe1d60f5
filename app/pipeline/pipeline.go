package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/database"
	"github.com/mibuhand/ai-news-direct/app/feed"
	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/scrape"
)

type Options struct {
	Config     *config.Config
	Fetcher    *fetch.Fetcher
	Scraper    *scrape.Runner
	Aggregator *aggregate.Aggregator
	Generator  *feed.Generator
	ParsedDir  string
	FeedsDir   string

	// Optional run history.
	FetchLog       database.FetchLog
	AggregationLog database.AggregationLog

	Now func() time.Time
}

// Pipeline runs the stages that turn configured sites into Atom feeds:
// fetch pages, scrape them into item files, aggregate per organization and
// generate feeds.
type Pipeline struct {
	opts Options
}

// Report summarizes one full run.
type Report struct {
	Fetched     int                `json:"fetched"`
	FetchFailed int                `json:"fetch_failed"`
	Scraped     []scrape.Written   `json:"scraped"`
	Aggregated  []AggregateSummary `json:"aggregated"`
	Generated   []feed.Generated   `json:"generated"`
	Duration    time.Duration      `json:"duration"`
}

// AggregateSummary is the outcome of one organization's aggregation.
type AggregateSummary struct {
	Organization string          `json:"organization"`
	Before       aggregate.Stats `json:"before"`
	After        aggregate.Stats `json:"after"`
	Error        string          `json:"error,omitempty"`
}

func New(opts Options) *Pipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Pipeline{opts: opts}
}

func (p *Pipeline) Config() *config.Config {
	return p.opts.Config
}

func (p *Pipeline) Aggregator() *aggregate.Aggregator {
	return p.opts.Aggregator
}

// Fetch downloads every planned target into the caches and records the run
// when a fetch log is configured.
func (p *Pipeline) Fetch(ctx context.Context) ([]fetch.Result, error) {
	targets := fetch.Plan(p.opts.Config.Sites)
	slog.Info("Fetching pages", "targets", len(targets))

	started := p.opts.Now()
	results := p.opts.Fetcher.Run(ctx, targets)

	if p.opts.FetchLog != nil {
		if err := p.recordFetch(started, results); err != nil {
			slog.Error("Failed to record fetch run", "error", err)
		}
	}

	return results, ctx.Err()
}

func (p *Pipeline) recordFetch(started time.Time, results []fetch.Result) error {
	runID, err := p.opts.FetchLog.StartRun(started)
	if err != nil {
		return err
	}

	rows := make([]database.FetchResult, 0, len(results))
	for _, res := range results {
		rows = append(rows, database.FetchResult{
			RunID:      runID,
			URL:        res.URL,
			Status:     string(res.Status),
			StatusCode: res.StatusCode,
			Error:      res.Error,
			CacheFile:  res.File,
			Kind:       string(res.Kind),
			FetchedAt:  res.FetchedAt,
		})
	}

	return p.opts.FetchLog.FinishRun(runID, rows, p.opts.Now())
}

// Scrape runs every site's adapter over the caches.
func (p *Pipeline) Scrape(ctx context.Context) ([]scrape.Written, error) {
	written, err := p.opts.Scraper.Run(ctx, p.opts.Config.Sites)
	slog.Info("Scraping completed", "files", len(written))
	return written, err
}

// Aggregate aggregates one organization, or all of them when key is empty.
// An unknown key is an error; a failure for one of all organizations is
// reported in its summary.
func (p *Pipeline) Aggregate(key string) ([]AggregateSummary, error) {
	if key != "" {
		result, err := p.opts.Aggregator.Run(key)
		if errors.Is(err, config.ErrUnknownOrganization) {
			return nil, err
		}
		summary := p.summarize(result, err)
		return []AggregateSummary{summary}, err
	}

	var summaries []AggregateSummary
	for _, result := range p.opts.Aggregator.RunAll() {
		summaries = append(summaries, p.summarize(result, result.Err))
	}
	return summaries, nil
}

func (p *Pipeline) summarize(result aggregate.Result, err error) AggregateSummary {
	summary := AggregateSummary{
		Organization: result.Organization,
		Before:       result.Before,
		After:        result.After,
	}
	if err != nil {
		summary.Error = err.Error()
	}

	if p.opts.AggregationLog != nil {
		_, logErr := p.opts.AggregationLog.RecordRun(database.AggregationRun{
			OrganizationKey: result.Organization,
			ItemsBefore:     result.Before.TotalAggregated,
			ItemsAfter:      result.After.TotalAggregated,
			CrossRefMatches: result.After.CrossRefMatches,
			Error:           summary.Error,
			CreatedAt:       p.opts.Now(),
		})
		if logErr != nil {
			slog.Error("Failed to record aggregation run", "organization", result.Organization, "error", logErr)
		}
	}

	return summary
}

// Generate writes an Atom feed for every parsed item file.
func (p *Pipeline) Generate() ([]feed.Generated, error) {
	return p.opts.Generator.GenerateAll(p.opts.ParsedDir, p.opts.FeedsDir)
}

// Run executes every stage in order. Scrape errors are logged and the run
// continues so that sources that did parse still reach their feeds.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	started := p.opts.Now()
	var report Report

	results, err := p.Fetch(ctx)
	if err != nil {
		return report, fmt.Errorf("fetch interrupted: %w", err)
	}
	for _, res := range results {
		if res.Status == fetch.StatusSuccess {
			report.Fetched++
		} else {
			report.FetchFailed++
		}
	}

	report.Scraped, err = p.Scrape(ctx)
	if err != nil {
		slog.Warn("Scraping finished with errors", "error", err)
	}
	if ctx.Err() != nil {
		return report, ctx.Err()
	}

	report.Aggregated, _ = p.Aggregate("")

	report.Generated, err = p.Generate()
	if err != nil {
		return report, fmt.Errorf("failed to generate feeds: %w", err)
	}

	report.Duration = p.opts.Now().Sub(started)
	slog.Info("Pipeline completed",
		"fetched", report.Fetched,
		"fetch_failed", report.FetchFailed,
		"parsed_files", len(report.Scraped),
		"organizations", len(report.Aggregated),
		"feeds", len(report.Generated),
		"duration", report.Duration)

	return report, nil
}
