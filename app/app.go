package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/cfg"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/database"
	"github.com/mibuhand/ai-news-direct/app/feed"
	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/pipeline"
	"github.com/mibuhand/ai-news-direct/app/scrape"
)

const robotsTTL = time.Hour

// application holds the wired components shared by the commands.
type application struct {
	cfg        *cfg.Cfg
	domain     *config.Config
	db         *database.DB
	fetchRepo  *database.FetchRepository
	aggRepo    *database.AggregationRepository
	aggregator *aggregate.Aggregator
	pipeline   *pipeline.Pipeline
}

func newApplication(opts *cfg.Options) (*application, error) {
	c, err := opts.Cfg()
	if err != nil {
		return nil, err
	}

	domain, err := config.NewLoader(c.ConfigDir).Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from %s: %w", c.ConfigDir, err)
	}
	slog.Debug("Configuration loaded", "organizations", domain.Organizations.Len(), "sites", len(domain.Sites))

	db, err := database.NewConnection(c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	slog.Debug("Database ready", "path", c.DBPath, "version", version, "dirty", dirty)

	httpClient := &http.Client{Timeout: c.RequestTimeout}

	var robots *fetch.RobotsChecker
	if c.RespectRobots {
		robots = fetch.NewRobotsChecker(httpClient, c.UserAgent, robotsTTL)
	}

	fetcher := fetch.NewFetcher(httpClient, fetch.Options{
		HTMLDir:     c.HTMLDir(),
		FeedsDir:    c.FeedCacheDir(),
		Concurrency: c.Concurrency,
		Timeout:     c.RequestTimeout,
		UserAgent:   c.UserAgent,
		Limiter:     fetch.NewLimiter(c.RequestsPerSecond, 1),
		Robots:      robots,
	})

	a := &application{
		cfg:       c,
		domain:    domain,
		db:        db,
		fetchRepo: database.NewFetchRepository(db),
		aggRepo:   database.NewAggregationRepository(db),
		aggregator: aggregate.NewAggregator(c.ParsedDir(), domain.Organizations,
			aggregate.DefaultCrossRef),
	}

	a.pipeline = pipeline.New(pipeline.Options{
		Config:  domain,
		Fetcher: fetcher,
		Scraper: scrape.NewRunner(scrape.Options{
			ParsedDir: c.ParsedDir(),
			HTMLDir:   c.HTMLDir(),
			FeedsDir:  c.FeedCacheDir(),
			Client:    fetcher,
			Orgs:      domain.Organizations,
		}),
		Aggregator: a.aggregator,
		Generator: feed.NewGenerator(domain, feed.Options{
			SelfBase: c.FeedBaseURL,
			Version:  c.Version,
		}),
		ParsedDir:      c.ParsedDir(),
		FeedsDir:       c.FeedsDir,
		FetchLog:       a.fetchRepo,
		AggregationLog: a.aggRepo,
	})

	return a, nil
}

func (a *application) Close() {
	if err := a.db.Close(); err != nil {
		slog.Error("Failed to close database", "error", err)
	}
}
