package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/api"
	"github.com/mibuhand/ai-news-direct/app/cfg"
	"github.com/mibuhand/ai-news-direct/app/tasks"
)

func registerCommands(parser *flags.Parser, opts *cfg.Options) {
	commands := []struct {
		name, short, long string
		command           any
	}{
		{"fetch", "Fetch configured pages and feeds", "Download every page and feed in the sites configuration into the caches.", &fetchCommand{opts: opts}},
		{"scrape", "Parse cached pages into item files", "Run each site's adapter over the caches and write the per-source item files.", &scrapeCommand{opts: opts}},
		{"aggregate", "Aggregate organizations", "Merge, deduplicate and order the sources of one organization, or of all of them.", &aggregateCommand{opts: opts}},
		{"generate", "Generate Atom feeds", "Write an Atom feed for every parsed item file.", &generateCommand{opts: opts}},
		{"run", "Run the whole pipeline once", "Fetch, scrape, aggregate and generate in one pass.", &runCommand{opts: opts}},
		{"stats", "Show organization stats", "Print item counts for an organization's sources and aggregated feed.", &statsCommand{opts: opts}},
		{"serve", "Refresh periodically and serve the status API", "Run the pipeline on the scheduler interval and serve the status API.", &serveCommand{opts: opts}},
		{"version", "Print the version", "Print the version.", &versionCommand{}},
	}

	for _, c := range commands {
		if _, err := parser.AddCommand(c.name, c.short, c.long, c.command); err != nil {
			panic(fmt.Sprintf("failed to register command %s: %v", c.name, err))
		}
	}
}

// withApplication wires the components, runs fn with a context cancelled on
// SIGINT or SIGTERM and releases the components afterwards.
func withApplication(opts *cfg.Options, fn func(ctx context.Context, a *application) error) error {
	a, err := newApplication(opts)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return fn(ctx, a)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type fetchCommand struct {
	opts *cfg.Options
}

func (c *fetchCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		_, err := a.pipeline.Fetch(ctx)
		return err
	})
}

type scrapeCommand struct {
	opts *cfg.Options
}

func (c *scrapeCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		written, err := a.pipeline.Scrape(ctx)
		for _, w := range written {
			slog.Info("Parsed file written", "file", w.File, "items", w.Items)
		}
		return err
	})
}

type aggregateCommand struct {
	opts *cfg.Options
	Args struct {
		Organization string `positional-arg-name:"organization" description:"Organization key (default: all)"`
	} `positional-args:"yes"`
}

func (c *aggregateCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		summaries, err := a.pipeline.Aggregate(c.Args.Organization)
		if len(summaries) > 0 {
			if printErr := printJSON(summaries); printErr != nil {
				return printErr
			}
		}
		if err != nil {
			return err
		}
		failed := 0
		for _, s := range summaries {
			if s.Error != "" {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("aggregation failed for %d of %d organizations", failed, len(summaries))
		}
		return nil
	})
}

type generateCommand struct {
	opts *cfg.Options
}

func (c *generateCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		_, err := a.pipeline.Generate()
		return err
	})
}

type runCommand struct {
	opts *cfg.Options
}

func (c *runCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		_, err := a.pipeline.Run(ctx)
		return err
	})
}

type statsCommand struct {
	opts *cfg.Options
	Args struct {
		Organization string `positional-arg-name:"organization" description:"Organization key (default: all)"`
	} `positional-args:"yes"`
}

func (c *statsCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		keys := a.domain.Organizations.Keys()
		if c.Args.Organization != "" {
			keys = []string{c.Args.Organization}
		}

		stats := make([]aggregate.Stats, 0, len(keys))
		for _, key := range keys {
			s, err := a.aggregator.Stats(key)
			if err != nil {
				return err
			}
			stats = append(stats, s)
		}
		return printJSON(stats)
	})
}

type serveCommand struct {
	opts *cfg.Options
}

func (c *serveCommand) Execute(args []string) error {
	return withApplication(c.opts, func(ctx context.Context, a *application) error {
		slog.Info("Starting AI News Direct", "version", a.cfg.Version)

		slog.Info("Starting background scheduler", "workers", a.cfg.WorkerCount, "interval", a.cfg.SchedulerInterval)
		scheduler := tasks.NewScheduler(a.pipeline, a.cfg.SchedulerInterval, a.cfg.WorkerCount)
		scheduler.Start()
		defer scheduler.Stop()

		handler := api.NewHandler(a.domain, a.aggregator, a.fetchRepo, a.aggRepo, scheduler, a.pipeline, a.cfg.Version)
		httpServer := &http.Server{
			Addr:         ":" + a.cfg.Port,
			Handler:      api.NewServer(handler, a.cfg.APIAccessKey),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		serverErrChan := make(chan error, 1)
		go func() {
			slog.Info("Starting HTTP server", "port", a.cfg.Port)
			if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
			}
		}()

		var serveErr error
		select {
		case <-ctx.Done():
			slog.Info("Shutdown signal received")
		case serveErr = <-serverErrChan:
			slog.Error("Server error", "error", serveErr)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP server shutdown error", "error", err)
		} else {
			slog.Info("HTTP server stopped")
		}

		return serveErr
	})
}

type versionCommand struct{}

func (c *versionCommand) Execute(args []string) error {
	fmt.Println(cfg.GetVersion())
	return nil
}
