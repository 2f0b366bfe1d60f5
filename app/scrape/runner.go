package scrape

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const outputIndent = "    "

type Options struct {
	ParsedDir string
	HTMLDir   string
	FeedsDir  string
	Client    JSONGetter
	Orgs      *config.Organizations
	Now       func() time.Time
}

// Written reports one parsed file produced by a run.
type Written struct {
	File  string `json:"file"`
	Items int    `json:"items"`
}

// Runner runs each site's adapter and writes the per-source JSON files.
// Outputs from different sites that name the same file are merged.
type Runner struct {
	opts     Options
	adapters map[string]Adapter
	mapper   *item.Mapper
}

func NewRunner(opts Options) *Runner {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		opts:     opts,
		adapters: Adapters(),
		mapper:   item.NewMapper(opts.Now),
	}
}

// Register adds or replaces the adapter for name.
func (r *Runner) Register(name string, adapter Adapter) {
	r.adapters[name] = adapter
}

type pending struct {
	items  []item.Item
	ranked bool
}

func (r *Runner) Run(ctx context.Context, sites []config.Site) ([]Written, error) {
	if err := os.MkdirAll(r.opts.ParsedDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create parsed directory: %w", err)
	}

	var (
		order []string
		files = make(map[string]*pending)
		errs  []error
	)

	for i := range sites {
		site := &sites[i]
		adapter, ok := r.adapters[site.Adapter]
		if !ok {
			slog.Warn("No adapter for site", "site", site.Site, "adapter", site.Adapter)
			errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownAdapter, site.Adapter))
			continue
		}

		env := Env{
			Site:     site,
			Targets:  fetch.PlanSite(site),
			HTMLDir:  r.opts.HTMLDir,
			FeedsDir: r.opts.FeedsDir,
			Client:   r.opts.Client,
			Orgs:     r.opts.Orgs,
			Now:      r.opts.Now().UTC(),
		}

		outputs, err := adapter.Scrape(ctx, env)
		if err != nil {
			slog.Error("Adapter failed", "adapter", site.Adapter, "site", site.Site, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", site.Adapter, err))
		}

		for _, out := range outputs {
			p, ok := files[out.File]
			if !ok {
				p = &pending{}
				files[out.File] = p
				order = append(order, out.File)
			}
			p.items = append(p.items, r.mapper.MapAll(out.Records)...)
			p.ranked = p.ranked || out.Ranked
		}
	}

	var written []Written
	for _, name := range order {
		p := files[name]
		items := uniqueByID(p.items)
		if len(items) == 0 {
			slog.Warn("No items scraped, keeping previous file", "file", name)
			continue
		}
		if !p.ranked {
			aggregate.SortByDate(items)
		}

		path := filepath.Join(r.opts.ParsedDir, name)
		if err := item.WriteFile(path, items, outputIndent); err != nil {
			slog.Error("Failed to write parsed file", "file", path, "error", err)
			errs = append(errs, err)
			continue
		}
		slog.Info("Parsed data written", "file", path, "items", len(items))
		written = append(written, Written{File: name, Items: len(items)})
	}

	return written, errors.Join(errs...)
}

func uniqueByID(items []item.Item) []item.Item {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, it := range items {
		if _, dup := seen[it.ID]; dup {
			continue
		}
		seen[it.ID] = struct{}{}
		out = append(out, it)
	}
	return out
}
