package aggregate

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	AggregatedSuffix = "_aggregated"
	outputIndent     = "    "
)

// CrossRef names the shared activity log whose items are attributed to
// organizations by pattern.
type CrossRef struct {
	File   string
	Source string
}

var DefaultCrossRef = CrossRef{File: "huggingface.json", Source: "huggingface"}

type Aggregator struct {
	parsedDir string
	orgs      *config.Organizations
	crossRef  CrossRef
}

func NewAggregator(parsedDir string, orgs *config.Organizations, crossRef CrossRef) *Aggregator {
	return &Aggregator{
		parsedDir: parsedDir,
		orgs:      orgs,
		crossRef:  crossRef,
	}
}

// OutputName is the parsed file name of an organization's aggregated list.
func OutputName(key string) string {
	return key + AggregatedSuffix + ".json"
}

func (a *Aggregator) OutputPath(key string) string {
	return filepath.Join(a.parsedDir, OutputName(key))
}

// Collect gathers every candidate item for org: direct feeds, feed-derived
// files and matching activity log entries re-tagged to the organization.
func (a *Aggregator) Collect(org *config.Organization) []Candidate {
	var candidates []Candidate

	for _, name := range org.DirectFeeds {
		items, _ := a.readSource(org.Key, name)
		for _, it := range items {
			candidates = append(candidates, Candidate{Item: it, Priority: PriorityDirect})
		}
	}

	for _, name := range org.FeedSources {
		items, _ := a.readSource(org.Key, name)
		for _, it := range items {
			candidates = append(candidates, Candidate{Item: it, Priority: PriorityFeed})
		}
	}

	for _, it := range a.crossRefMatches(org) {
		tagged := it.WithSource(org.Key+AggregatedSuffix, a.crossRef.Source)
		candidates = append(candidates, Candidate{Item: tagged, Priority: PriorityCrossRef})
	}

	return candidates
}

// Aggregate merges, deduplicates and orders the organization's sources and
// overwrites its aggregated file.
func (a *Aggregator) Aggregate(key string) ([]item.Item, error) {
	org, err := a.orgs.Get(key)
	if err != nil {
		return nil, err
	}

	candidates := a.Collect(org)
	items := Dedup(candidates)
	SortByDate(items)

	path := a.OutputPath(key)
	if err := item.WriteFile(path, items, outputIndent); err != nil {
		slog.Error("Failed to write aggregated feed", "organization", key, "file", path, "error", err)
		return nil, fmt.Errorf("failed to write aggregated feed for %s: %w", key, err)
	}

	slog.Info("Aggregation completed",
		"organization", key,
		"collected", len(candidates),
		"duplicates", len(candidates)-len(items),
		"total", len(items),
		"file", path)

	return items, nil
}

func (a *Aggregator) crossRefMatches(org *config.Organization) []item.Item {
	if a.crossRef.File == "" {
		return nil
	}
	items, ok := a.readSource(org.Key, a.crossRef.File)
	if !ok {
		return nil
	}

	return matchOrganization(items, org.Patterns)
}

func matchOrganization(items []item.Item, patterns []string) []item.Item {
	var matched []item.Item
	for _, it := range items {
		if Matches(it.Organization, patterns) {
			matched = append(matched, it)
		}
	}
	return matched
}

// readSource loads one parsed file. Missing or unreadable files contribute
// nothing.
func (a *Aggregator) readSource(key, name string) ([]item.Item, bool) {
	path := filepath.Join(a.parsedDir, name)
	items, err := item.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		slog.Warn("Source file missing, skipping", "organization", key, "file", name)
		return nil, false
	}
	if err != nil {
		slog.Warn("Failed to read source file, skipping", "organization", key, "file", name, "error", err)
		return nil, false
	}
	slog.Debug("Source loaded", "organization", key, "file", name, "items", len(items))
	return items, true
}

// SourceCount is the number of items in one parsed source file.
type SourceCount struct {
	Name  string `json:"name"`
	Items int    `json:"items"`
}

type Stats struct {
	Organization    string        `json:"organization"`
	Sources         []SourceCount `json:"sources"`
	CrossRefMatches int           `json:"cross_ref_matches"`
	TotalAggregated int           `json:"total_aggregated"`
}

// Stats counts the items currently on disk for an organization's sources,
// activity log matches and aggregated output.
func (a *Aggregator) Stats(key string) (Stats, error) {
	org, err := a.orgs.Get(key)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Organization: key, Sources: []SourceCount{}}
	for _, name := range append(append([]string(nil), org.DirectFeeds...), org.FeedSources...) {
		stats.Sources = append(stats.Sources, SourceCount{
			Name:  strings.TrimSuffix(name, ".json"),
			Items: a.count(name),
		})
	}
	if a.crossRef.File != "" {
		if items, err := item.ReadFile(filepath.Join(a.parsedDir, a.crossRef.File)); err == nil {
			stats.CrossRefMatches = len(matchOrganization(items, org.Patterns))
		}
	}
	stats.TotalAggregated = a.count(OutputName(key))
	return stats, nil
}

func (a *Aggregator) count(name string) int {
	items, err := item.ReadFile(filepath.Join(a.parsedDir, name))
	if err != nil {
		return 0
	}
	return len(items)
}

// Result reports one organization's aggregation run.
type Result struct {
	Organization string
	Before       Stats
	After        Stats
	Items        []item.Item
	Err          error
}

// Run aggregates one organization, capturing stats before and after.
func (a *Aggregator) Run(key string) (Result, error) {
	before, err := a.Stats(key)
	if err != nil {
		return Result{}, err
	}
	logStats("Current content stats", before)

	items, err := a.Aggregate(key)
	result := Result{Organization: key, Before: before, Items: items, Err: err}

	result.After, _ = a.Stats(key)
	logStats("Final aggregated stats", result.After)
	return result, err
}

// RunAll aggregates every organization in configuration order. A failure
// for one organization is logged and the run continues.
func (a *Aggregator) RunAll() []Result {
	results := make([]Result, 0, a.orgs.Len())
	for _, key := range a.orgs.Keys() {
		result, err := a.Run(key)
		if err != nil {
			slog.Error("Aggregation failed", "organization", key, "error", err)
			result.Organization = key
			result.Err = err
		}
		results = append(results, result)
	}
	return results
}

func logStats(msg string, s Stats) {
	args := []any{"organization", s.Organization}
	for _, src := range s.Sources {
		args = append(args, src.Name, src.Items)
	}
	args = append(args, "cross_ref_matches", s.CrossRefMatches, "total_aggregated", s.TotalAggregated)
	slog.Info(msg, args...)
}
