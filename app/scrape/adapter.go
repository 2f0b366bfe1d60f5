package scrape

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

var ErrUnknownAdapter = errors.New("unknown adapter")

// JSONGetter fetches a JSON document and decodes it into v.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, v any) error
}

// Env is everything an adapter sees of one configured site.
type Env struct {
	Site     *config.Site
	Targets  []fetch.Target
	HTMLDir  string
	FeedsDir string
	Client   JSONGetter
	Orgs     *config.Organizations
	Now      time.Time
}

// Output is a batch of records bound for one parsed file.
type Output struct {
	File    string
	Records []item.Record

	// Ranked outputs keep the adapter's order instead of being sorted
	// newest first.
	Ranked bool
}

// Adapter turns a site's cached pages, feeds or API responses into records.
type Adapter interface {
	Scrape(ctx context.Context, env Env) ([]Output, error)
}

type AdapterFunc func(ctx context.Context, env Env) ([]Output, error)

func (f AdapterFunc) Scrape(ctx context.Context, env Env) ([]Output, error) {
	return f(ctx, env)
}

// Adapters returns the built-in adapters keyed by the name sites refer to
// them by.
func Adapters() map[string]Adapter {
	return map[string]Adapter{
		"anthropic":            AdapterFunc(scrapeAnthropic),
		"openai":               AdapterFunc(scrapeOpenAI),
		"deepseek":             AdapterFunc(scrapeDeepSeek),
		"thinkingmachines":     AdapterFunc(scrapeThinkingMachines),
		"bytedance":            AdapterFunc(scrapeByteDanceSeed),
		"github":               AdapterFunc(scrapeGitHubTrending),
		"hackernews":           AdapterFunc(scrapeHackerNews),
		"huggingface":          AdapterFunc(scrapeHuggingFace),
		"huggingface_activity": AdapterFunc(scrapeActivity),
		config.FeedsAdapter:    AdapterFunc(scrapeFeeds),
	}
}

func (e Env) output(kind, def string, records []item.Record) Output {
	return Output{File: e.Site.OutputFile(kind, def), Records: records}
}

// document parses the cached page of target.
func (e Env) document(target fetch.Target) (*goquery.Document, error) {
	path := filepath.Join(e.HTMLDir, target.FileName())
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cached page: %w", err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return doc, nil
}
