package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

var testNow = time.Date(2025, 10, 15, 12, 0, 0, 0, time.UTC)

// siteEnv caches content for the site's targets, keyed by target page.
func siteEnv(t *testing.T, site *config.Site, pages map[string]string) Env {
	t.Helper()
	dir := t.TempDir()
	env := Env{
		Site:     site,
		Targets:  fetch.PlanSite(site),
		HTMLDir:  filepath.Join(dir, "html"),
		FeedsDir: filepath.Join(dir, "feeds"),
		Now:      testNow,
	}
	for _, d := range []string{env.HTMLDir, env.FeedsDir} {
		if err := os.MkdirAll(d, 0o755); err != nil {
			t.Fatal(err)
		}
	}

	for _, target := range env.Targets {
		content, ok := pages[target.Page]
		if !ok {
			continue
		}
		d := env.HTMLDir
		if target.Kind == fetch.KindFeed {
			d = env.FeedsDir
		}
		if err := os.WriteFile(filepath.Join(d, target.FileName()), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return env
}

func mapOutput(out Output) []item.Item {
	return item.NewMapper(func() time.Time { return testNow }).MapAll(out.Records)
}

type fakeClient map[string]string

func (f fakeClient) GetJSON(_ context.Context, rawURL string, v any) error {
	body, ok := f[rawURL]
	if !ok {
		return fmt.Errorf("HTTP error: 404 for %s", rawURL)
	}
	return json.Unmarshal([]byte(body), v)
}
