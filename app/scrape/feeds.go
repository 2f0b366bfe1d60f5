package scrape

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const feedsSuffix = "_feeds"

type feedEntry struct {
	Slug         string
	FeedName     string
	FeedType     string
	Organization string
	Title        string
	Description  string
	Link         string
	GUID         string
	Published    string
	Categories   []string
}

func (e feedEntry) Source() string { return e.Slug }

func (e feedEntry) Canonical(now time.Time) (item.Item, error) {
	if e.Title == "" && e.Link == "" {
		return item.Item{}, fmt.Errorf("%w: title and link", item.ErrMissingField)
	}

	published := item.DateOrNow(e.Published, now)
	idKey := "guid"
	if e.FeedType == "atom" {
		idKey = "entry_id"
	}

	return item.Item{
		ID: feedIdentity.Of(map[string]string{
			"source":         e.FeedName,
			"title":          e.Title,
			"url":            e.Link,
			"guid":           e.GUID,
			"published_date": published,
		}),
		Source:        e.Slug,
		Type:          "news",
		Title:         e.Title,
		Description:   e.Description,
		URL:           e.Link,
		PublishedDate: published,
		Categories:    item.NonEmpty(e.Categories...),
		Organization:  e.Organization,
		Metadata: map[string]any{
			idKey:       e.GUID,
			"feed_type": e.FeedType,
			"feed_name": e.FeedName,
		},
	}, nil
}

func scrapeFeeds(_ context.Context, env Env) ([]Output, error) {
	parser := gofeed.NewParser()
	source := env.Site.OrganizationKey + feedsSuffix

	var (
		records []item.Record
		errs    []error
	)
	for _, target := range env.Targets {
		path := filepath.Join(env.FeedsDir, target.FileName())
		data, err := os.ReadFile(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to read cached feed: %w", err))
			continue
		}

		feed, err := parser.ParseString(string(data))
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to parse feed %s: %w", path, err))
			continue
		}

		name := cmp.Or(target.Subject, target.CacheName)
		org := organizationName(env.Orgs, name)
		for _, entry := range feed.Items {
			records = append(records, feedEntryOf(entry, feed.FeedType, source, name, org))
		}
	}
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Output{env.output("feeds", source+".json", records)}, errors.Join(errs...)
}

func feedEntryOf(entry *gofeed.Item, feedType, source, name, org string) feedEntry {
	published := cmp.Or(entry.Published, entry.Updated)
	if entry.PublishedParsed != nil {
		published = item.FormatDate(*entry.PublishedParsed)
	} else if entry.UpdatedParsed != nil {
		published = item.FormatDate(*entry.UpdatedParsed)
	}

	return feedEntry{
		Slug:         source,
		FeedName:     name,
		FeedType:     feedType,
		Organization: org,
		Title:        strings.TrimSpace(entry.Title),
		Description:  strings.TrimSpace(entry.Description),
		Link:         strings.TrimSpace(entry.Link),
		GUID:         strings.TrimSpace(entry.GUID),
		Published:    published,
		Categories:   entry.Categories,
	}
}

// organizationName maps a feed name to the organization whose patterns it
// contains, falling back to the title-cased name.
func organizationName(orgs *config.Organizations, name string) string {
	lower := strings.ToLower(name)
	if orgs != nil {
		for _, org := range orgs.All() {
			if aggregate.Matches(name, org.Patterns) {
				return org.Name
			}
		}
		if org, err := orgs.Get(lower); err == nil {
			return org.Name
		}
	}
	return cases.Title(language.Und).String(name)
}
