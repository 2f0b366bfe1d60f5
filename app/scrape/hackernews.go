package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	hackerNewsAPI        = "https://hacker-news.firebaseio.com/v0"
	hackerNewsDiscussion = "https://news.ycombinator.com/item?id="
	hackerNewsLimit      = 50
	hackerNewsWorkers    = 5
)

type hackerNewsStory struct {
	ID          int64  `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	By          string `json:"by"`
	Time        int64  `json:"time"`
	Score       int    `json:"score"`
	Descendants int    `json:"descendants"`
}

func (s hackerNewsStory) Source() string { return "hackernews" }

func (s hackerNewsStory) Canonical(_ time.Time) (item.Item, error) {
	if s.ID == 0 {
		return item.Item{}, fmt.Errorf("%w: id", item.ErrMissingField)
	}
	if s.Title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	discussion := hackerNewsDiscussion + strconv.FormatInt(s.ID, 10)
	url, external := s.URL, discussion
	if url == "" {
		url, external = discussion, ""
	}

	return item.Item{
		ID: referenceIdentity.Of(map[string]string{
			"source": "hackernews",
			"ref":    strconv.FormatInt(s.ID, 10),
		}),
		Source:        s.Source(),
		Type:          "story",
		Title:         s.Title,
		URL:           url,
		ExternalURL:   external,
		PublishedDate: item.FormatDate(time.Unix(s.Time, 0)),
		Organization:  "Hacker News",
		Metadata: map[string]any{
			"score":    s.Score,
			"author":   s.By,
			"comments": s.Descendants,
			"hn_id":    s.ID,
		},
	}, nil
}

func scrapeHackerNews(ctx context.Context, env Env) ([]Output, error) {
	var ids []int64
	if err := env.Client.GetJSON(ctx, hackerNewsAPI+"/beststories.json", &ids); err != nil {
		return nil, fmt.Errorf("failed to fetch best stories: %w", err)
	}
	if len(ids) > hackerNewsLimit {
		ids = ids[:hackerNewsLimit]
	}

	stories := make([]*hackerNewsStory, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(hackerNewsWorkers)
	for i, id := range ids {
		g.Go(func() error {
			var story hackerNewsStory
			url := fmt.Sprintf("%s/item/%d.json", hackerNewsAPI, id)
			if err := env.Client.GetJSON(gctx, url, &story); err != nil {
				slog.Warn("Failed to fetch story", "id", id, "error", err)
				return nil
			}
			if story.Type == "story" {
				stories[i] = &story
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	records := make([]item.Record, 0, len(stories))
	for _, s := range stories {
		if s != nil {
			records = append(records, *s)
		}
	}
	slog.Info("Fetched Hacker News stories", "stories", len(records), "requested", len(ids))
	return []Output{env.output("beststories", "hackernews_beststories.json", records)}, nil
}
