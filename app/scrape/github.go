package scrape

import (
	"context"
	"errors"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const githubBase = "https://github.com"

var leadingCount = regexp.MustCompile(`\d+(?:,\d+)*`)

type githubRepository struct {
	Name        string
	URL         string
	Description string
	Language    string
	Stars       int
	Forks       int
	StarsToday  int
}

func (r githubRepository) Source() string { return "github" }

func (r githubRepository) Canonical(now time.Time) (item.Item, error) {
	return item.Item{
		ID: repositoryIdentity.Of(map[string]string{
			"source": "github_trending",
			"name":   r.Name,
			"url":    r.URL,
		}),
		Source:        r.Source(),
		Type:          "trending_repository",
		Title:         r.Name,
		Description:   r.Description,
		URL:           r.URL,
		PublishedDate: item.FormatDate(now),
		Categories:    item.NonEmpty(r.Language),
		Metadata: map[string]any{
			"stars":       r.Stars,
			"forks":       r.Forks,
			"stars_today": r.StarsToday,
			"language":    r.Language,
		},
	}, nil
}

// parseCount reads counts such as "1,234" and "12.5k".
func parseCount(s string) int {
	s = strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if strings.Contains(s, "k") {
		f, err := strconv.ParseFloat(strings.ReplaceAll(s, "k", ""), 64)
		if err != nil {
			return 0
		}
		return int(f * 1000)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}

func scrapeGitHubTrending(_ context.Context, env Env) ([]Output, error) {
	var (
		outputs []Output
		errs    []error
	)
	for _, target := range env.Targets {
		doc, err := env.document(target)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		repos := trendingRepositories(doc)
		slices.SortStableFunc(repos, func(a, b githubRepository) int {
			return b.StarsToday - a.StarsToday
		})

		records := make([]item.Record, 0, len(repos))
		for _, r := range repos {
			records = append(records, r)
		}
		out := env.output(target.Page, "github_trending.json", records)
		out.Ranked = true
		outputs = append(outputs, out)
	}
	return outputs, errors.Join(errs...)
}

func trendingRepositories(doc *goquery.Document) []githubRepository {
	var repos []githubRepository
	doc.Find("article.Box-row").Each(func(_ int, article *goquery.Selection) {
		link := article.Find("h2 a").First()
		href, ok := link.Attr("href")
		if !ok {
			return
		}

		var today int
		if m := leadingCount.FindString(text(article.Find("span.float-sm-right").First())); m != "" {
			today = parseCount(m)
		}

		repos = append(repos, githubRepository{
			Name:        strings.Join(strings.Fields(link.Text()), ""),
			URL:         fetch.JoinURL(githubBase, href),
			Description: text(article.Find("p.col-9").First()),
			Language:    text(article.Find(`span[itemprop="programmingLanguage"]`).First()),
			Stars:       parseCount(article.Find(`a[href$="/stargazers"]`).First().Text()),
			Forks:       parseCount(article.Find(`a[href$="/forks"]`).First().Text()),
			StarsToday:  today,
		})
	})
	return repos
}
