package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	anthropicBase        = "https://www.anthropic.com"
	anthropicResearchURL = "https://www.anthropic.com/research/"
)

type anthropicListing struct {
	kind     string
	post     string
	title    string
	titleAlt string
	date     string
}

var anthropicListings = []anthropicListing{
	{
		kind:  "news",
		post:  `a[class*="PostCard_post-card"]`,
		title: `h3[class*="PostCard_post-heading"]`,
		date:  `div[class*="PostList_post-date"]`,
	},
	{
		kind:     "engineering",
		post:     `a[class*="ArticleList_cardLink"]`,
		title:    "h3.display-sans-s",
		titleAlt: "h2.display-sans-l",
		date:     `div[class*="ArticleList_date"]`,
	},
}

var isoDay = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)

type anthropicPost struct {
	Kind        string
	Title       string
	URL         string
	Date        string
	ExternalURL string
	Categories  []string
}

func (p anthropicPost) Source() string { return "anthropic" }

func (p anthropicPost) Canonical(now time.Time) (item.Item, error) {
	if p.Title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	published := item.DateOrNow(p.Date, now)
	var id string
	if p.Kind == "research" {
		id = researchIdentity.Of(map[string]string{
			"source":     "anthropic_research",
			"title":      p.Title,
			"url":        p.URL,
			"published":  p.Date,
			"categories": strings.Join(p.Categories, "_"),
		})
	} else {
		id = articleIdentity.Of(map[string]string{
			"source":         "anthropic",
			"title":          p.Title,
			"url":            p.URL,
			"published_date": published,
		})
	}

	return item.Item{
		ID:            id,
		Source:        p.Source(),
		Type:          p.Kind,
		Title:         p.Title,
		URL:           p.URL,
		ExternalURL:   p.ExternalURL,
		PublishedDate: published,
		Categories:    p.Categories,
		Organization:  "Anthropic",
	}, nil
}

func scrapeAnthropic(_ context.Context, env Env) ([]Output, error) {
	var (
		outputs []Output
		errs    []error
	)
	for _, target := range env.Targets {
		kind := anthropicKind(target)
		if kind == "" {
			slog.Warn("Unrecognized Anthropic page", "file", target.FileName())
			continue
		}

		doc, err := env.document(target)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		var records []item.Record
		if kind == "research" {
			records, err = anthropicResearch(doc)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", target.FileName(), err))
				continue
			}
		} else {
			records = anthropicArticles(doc, kind)
		}
		outputs = append(outputs, env.output(kind, "anthropic_"+kind+".json", records))
	}
	return outputs, errors.Join(errs...)
}

func anthropicKind(target fetch.Target) string {
	for _, kind := range []string{"news", "engineering", "research"} {
		if strings.Contains(target.CacheName, kind) {
			return kind
		}
	}
	return ""
}

func anthropicArticles(doc *goquery.Document, kind string) []item.Record {
	var listing anthropicListing
	for _, l := range anthropicListings {
		if l.kind == kind {
			listing = l
		}
	}

	var flight string
	var records []item.Record
	doc.Find(listing.post).Each(func(_ int, post *goquery.Selection) {
		title := text(post.Find(listing.title).First())
		if title == "" && listing.titleAlt != "" {
			title = text(post.Find(listing.titleAlt).First())
		}
		href, _ := post.Attr("href")

		date := text(post.Find(listing.date).First())
		if date == "" {
			if flight == "" {
				flight = strings.Join(scripts(doc, "publishedOn"), "\n")
			}
			date = flightDate(flight, title)
		}

		records = append(records, anthropicPost{
			Kind:  kind,
			Title: title,
			URL:   fetch.JoinURL(anthropicBase, href),
			Date:  date,
		})
	})
	return records
}

// flightDate finds the publishedOn day closest before title in the page's
// embedded data.
func flightDate(data, title string) string {
	if title == "" {
		return ""
	}
	lower := strings.ToLower(data)
	at := strings.LastIndex(lower, strings.ToLower(title))
	if at < 0 {
		return ""
	}
	from := strings.LastIndex(lower[:at], "publishedon")
	if from < 0 {
		return ""
	}
	return isoDay.FindString(lower[from:at])
}

type anthropicResearchPost struct {
	Title string `json:"title"`
	Slug  struct {
		Current string `json:"current"`
	} `json:"slug"`
	PublishedOn string `json:"publishedOn"`
	Subjects    []struct {
		Label string `json:"label"`
	} `json:"subjects"`
	CTA json.RawMessage `json:"cta"`
}

func anthropicResearch(doc *goquery.Document) ([]item.Record, error) {
	for _, chunk := range flightChunks(doc) {
		if !strings.Contains(chunk, "publishedOn") {
			continue
		}
		colon := strings.IndexByte(chunk, ':')
		if colon < 0 {
			continue
		}

		var tree any
		if err := json.Unmarshal([]byte(chunk[colon+1:]), &tree); err != nil {
			continue
		}
		raw := findPublications(tree)
		if raw == nil {
			continue
		}

		data, err := json.Marshal(raw)
		if err != nil {
			return nil, err
		}
		var posts []anthropicResearchPost
		if err := json.Unmarshal(data, &posts); err != nil {
			return nil, fmt.Errorf("failed to decode publications: %w", err)
		}

		records := make([]item.Record, 0, len(posts))
		for _, p := range posts {
			var cta struct {
				URL string `json:"url"`
			}
			_ = json.Unmarshal(p.CTA, &cta)

			categories := make([]string, 0, len(p.Subjects))
			for _, s := range p.Subjects {
				categories = append(categories, s.Label)
			}

			records = append(records, anthropicPost{
				Kind:        "research",
				Title:       p.Title,
				URL:         anthropicResearchURL + p.Slug.Current,
				Date:        p.PublishedOn,
				ExternalURL: cta.URL,
				Categories:  item.NonEmpty(categories...),
			})
		}
		return records, nil
	}
	return nil, errors.New("publications data not found")
}

// findPublications walks the decoded page data for the section titled
// "Publications" and returns its posts.
func findPublications(node any) []any {
	switch v := node.(type) {
	case map[string]any:
		if v["title"] == "Publications" {
			if posts, ok := v["posts"].([]any); ok {
				return posts
			}
		}
		for _, child := range v {
			if posts := findPublications(child); posts != nil {
				return posts
			}
		}
	case []any:
		for _, child := range v {
			if posts := findPublications(child); posts != nil {
				return posts
			}
		}
	}
	return nil
}
