package scrape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const openaiBase = "https://openai.com"

type openaiPost struct {
	Title       string
	URL         string
	Description string
	Date        string
	PostType    string
}

func (p openaiPost) Source() string { return "openai" }

func (p openaiPost) Canonical(now time.Time) (item.Item, error) {
	if p.Title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	published := item.DateOrNow(p.Date, now)
	kind := strings.ToLower(p.PostType)
	if kind == "" {
		kind = "news"
	}

	var metadata map[string]any
	if p.PostType != "" {
		metadata = map[string]any{"post_type": p.PostType}
	}

	return item.Item{
		ID: typedArticleIdentity.Of(map[string]string{
			"source":         "openai",
			"title":          p.Title,
			"url":            p.URL,
			"published_date": published,
			"type":           p.PostType,
		}),
		Source:        p.Source(),
		Type:          kind,
		Title:         p.Title,
		Description:   p.Description,
		URL:           p.URL,
		PublishedDate: published,
		Categories:    item.NonEmpty(p.PostType),
		Organization:  "OpenAI",
		Metadata:      metadata,
	}, nil
}

func scrapeOpenAI(_ context.Context, env Env) ([]Output, error) {
	var (
		records []item.Record
		errs    []error
	)
	for _, target := range env.Targets {
		doc, err := env.document(target)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		records = append(records, openaiPosts(doc)...)
	}
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Output{env.output("research", "openai_research.json", records)}, errors.Join(errs...)
}

func openaiPosts(doc *goquery.Document) []item.Record {
	var records []item.Record
	grid := doc.Find("div.grid").First()
	grid.Find(`div[class*="py-md"][class*="border-primary-12"]`).Each(func(_ int, article *goquery.Selection) {
		title := text(article.Find("div.text-h5").First())
		if title == "" {
			return
		}

		post := openaiPost{
			Title:       title,
			Description: text(article.Find("p.text-p2").First()),
		}
		if href, ok := article.Find("a").First().Attr("href"); ok {
			post.URL = fetch.JoinURL(openaiBase, href)
		}

		meta := article.Find("div.text-meta").First()
		post.PostType = text(meta.Find("div").First())
		if t := article.Find("time").First(); t.Length() > 0 {
			post.Date = t.AttrOr("datetime", text(t))
		}

		records = append(records, post)
	})
	return records
}
