package scrape

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	thinkingMachinesBase = "https://thinkingmachines.ai"
	thinkingMachinesLab  = "Thinking Machines Lab"

	// Post dates carry no year. A date is moved back a year when it would
	// land this far in the future, and forward a year when this far back.
	yearAheadLimit  = 60 * 24 * time.Hour
	yearBehindLimit = 545 * 24 * time.Hour
)

var thinkingMachinesTopics = []struct {
	markers  []string
	category string
}{
	{[]string{"lora", "fine-tuning"}, "Fine-tuning"},
	{[]string{"llm", "language model"}, "Language Models"},
	{[]string{"inference"}, "Inference"},
	{[]string{"manifold"}, "Theory"},
	{[]string{"tinker"}, "Tools"},
}

type thinkingMachinesPost struct {
	Title    string
	Path     string
	DateText string
	Author   string
}

func (p thinkingMachinesPost) Source() string { return "thinkingmachines" }

func (p thinkingMachinesPost) Canonical(now time.Time) (item.Item, error) {
	if utf8.RuneCountInString(p.Title) < 3 {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	url := fetch.JoinURL(thinkingMachinesBase, p.Path)
	published := item.FormatDate(inferYear(p.DateText, now))

	description := p.Title
	if p.Author != thinkingMachinesLab {
		description = p.Title + " by " + p.Author
	}

	return item.Item{
		ID: articleIdentity.Of(map[string]string{
			"source":         "thinkingmachines",
			"title":          p.Title,
			"url":            url,
			"published_date": published,
		}),
		Source:        p.Source(),
		Type:          "blog",
		Title:         p.Title,
		Description:   description,
		URL:           url,
		PublishedDate: published,
		Categories:    []string{thinkingMachinesCategory(p.Title)},
		Organization:  thinkingMachinesLab,
		Metadata: map[string]any{
			"author":    p.Author,
			"url_path":  p.Path,
			"date_text": p.DateText,
		},
	}, nil
}

// inferYear parses a "Jan 2" date in the year that places it closest to now.
func inferYear(dateText string, now time.Time) time.Time {
	t, err := time.Parse("Jan 2 2006", strings.TrimSpace(dateText)+" "+strconv.Itoa(now.Year()))
	if err != nil {
		return now
	}
	switch {
	case t.After(now.Add(yearAheadLimit)):
		t = t.AddDate(-1, 0, 0)
	case t.Before(now.Add(-yearBehindLimit)):
		t = t.AddDate(1, 0, 0)
	}
	return t
}

func thinkingMachinesCategory(title string) string {
	lower := strings.ToLower(title)
	for _, topic := range thinkingMachinesTopics {
		for _, marker := range topic.markers {
			if strings.Contains(lower, marker) {
				return topic.category
			}
		}
	}
	return "Research"
}

func scrapeThinkingMachines(_ context.Context, env Env) ([]Output, error) {
	var (
		records []item.Record
		errs    []error
		seen    = make(map[string]struct{})
	)
	for _, target := range env.Targets {
		doc, err := env.document(target)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		doc.Find("a.post-item-link").Each(func(_ int, a *goquery.Selection) {
			path, _ := a.Attr("href")
			if path == "" || path == "/blog/" {
				return
			}
			if _, dup := seen[path]; dup {
				return
			}
			seen[path] = struct{}{}

			author := text(a.Find("span.author").First())
			if author == "" {
				author = thinkingMachinesLab
			}
			records = append(records, thinkingMachinesPost{
				Title:    text(a.Find("div.post-title").First()),
				Path:     path,
				DateText: text(a.Find("time.desktop-time").First()),
				Author:   author,
			})
		})
	}
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Output{env.output("blog", "thinkingmachines_blog.json", records)}, errors.Join(errs...)
}
