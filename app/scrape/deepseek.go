package scrape

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	deepseekBase      = "https://api-docs.deepseek.com"
	deepseekNewsPath  = "/zh-cn/news/"
	deepseekIndexText = "新闻"
)

var (
	deepseekTitleDate = regexp.MustCompile(`(\d{4})/(\d{1,2})/(\d{1,2})`)
	deepseekPathDate  = regexp.MustCompile(`/news/news(\d+)`)
)

// deepseekCategories is checked in order; the first marker found in the
// title wins.
var deepseekCategories = []struct{ marker, category string }{
	{"V3.1", "Model Update"},
	{"V3", "Model Release"},
	{"R1", "Reasoning Model"},
	{"APP", "Application"},
	{"API", "API Update"},
}

type deepseekNews struct {
	Title string
	Path  string
}

func (n deepseekNews) Source() string { return "deepseek" }

func (n deepseekNews) Canonical(now time.Time) (item.Item, error) {
	if n.Title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	url := fetch.JoinURL(deepseekBase, n.Path)
	published := item.FormatDate(deepseekDate(n.Title, n.Path, now))

	var categories []string
	for _, c := range deepseekCategories {
		if strings.Contains(n.Title, c.marker) {
			categories = []string{c.category}
			break
		}
	}

	return item.Item{
		ID: articleIdentity.Of(map[string]string{
			"source":         "deepseek",
			"title":          n.Title,
			"url":            url,
			"published_date": published,
		}),
		Source:        n.Source(),
		Type:          "news",
		Title:         n.Title,
		Description:   "DeepSeek news: " + n.Title,
		URL:           url,
		PublishedDate: published,
		Categories:    categories,
		Organization:  "DeepSeek",
		Metadata: map[string]any{
			"language": "zh-cn",
			"url_path": n.Path,
		},
	}, nil
}

// deepseekDate reads the date from a "YYYY/MM/DD" title, then from the news
// code in the path ("newsYYMMDD" or "newsMMDD" in the current year).
func deepseekDate(title, path string, now time.Time) time.Time {
	if m := deepseekTitleDate.FindStringSubmatch(title); m != nil {
		if t, ok := civilDate(m[1], m[2], m[3]); ok {
			return t
		}
	}

	if m := deepseekPathDate.FindStringSubmatch(path); m != nil {
		code := m[1]
		switch len(code) {
		case 6:
			century := "19"
			if code[0] == '2' {
				century = "20"
			}
			if t, ok := civilDate(century+code[:2], code[2:4], code[4:]); ok {
				return t
			}
		case 4:
			if t, ok := civilDate(strconv.Itoa(now.Year()), code[:2], code[2:]); ok {
				return t
			}
		}
	}
	return now
}

func civilDate(year, month, day string) (time.Time, bool) {
	y, err1 := strconv.Atoi(year)
	m, err2 := strconv.Atoi(month)
	d, err3 := strconv.Atoi(day)
	if err := errors.Join(err1, err2, err3); err != nil {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func scrapeDeepSeek(_ context.Context, env Env) ([]Output, error) {
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
		doc.Find(`a[href^="` + deepseekNewsPath + `"]`).Each(func(_ int, a *goquery.Selection) {
			title := text(a)
			path, _ := a.Attr("href")
			if title == deepseekIndexText || utf8.RuneCountInString(title) <= 3 {
				return
			}
			if _, dup := seen[path]; dup {
				return
			}
			seen[path] = struct{}{}
			records = append(records, deepseekNews{Title: title, Path: path})
		})
	}
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Output{env.output("news", "deepseek_news.json", records)}, errors.Join(errs...)
}
