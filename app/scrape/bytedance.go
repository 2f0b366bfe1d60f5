package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	seedBase       = "https://seed.bytedance.com/"
	seedRouterData = "window._ROUTER_DATA"
)

type seedContent struct {
	Title    string `json:"Title"`
	TitleKey string `json:"TitleKey"`
	Abstract string `json:"Abstract"`
}

type seedArticle struct {
	En   seedContent  `json:"ArticleSubContentEn"`
	Zh   *seedContent `json:"ArticleSubContentZh"`
	Meta struct {
		PublishDate  int64 `json:"PublishDate"`
		ResearchArea []struct {
			ResearchAreaName string `json:"ResearchAreaName"`
		} `json:"ResearchArea"`
		Author      string `json:"Author"`
		Journal     string `json:"Journal"`
		WorkingTeam []struct {
			Name string `json:"Name"`
		} `json:"WorkingTeam"`
		ExternalLinks []struct {
			Link string `json:"Link"`
		} `json:"ExternalLinks"`
	} `json:"ArticleMeta"`
}

type seedPost struct {
	Kind    string
	Article seedArticle
}

func (p seedPost) Source() string { return "bytedance_seed" }

func (p seedPost) Canonical(now time.Time) (item.Item, error) {
	a := p.Article
	if a.En.Title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	url := seedBase + "en/" + p.Kind + "/" + a.En.TitleKey
	published := item.FormatDate(now)
	var rawPublished string
	if a.Meta.PublishDate > 0 {
		published = item.FormatDate(item.FromUnixMillis(a.Meta.PublishDate))
		rawPublished = strconv.FormatInt(a.Meta.PublishDate, 10)
	}

	var abstractHash string
	if a.En.Abstract != "" {
		abstractHash = item.Digest(a.En.Abstract)[:8]
	}

	categories := make([]string, 0, len(a.Meta.ResearchArea))
	for _, area := range a.Meta.ResearchArea {
		categories = append(categories, area.ResearchAreaName)
	}

	it := item.Item{
		ID: abstractIdentity.Of(map[string]string{
			"source":        "bytedance_seed",
			"title":         a.En.Title,
			"url":           url,
			"published":     rawPublished,
			"abstract_hash": abstractHash,
		}),
		Source:        p.Source(),
		Type:          p.Kind,
		Title:         a.En.Title,
		Description:   a.En.Abstract,
		URL:           url,
		PublishedDate: published,
		Categories:    item.NonEmpty(categories...),
		Organization:  "ByteDance Seed",
	}

	if p.Kind == "research" {
		teams := make([]string, 0, len(a.Meta.WorkingTeam))
		for _, team := range a.Meta.WorkingTeam {
			teams = append(teams, team.Name)
		}
		it.Metadata = map[string]any{
			"author":    a.Meta.Author,
			"journal":   a.Meta.Journal,
			"work_team": teams,
		}
		if len(a.Meta.ExternalLinks) > 0 {
			it.ExternalURL = a.Meta.ExternalLinks[0].Link
		}
	}

	if zh := a.Zh; zh != nil && (zh.Title != "" || zh.Abstract != "" || zh.TitleKey != "") {
		zhURL := seedBase + "zh/" + p.Kind + "/" + zh.TitleKey
		it.Extra = map[string]json.RawMessage{
			"title_localized":       localized(a.En.Title, zh.Title),
			"description_localized": localized(a.En.Abstract, zh.Abstract),
			"url_localized":         localized(url, zhURL),
		}
	}
	return it, nil
}

func localized(en, zh string) json.RawMessage {
	data, _ := json.Marshal(map[string]string{"en": en, "zh": zh})
	return data
}

func scrapeByteDanceSeed(_ context.Context, env Env) ([]Output, error) {
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
		kind, articles, err := seedArticles(doc)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", target.FileName(), err))
			continue
		}

		records := make([]item.Record, 0, len(articles))
		for _, a := range articles {
			records = append(records, seedPost{Kind: kind, Article: a})
		}
		outputs = append(outputs, env.output(kind, "bytedance_seed_"+kind+".json", records))
	}
	return outputs, errors.Join(errs...)
}

// seedArticles decodes the router data embedded in a blog or research
// listing page.
func seedArticles(doc *goquery.Document) (string, []seedArticle, error) {
	bodies := scripts(doc, seedRouterData)
	if len(bodies) == 0 {
		return "", nil, errors.New("router data not found")
	}
	body := bodies[0]
	start := strings.IndexByte(body, '{')
	if start < 0 {
		return "", nil, errors.New("router data is empty")
	}

	var router struct {
		LoaderData map[string]json.RawMessage `json:"loaderData"`
	}
	if err := json.NewDecoder(strings.NewReader(body[start:])).Decode(&router); err != nil {
		return "", nil, fmt.Errorf("failed to decode router data: %w", err)
	}

	kind := ""
	for _, candidate := range []string{"blog", "research"} {
		for key := range router.LoaderData {
			if strings.Contains(key, candidate) {
				kind = candidate
				break
			}
		}
		if kind != "" {
			break
		}
	}
	if kind == "" {
		return "", nil, errors.New("unknown page type")
	}

	raw, ok := router.LoaderData["(locale$)/"+kind+"/page"]
	if !ok {
		return "", nil, fmt.Errorf("loader data for %s not found", kind)
	}
	var page struct {
		ArticleList []seedArticle `json:"article_list"`
	}
	if err := json.Unmarshal(raw, &page); err != nil {
		return "", nil, fmt.Errorf("failed to decode %s articles: %w", kind, err)
	}
	return kind, page.ArticleList, nil
}
