package scrape

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	huggingFaceBase   = "https://huggingface.co"
	trendingLimit     = 20
	papersLookback    = 30
	papersPerRanking  = 6
	summaryMaxRunes   = 200
	descriptionBreak  = "<br/>"
	papersFetchLimit  = 5
	papersDayLayout   = "2006-01-02"
	huggingFaceSource = "huggingface"
)

type huggingFaceRepo struct {
	ID           string   `json:"id"`
	Author       string   `json:"author"`
	Tags         []string `json:"tags"`
	Downloads    int64    `json:"downloads"`
	Likes        int64    `json:"likes"`
	CreatedAt    string   `json:"createdAt"`
	LastModified string   `json:"lastModified"`
	PipelineTag  string   `json:"pipeline_tag"`
}

type trendingRepo struct {
	Kind string
	Repo huggingFaceRepo
}

func (r trendingRepo) Source() string { return huggingFaceSource }

func (r trendingRepo) Canonical(now time.Time) (item.Item, error) {
	repo := r.Repo
	if repo.ID == "" {
		return item.Item{}, fmt.Errorf("%w: id", item.ErrMissingField)
	}

	var parts []string
	if repo.PipelineTag != "" {
		parts = append(parts, "Type: "+repo.PipelineTag)
	}
	if repo.Downloads > 0 {
		parts = append(parts, "Downloads: "+humanize.Comma(repo.Downloads))
	}
	if repo.Likes > 0 {
		parts = append(parts, "Likes: "+strconv.FormatInt(repo.Likes, 10))
	}
	if len(repo.Tags) > 0 {
		parts = append(parts, "Tags: "+strings.Join(repo.Tags[:min(3, len(repo.Tags))], ", "))
	}

	url := huggingFaceBase + "/" + repo.ID
	if r.Kind == "dataset" {
		url = huggingFaceBase + "/datasets/" + repo.ID
	}

	name := repo.ID
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}

	tags := repo.Tags
	if tags == nil {
		tags = []string{}
	}

	return item.Item{
		ID: referenceIdentity.Of(map[string]string{
			"source": huggingFaceSource,
			"ref":    repo.ID,
		}),
		Source:        r.Source(),
		Type:          r.Kind,
		Title:         repo.ID,
		Description:   strings.Join(parts, descriptionBreak),
		URL:           url,
		PublishedDate: item.DateOrNow(repo.CreatedAt, now),
		Categories:    item.NonEmpty(repo.PipelineTag),
		Metadata: map[string]any{
			"author":        repo.Author,
			"item_name":     name,
			"downloads":     repo.Downloads,
			"likes":         repo.Likes,
			"last_modified": repo.LastModified,
			"all_tags":      tags,
		},
	}, nil
}

type dailyPaper struct {
	Title       string `json:"title"`
	Summary     string `json:"summary"`
	PublishedAt string `json:"publishedAt"`
	NumComments int    `json:"numComments"`
	Paper       struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Summary     string `json:"summary"`
		PublishedAt string `json:"publishedAt"`
		Authors     []struct {
			Name string `json:"name"`
		} `json:"authors"`
		Upvotes     int      `json:"upvotes"`
		GithubStars int      `json:"githubStars"`
		GithubRepo  string   `json:"githubRepo"`
		ProjectPage string   `json:"projectPage"`
		AISummary   string   `json:"ai_summary"`
		AIKeywords  []string `json:"ai_keywords"`
	} `json:"paper"`

	fetchDate string
}

func (p dailyPaper) Source() string { return huggingFaceSource }

func (p dailyPaper) Canonical(now time.Time) (item.Item, error) {
	id := p.Paper.ID
	title := cmp.Or(p.Title, p.Paper.Title)
	if title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}
	summary := cmp.Or(p.Summary, p.Paper.Summary)
	github, project := p.Paper.GithubRepo, p.Paper.ProjectPage

	authors := make([]string, 0, len(p.Paper.Authors))
	for _, a := range p.Paper.Authors {
		if a.Name != "" {
			authors = append(authors, a.Name)
		}
	}

	var parts []string
	if summary != "" {
		parts = append(parts, truncate(summary, summaryMaxRunes))
	}
	if p.Paper.Upvotes > 0 {
		parts = append(parts, "Upvotes: "+strconv.Itoa(p.Paper.Upvotes))
	}
	if p.Paper.GithubStars > 0 {
		parts = append(parts, "GitHub Stars: "+strconv.Itoa(p.Paper.GithubStars))
	}
	if len(authors) > 0 {
		parts = append(parts, "Authors: "+strings.Join(authors[:min(3, len(authors))], ", "))
	}

	var arxiv string
	if id != "" {
		arxiv = "https://arxiv.org/abs/" + id
	}
	paperPage := huggingFaceBase + "/papers/" + id
	primary := cmp.Or(arxiv, project, github, paperPage)

	for _, link := range []struct{ url, label string }{
		{github, "GitHub"},
		{project, "Project Page"},
		{arxiv, "ArXiv"},
		{paperPage, "Hugging Face"},
	} {
		if link.url != "" && link.url != primary {
			parts = append(parts, fmt.Sprintf(`🔗 <a href="%s">%s</a>`, link.url, link.label))
		}
	}

	var external string
	switch {
	case primary != github:
		external = github
	case project != primary:
		external = project
	}

	keywords := p.Paper.AIKeywords
	if keywords == nil {
		keywords = []string{}
	}

	return item.Item{
		ID: referenceIdentity.Of(map[string]string{
			"source": "huggingface_paper",
			"ref":    id,
		}),
		Source:        p.Source(),
		Type:          "paper",
		Title:         title,
		Description:   strings.Join(parts, descriptionBreak),
		URL:           primary,
		ExternalURL:   external,
		PublishedDate: item.DateOrNow(cmp.Or(p.PublishedAt, p.Paper.PublishedAt, p.fetchDate), now),
		Categories:    []string{"research", "paper"},
		Metadata: map[string]any{
			"paper_id":     id,
			"upvotes":      p.Paper.Upvotes,
			"github_stars": p.Paper.GithubStars,
			"github_url":   github,
			"project_url":  project,
			"authors":      authors,
			"summary":      summary,
			"fetch_date":   p.fetchDate,
			"num_comments": p.NumComments,
			"ai_summary":   p.Paper.AISummary,
			"ai_keywords":  keywords,
		},
	}, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func scrapeHuggingFace(ctx context.Context, env Env) ([]Output, error) {
	var (
		outputs []Output
		errs    []error
	)

	for _, kind := range []string{"model", "dataset"} {
		records, err := trending(ctx, env.Client, kind)
		if err != nil {
			slog.Error("Failed to fetch trending", "type", kind, "error", err)
			errs = append(errs, err)
			continue
		}
		key := "trending_" + kind + "s"
		outputs = append(outputs, env.output(key, "huggingface_"+key+".json", records))
	}

	papers := dailyPapers(ctx, env.Client, env.Now)
	if len(papers) == 0 {
		errs = append(errs, errors.New("no daily papers fetched"))
	} else {
		outputs = append(outputs, env.output("daily_papers", "huggingface_daily_papers.json", topPapers(papers)))
	}

	return outputs, errors.Join(errs...)
}

func trending(ctx context.Context, client JSONGetter, kind string) ([]item.Record, error) {
	var resp struct {
		RecentlyTrending []struct {
			RepoData huggingFaceRepo `json:"repoData"`
		} `json:"recentlyTrending"`
	}
	url := fmt.Sprintf("%s/api/trending?type=%s&limit=%d", huggingFaceBase, kind, trendingLimit)
	if err := client.GetJSON(ctx, url, &resp); err != nil {
		return nil, err
	}

	records := make([]item.Record, 0, len(resp.RecentlyTrending))
	for _, t := range resp.RecentlyTrending {
		records = append(records, trendingRepo{Kind: kind, Repo: t.RepoData})
	}
	return records, nil
}

// paperDates lists the weekdays of the lookback window, starting yesterday.
func paperDates(now time.Time) []string {
	var dates []string
	for i := 1; i <= papersLookback; i++ {
		d := now.AddDate(0, 0, -i)
		if d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			continue
		}
		dates = append(dates, d.Format(papersDayLayout))
	}
	return dates
}

func dailyPapers(ctx context.Context, client JSONGetter, now time.Time) []dailyPaper {
	dates := paperDates(now)
	perDay := make([][]dailyPaper, len(dates))

	var g errgroup.Group
	g.SetLimit(papersFetchLimit)
	for i, date := range dates {
		g.Go(func() error {
			var papers []dailyPaper
			if err := client.GetJSON(ctx, huggingFaceBase+"/api/daily_papers?date="+date, &papers); err != nil {
				slog.Warn("Failed to fetch papers", "date", date, "error", err)
				return nil
			}
			for j := range papers {
				papers[j].fetchDate = date
			}
			perDay[i] = papers
			return nil
		})
	}
	_ = g.Wait()

	var all []dailyPaper
	for _, papers := range perDay {
		all = append(all, papers...)
	}
	slog.Info("Daily papers collected", "days", len(dates), "papers", len(all))
	return all
}

// topPapers keeps the most upvoted and the most starred papers, without
// duplicates.
func topPapers(papers []dailyPaper) []item.Record {
	byUpvotes := slices.Clone(papers)
	slices.SortStableFunc(byUpvotes, func(a, b dailyPaper) int {
		return b.Paper.Upvotes - a.Paper.Upvotes
	})
	byStars := slices.Clone(papers)
	slices.SortStableFunc(byStars, func(a, b dailyPaper) int {
		return b.Paper.GithubStars - a.Paper.GithubStars
	})

	combined := slices.Concat(byUpvotes[:min(papersPerRanking, len(byUpvotes))], byStars[:min(papersPerRanking, len(byStars))])
	seen := make(map[string]struct{}, len(combined))
	var records []item.Record
	for _, p := range combined {
		key := cmp.Or(p.Paper.ID, p.Title)
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		records = append(records, p)
	}
	return records
}
