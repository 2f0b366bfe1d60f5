package feed

import (
	"bytes"
	"cmp"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"html"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/config"
	"github.com/mibuhand/ai-news-direct/app/item"
)

const (
	DefaultIcon     = "https://upload.wikimedia.org/wikipedia/en/4/43/Feed-icon.svg"
	DefaultSelfBase = "https://raw.githubusercontent.com/mibuhand/AI-News-Direct/main/feeds"

	authorName   = "AI News Direct"
	idPrefix     = "tag:ai-news-direct.local,2025:"
	summarySep   = " | "
	minExtraSize = 10
)

// summaryExcluded are item keys that have their own Atom element or are too
// structured to be shown as a summary line.
var summaryExcluded = map[string]bool{
	"title": true, "id": true, "url": true, "external_url": true, "published_date": true,
	"date": true, "categories": true, "description": true, "organization": true,
	"source": true, "type": true, "metadata": true, "objects": true,
}

type Options struct {
	// SelfBase is the public location the feeds directory is published at.
	SelfBase string
	Version  string
	Now      func() time.Time
}

// Generator renders item lists as Atom documents.
type Generator struct {
	cfg      *config.Config
	selfBase string
	version  string
	now      func() time.Time
}

// Generated summarizes one written feed.
type Generated struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Entries int    `json:"entries"`
}

func NewGenerator(cfg *config.Config, opts Options) *Generator {
	if cfg == nil {
		cfg = &config.Config{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Generator{
		cfg:      cfg,
		selfBase: strings.TrimRight(cmp.Or(opts.SelfBase, DefaultSelfBase), "/"),
		version:  opts.Version,
		now:      opts.Now,
	}
}

// Run renders the feed called name. The name is the parsed file name without
// its extension and also names the feed's public file.
func (g *Generator) Run(name string, items []item.Item) (string, error) {
	var buf bytes.Buffer
	now := item.FormatDate(g.now())

	buf.WriteString(`<?xml version="1.0" encoding="utf-8"?>`)
	buf.WriteString("\n")
	buf.WriteString(`<feed xmlns="http://www.w3.org/2005/Atom">`)
	buf.WriteString("\n")

	g.writeElement(&buf, "title", g.title(name), 2)
	g.writeElement(&buf, "id", idPrefix+name, 2)
	icon := g.icon(name)
	g.writeElement(&buf, "icon", icon, 2)
	g.writeElement(&buf, "logo", icon, 2)
	g.writeElement(&buf, "updated", now, 2)
	buf.WriteString("  <author>\n")
	g.writeElement(&buf, "name", authorName, 4)
	buf.WriteString("  </author>\n")
	g.writeLink(&buf, fmt.Sprintf("%s/%s.xml", g.selfBase, name), "self", "", 2)
	if g.version != "" {
		fmt.Fprintf(&buf, "  <generator version=\"%s\">", html.EscapeString(g.version))
		xml.EscapeText(&buf, []byte(authorName))
		buf.WriteString("</generator>\n")
	}

	for _, it := range items {
		g.writeEntry(&buf, name, it)
	}

	buf.WriteString("</feed>\n")

	return buf.String(), nil
}

func (g *Generator) writeEntry(buf *bytes.Buffer, name string, it item.Item) {
	buf.WriteString("  <entry>\n")

	g.writeElement(buf, "title", cmp.Or(it.Title, "Untitled"), 4)
	g.writeElement(buf, "id", cmp.Or(it.ID, it.URL, fmt.Sprintf("urn:%s:%s", name, item.Digest(it.Title))), 4)
	if it.URL != "" {
		g.writeLink(buf, it.URL, "", "", 4)
	}
	if it.ExternalURL != "" && it.ExternalURL != it.URL {
		g.writeLink(buf, it.ExternalURL, "replies", "Discussion", 4)
	}
	g.writeElement(buf, "updated", g.entryDate(it.PublishedDate), 4)

	for _, category := range it.Categories {
		if category != "" {
			fmt.Fprintf(buf, "    <category term=\"%s\"/>\n", html.EscapeString(category))
		}
	}

	if summary := g.summary(it); summary != "" {
		g.writeElement(buf, "summary", summary, 4)
	} else {
		buf.WriteString("    <summary/>\n")
	}

	buf.WriteString("  </entry>\n")
}

func (g *Generator) writeLink(buf *bytes.Buffer, href, rel, title string, indent int) {
	buf.WriteString(strings.Repeat(" ", indent))
	fmt.Fprintf(buf, "<link href=\"%s\"", html.EscapeString(href))
	if rel != "" {
		fmt.Fprintf(buf, " rel=\"%s\"", rel)
	}
	if title != "" {
		fmt.Fprintf(buf, " title=\"%s\"", html.EscapeString(title))
	}
	buf.WriteString("/>\n")
}

func (g *Generator) writeElement(buf *bytes.Buffer, tag, content string, indent int) {
	if content == "" {
		return
	}

	buf.WriteString(strings.Repeat(" ", indent))
	buf.WriteString("<")
	buf.WriteString(tag)
	buf.WriteString(">")
	xml.EscapeText(buf, []byte(content))
	buf.WriteString("</")
	buf.WriteString(tag)
	buf.WriteString(">\n")
}

// title prefers the configured feed title of an organization's aggregated
// feed and otherwise title-cases the file name.
func (g *Generator) title(name string) string {
	if key, ok := strings.CutSuffix(name, aggregate.AggregatedSuffix); ok && g.cfg.Organizations != nil {
		if org, err := g.cfg.Organizations.Get(key); err == nil && org.FeedTitle != "" {
			return org.FeedTitle
		}
	}
	return cases.Title(language.Und).String(strings.ReplaceAll(name, "_", " "))
}

func (g *Generator) icon(name string) string {
	if key, ok := strings.CutSuffix(name, aggregate.AggregatedSuffix); ok && g.cfg.Organizations != nil {
		if org, err := g.cfg.Organizations.Get(key); err == nil && org.IconURL != "" {
			return org.IconURL
		}
	}
	if site := g.cfg.SiteFor(name); site != nil && site.FaviconURL != "" {
		return site.FaviconURL
	}
	return DefaultIcon
}

func (g *Generator) entryDate(s string) string {
	if t, ok := item.ParseISO(s); ok {
		return item.FormatDate(t)
	}
	return item.FormatDate(g.now())
}

func (g *Generator) summary(it item.Item) string {
	var parts []string

	if it.Description != "" {
		parts = append(parts, it.Description)
	}

	if len(it.Objects) > 0 {
		related := make([]string, 0, len(it.Objects))
		for _, obj := range it.Objects {
			related = append(related, fmt.Sprintf("%s (%s) - %s", obj.Title, obj.Type, obj.URL))
		}
		parts = append(parts, "Related: "+strings.Join(related, "; "))
	}

	parts = append(parts, extraLines(it)...)

	if it.Source == "hackernews" && it.ExternalURL != "" && it.ExternalURL != it.URL {
		parts = append(parts, hackerNewsLine(it))
	}

	return strings.Join(parts, summarySep)
}

// extraLines renders the substantial scalar fields outside the canonical
// set, original_source first and unknown keys in name order.
func extraLines(it item.Item) []string {
	var lines []string
	caser := cases.Title(language.Und)
	add := func(key, value string) {
		if summaryExcluded[key] || len(value) <= minExtraSize {
			return
		}
		lines = append(lines, fmt.Sprintf("%s: %s", caser.String(strings.ReplaceAll(key, "_", " ")), value))
	}

	add("original_source", it.OriginalSource)

	keys := make([]string, 0, len(it.Extra))
	for key := range it.Extra {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	for _, key := range keys {
		var value any
		if err := json.Unmarshal(it.Extra[key], &value); err != nil {
			continue
		}
		switch v := value.(type) {
		case string:
			add(key, v)
		case float64:
			add(key, strconv.FormatFloat(v, 'f', -1, 64))
		}
	}
	return lines
}

func hackerNewsLine(it item.Item) string {
	line := "Score: " + number(it.Metadata["score"])
	if comments, ok := toFloat(it.Metadata["comments"]); ok && comments > 0 {
		line += summarySep + "Comments: " + number(comments)
	}
	if author, ok := it.Metadata["author"].(string); ok && author != "" {
		line += summarySep + "By: " + author
	}
	return line + summarySep + "Discussion: " + it.ExternalURL
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func number(v any) string {
	if f, ok := toFloat(v); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if v == nil {
		return "0"
	}
	return fmt.Sprint(v)
}

// GenerateAll renders every JSON list in parsedDir to feedsDir/<name>.xml.
// Files that are unreadable or hold no items are skipped.
func (g *Generator) GenerateAll(parsedDir, feedsDir string) ([]Generated, error) {
	paths, err := filepath.Glob(filepath.Join(parsedDir, "*.json"))
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(feedsDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create feeds directory: %w", err)
	}
	slices.Sort(paths)

	var generated []Generated
	for _, path := range paths {
		name := strings.TrimSuffix(filepath.Base(path), ".json")

		items, err := item.ReadFile(path)
		if err != nil {
			slog.Warn("Skipping unreadable item file", "file", path, "error", err)
			continue
		}
		if len(items) == 0 {
			slog.Debug("Skipping empty item file", "file", path)
			continue
		}

		doc, err := g.Run(name, items)
		if err != nil {
			return generated, fmt.Errorf("failed to generate %s: %w", name, err)
		}

		out := filepath.Join(feedsDir, name+".xml")
		if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
			return generated, fmt.Errorf("failed to write %s: %w", out, err)
		}

		slog.Info("Feed generated", "feed", name, "entries", len(items))
		generated = append(generated, Generated{Name: name, Path: out, Entries: len(items)})
	}

	return generated, nil
}
