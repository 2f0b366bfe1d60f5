package fetch

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/mibuhand/ai-news-direct/app/config"
)

type Kind string

const (
	KindHTML Kind = "html"
	KindFeed Kind = "feed"
)

var nonWord = regexp.MustCompile(`[^\p{L}\p{N}_]`)

// Target is one URL to download and the cache file it is stored under.
type Target struct {
	URL       string
	Domain    string
	Page      string
	Kind      Kind
	CacheName string
	Site      *config.Site

	// Subject is the organization or user a matrix page belongs to, or the
	// feed name for feed targets.
	Subject string
}

// FileName is the cache file name including its extension.
func (t Target) FileName() string {
	if t.Kind == KindFeed {
		return t.CacheName + ".xml"
	}
	return t.CacheName + ".html"
}

// Plan expands the site list into fetch targets.
func Plan(sites []config.Site) []Target {
	var targets []Target
	for i := range sites {
		targets = append(targets, PlanSite(&sites[i])...)
	}
	return targets
}

func PlanSite(site *config.Site) []Target {
	base := site.Site
	domain := DomainOf(base)
	pages := site.Pages
	if len(pages) == 0 {
		pages = []string{""}
	}

	var targets []Target
	add := func(page string, kind Kind, subject string) {
		targets = append(targets, Target{
			URL:       JoinURL(base, page),
			Domain:    domain,
			Page:      page,
			Kind:      kind,
			CacheName: CacheName(domain, page),
			Site:      site,
			Subject:   subject,
		})
	}

	switch site.Type {
	case config.SiteTypeAPI:
		return nil
	case config.SiteTypeOrganizationMatrix:
		for _, org := range site.Organizations {
			for _, page := range pages {
				add(site.BasePath+org+page, KindHTML, strings.Trim(org, "/"))
			}
		}
	case config.SiteTypeUserProfiles:
		for _, user := range site.Users {
			for _, page := range pages {
				add(user+page, KindHTML, strings.Trim(user, "/"))
			}
		}
	case config.SiteTypeFeeds:
		for _, feed := range site.Feeds {
			if feed.URL == "" {
				continue
			}
			page := strings.TrimLeft(strings.TrimPrefix(feed.URL, base), "/")
			add(page, KindFeed, feed.Name)
		}
	default:
		for _, page := range pages {
			add(page, KindHTML, "")
		}
	}
	return targets
}

// DomainOf returns the host part of a base URL with non-word characters
// replaced by underscores.
func DomainOf(base string) string {
	host := base
	if i := strings.Index(host, "//"); i >= 0 {
		host = host[i+2:]
	}
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	return nonWord.ReplaceAllString(host, "_")
}

// CacheName builds the "<domain>_<page>" cache key. An empty page is
// stored as "index".
func CacheName(domain, page string) string {
	domain = nonWord.ReplaceAllString(domain, "_")
	page = nonWord.ReplaceAllString(strings.ReplaceAll(page, "/", "_"), "_")
	if page == "" {
		page = "index"
	}
	return domain + "_" + page
}

// JoinURL resolves page against base, treating base as a directory.
func JoinURL(base, page string) string {
	b, err := url.Parse(strings.TrimRight(base, "/") + "/")
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(page, "/")
	}
	p, err := url.Parse(page)
	if err != nil {
		return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(page, "/")
	}
	return b.ResolveReference(p).String()
}
