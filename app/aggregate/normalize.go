package aggregate

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mibuhand/ai-news-direct/app/item"
)

var (
	lower          = cases.Lower(language.Und)
	nonWordPattern = regexp.MustCompile(`[^\p{L}\p{N}_\s-]`)
	trackingParams = []string{"utm_", "sessionid", "ref"}
)

// Key identifies an item for deduplication.
type Key struct {
	Title       string
	URL         string
	Description string
}

func KeyOf(it item.Item) Key {
	return Key{
		Title:       NormalizeText(it.Title),
		URL:         NormalizeURL(it.URL),
		Description: NormalizeText(it.Description),
	}
}

// NormalizeText lowercases s, collapses Unicode whitespace to single
// spaces and strips punctuation other than word characters and hyphens.
func NormalizeText(s string) string {
	s = strings.Join(strings.Fields(lower.String(s)), " ")
	s = nonWordPattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

// NormalizeURL lowercases and trims u, then drops the fragment, tracking
// query parameters, a trailing slash on the path and a dangling ? or &.
func NormalizeURL(u string) string {
	u = strings.ToLower(strings.TrimSpace(u))
	if u == "" {
		return ""
	}

	if i := strings.IndexByte(u, '#'); i >= 0 {
		u = u[:i]
	}

	base, query, hasQuery := strings.Cut(u, "?")
	base = strings.TrimRight(base, "/")
	if !hasQuery {
		return base
	}

	var kept []string
	for _, param := range strings.Split(query, "&") {
		if param == "" || isTrackingParam(param) {
			continue
		}
		kept = append(kept, param)
	}

	if len(kept) == 0 {
		return base
	}
	return strings.TrimRight(base+"?"+strings.Join(kept, "&"), "?&")
}

func isTrackingParam(param string) bool {
	name, _, _ := strings.Cut(param, "=")
	for _, prefix := range trackingParams {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
