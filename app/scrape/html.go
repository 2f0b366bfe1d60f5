package scrape

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/item"
)

// flightPush matches one streamed Next.js payload chunk; group 1 is the
// chunk as a JSON string literal.
var flightPush = regexp.MustCompile(`self\.__next_f\.push\(\[1,\s*("(?:[^"\\]|\\.)*")\]\)`)

func text(s *goquery.Selection) string {
	return item.Clean(s.Text())
}

// scripts returns the contents of every inline script containing needle.
func scripts(doc *goquery.Document, needle string) []string {
	var out []string
	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if body := s.Text(); strings.Contains(body, needle) {
			out = append(out, body)
		}
	})
	return out
}

// flightChunks decodes the Next.js flight chunks pushed by the page's
// scripts.
func flightChunks(doc *goquery.Document) []string {
	var chunks []string
	for _, body := range scripts(doc, "self.__next_f.push") {
		for _, m := range flightPush.FindAllStringSubmatch(body, -1) {
			var chunk string
			if err := json.Unmarshal([]byte(m[1]), &chunk); err != nil {
				continue
			}
			chunks = append(chunks, chunk)
		}
	}
	return chunks
}
