package scrape

import (
	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/config"
)

const (
	fieldText      = "text"
	fieldAttribute = "attribute"
	fieldHTML      = "html"
	fieldNested    = "nested"
	fieldList      = "list"
)

// Extract applies a CSS extraction schema to doc. Every element matching the
// base selector yields one record. Fields that match nothing and have no
// default are left out of the record.
func Extract(doc *goquery.Document, schema *config.Schema) []map[string]any {
	var records []map[string]any
	doc.Find(schema.BaseSelector).Each(func(_ int, s *goquery.Selection) {
		records = append(records, extractFields(s, schema.Fields))
	})
	return records
}

func extractFields(s *goquery.Selection, fields []config.SchemaField) map[string]any {
	values := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := extractField(s, f); ok {
			values[f.Name] = v
		}
	}
	return values
}

func extractField(s *goquery.Selection, f config.SchemaField) (any, bool) {
	target := s
	if f.Selector != "" {
		target = s.Find(f.Selector)
	}

	switch f.Type {
	case fieldList:
		var list []any
		target.Each(func(_ int, el *goquery.Selection) {
			if len(f.Fields) == 0 {
				list = append(list, text(el))
				return
			}
			list = append(list, extractFields(el, f.Fields))
		})
		return list, len(list) > 0
	case fieldNested:
		if target.Length() == 0 {
			return nil, false
		}
		return extractFields(target.First(), f.Fields), true
	}

	var v string
	if el := target.First(); el.Length() > 0 {
		switch f.Type {
		case fieldAttribute:
			v = el.AttrOr(f.Attribute, "")
		case fieldHTML:
			v, _ = goquery.OuterHtml(el)
		default:
			v = text(el)
		}
	}
	if v == "" {
		v = f.Default
	}
	return v, v != ""
}
