package scrape

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mibuhand/ai-news-direct/app/aggregate"
	"github.com/mibuhand/ai-news-direct/app/fetch"
	"github.com/mibuhand/ai-news-direct/app/item"
)

// activityEntry is one row of an organization's or user's activity log.
type activityEntry struct {
	Base         string
	Organization string
	Title        string
	URL          string
	Date         string
	Description  string
	Kind         string
	Objects      []item.Object
}

func (a activityEntry) Source() string { return aggregate.DefaultCrossRef.Source }

func (a activityEntry) Canonical(now time.Time) (item.Item, error) {
	if a.Title == "" {
		return item.Item{}, fmt.Errorf("%w: title", item.ErrMissingField)
	}

	var url string
	if a.URL != "" {
		url = fetch.JoinURL(a.Base, a.URL)
	}
	published := item.DateOrNow(a.Date, now)

	objects := make([]item.Object, 0, len(a.Objects))
	for _, o := range a.Objects {
		if o.URL != "" {
			o.URL = fetch.JoinURL(a.Base, o.URL)
		}
		objects = append(objects, o)
	}

	return item.Item{
		ID: activityIdentity.Of(map[string]string{
			"source":       a.Source(),
			"organization": a.Organization,
			"title":        a.Title,
			"url":          url,
			"date":         published[:len("2006-01-02")],
		}),
		Source:        a.Source(),
		Type:          cmp.Or(a.Kind, "activity"),
		Title:         a.Title,
		Description:   a.Description,
		URL:           url,
		PublishedDate: published,
		Organization:  a.Organization,
		Objects:       objects,
	}, nil
}

func scrapeActivity(_ context.Context, env Env) ([]Output, error) {
	if env.Site.Schema == nil {
		return nil, errors.New("activity site has no extraction schema")
	}

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
		for _, row := range Extract(doc, env.Site.Schema) {
			records = append(records, activityEntry{
				Base:         env.Site.Site,
				Organization: cmp.Or(stringField(row, "organization"), target.Subject),
				Title:        stringField(row, "title"),
				URL:          stringField(row, "url"),
				Date:         stringField(row, "date"),
				Description:  stringField(row, "description"),
				Kind:         stringField(row, "type"),
				Objects:      objectsField(row, "objects"),
			})
		}
	}
	if len(records) == 0 && len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return []Output{env.output("activity", aggregate.DefaultCrossRef.File, records)}, errors.Join(errs...)
}

func stringField(row map[string]any, name string) string {
	s, _ := row[name].(string)
	return item.Clean(s)
}

func objectsField(row map[string]any, name string) []item.Object {
	list, _ := row[name].([]any)
	var objects []item.Object
	for _, entry := range list {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		o := item.Object{
			Title: stringField(m, "title"),
			URL:   stringField(m, "url"),
			Type:  stringField(m, "type"),
		}
		if o.Title != "" || o.URL != "" {
			objects = append(objects, o)
		}
	}
	return objects
}
