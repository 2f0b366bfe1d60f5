package item

import (
	"encoding/json"
	"errors"
	"time"
)

var ErrMissingField = errors.New("missing required field")

// Item is the canonical record every source is mapped onto. Items are
// written to and read back from per-source JSON files.
type Item struct {
	ID             string
	Source         string
	OriginalSource string
	Type           string
	Title          string
	Description    string
	URL            string
	ExternalURL    string
	PublishedDate  string // ISO-8601, UTC
	Categories     []string
	Organization   string
	Metadata       map[string]any
	Objects        []Object

	// Extra holds fields that are not part of the canonical schema. They are
	// carried through unchanged when an item file is read and rewritten.
	Extra map[string]json.RawMessage
}

// Object is an entity an item refers to, such as a model or dataset touched
// by an activity.
type Object struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Type  string `json:"type"`
}

// Record is a raw, source-shaped record produced by a site adapter.
type Record interface {
	// Source is the slug of the adapter that produced the record.
	Source() string
	// Canonical maps the record onto an Item. now is used for dates that are
	// missing or relative.
	Canonical(now time.Time) (Item, error)
}

// WithSource returns a copy of it re-tagged as coming from source, recording
// where it was originally found.
func (it Item) WithSource(source, originalSource string) Item {
	it.Source = source
	it.OriginalSource = originalSource
	return it
}
