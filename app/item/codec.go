package item

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

var canonicalKeys = []string{
	"id", "source", "original_source", "type", "title", "description", "url",
	"external_url", "published_date", "categories", "organization", "metadata", "objects",
}

// wireItem fixes the key order of the canonical fields on output.
type wireItem struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	OriginalSource string         `json:"original_source,omitempty"`
	Type           string         `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	URL            string         `json:"url"`
	ExternalURL    string         `json:"external_url,omitempty"`
	PublishedDate  string         `json:"published_date"`
	Categories     []string       `json:"categories"`
	Organization   string         `json:"organization,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	Objects        []Object       `json:"objects,omitempty"`
}

func (it Item) MarshalJSON() ([]byte, error) {
	w := wireItem{
		ID:             it.ID,
		Source:         it.Source,
		OriginalSource: it.OriginalSource,
		Type:           it.Type,
		Title:          it.Title,
		Description:    it.Description,
		URL:            it.URL,
		ExternalURL:    it.ExternalURL,
		PublishedDate:  it.PublishedDate,
		Categories:     it.Categories,
		Organization:   it.Organization,
		Metadata:       it.Metadata,
		Objects:        it.Objects,
	}
	if w.Categories == nil {
		w.Categories = []string{}
	}

	data, err := encode(w)
	if err != nil {
		return nil, err
	}
	if len(it.Extra) == 0 {
		return data, nil
	}

	keys := make([]string, 0, len(it.Extra))
	for k := range it.Extra {
		if !slices.Contains(canonicalKeys, k) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	buf.Write(data[:len(data)-1])
	for _, k := range keys {
		buf.WriteByte(',')
		buf.WriteString(strconv.Quote(k))
		buf.WriteByte(':')
		buf.Write(it.Extra[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an item leniently. Scalars of any JSON type are
// accepted for string fields and unknown keys are kept in Extra.
func (it *Item) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*it = Item{}
	it.ID = looseString(raw["id"])
	it.Source = looseString(raw["source"])
	it.OriginalSource = looseString(raw["original_source"])
	it.Type = looseString(raw["type"])
	it.Title = looseString(raw["title"])
	it.Description = looseString(raw["description"])
	it.URL = looseString(raw["url"])
	it.ExternalURL = looseString(raw["external_url"])
	it.PublishedDate = looseString(raw["published_date"])
	it.Organization = looseString(raw["organization"])
	it.Categories = looseStrings(raw["categories"])
	it.Objects = looseObjects(raw["objects"])

	if m, ok := raw["metadata"]; ok {
		if err := json.Unmarshal(m, &it.Metadata); err != nil {
			it.Metadata = nil
		}
	}

	for k, v := range raw {
		if !slices.Contains(canonicalKeys, k) {
			it.setExtra(k, v)
		}
	}
	return nil
}

func (it *Item) setExtra(key string, value json.RawMessage) {
	if it.Extra == nil {
		it.Extra = make(map[string]json.RawMessage)
	}
	it.Extra[key] = value
}

func looseString(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return ""
	}
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

func looseStrings(raw json.RawMessage) []string {
	var values []json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s := looseString(v); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func looseObjects(raw json.RawMessage) []Object {
	var values []map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil
	}
	out := make([]Object, 0, len(values))
	for _, v := range values {
		obj := Object{
			Title: firstNonEmpty(looseString(v["title"]), looseString(v["obj_title"])),
			URL:   firstNonEmpty(looseString(v["url"]), looseString(v["obj_url"])),
			Type:  firstNonEmpty(looseString(v["type"]), looseString(v["obj_type"])),
		}
		if obj != (Object{}) {
			out = append(out, obj)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// ReadFile loads a JSON list of items.
func ReadFile(path string) ([]Item, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return items, nil
}

// WriteFile replaces path with items as an indented JSON list. The file is
// written to a temporary sibling first and renamed into place.
func WriteFile(path string, items []Item, indent string) error {
	if items == nil {
		items = []Item{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(items); err != nil {
		return fmt.Errorf("failed to encode items: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".items-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
