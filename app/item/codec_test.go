package item

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestUnmarshalLooseItem(t *testing.T) {
	data := `{
		"id": 42,
		"source": "openai",
		"title": "Release <notes>",
		"url": "https://openai.com/index/x",
		"external_url": null,
		"published_date": "2025-01-02T00:00:00+00:00",
		"categories": ["Research", 7, null, ""],
		"metadata": {"author": "team"},
		"objects": [{"obj_title": "model-x", "obj_type": "model", "obj_url": "https://hf.co/x"}],
		"score": 10
	}`

	var it Item
	if err := json.Unmarshal([]byte(data), &it); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if it.ID != "42" {
		t.Errorf("Expected id '42', got '%s'", it.ID)
	}
	if it.ExternalURL != "" {
		t.Errorf("Expected empty external url, got '%s'", it.ExternalURL)
	}
	if len(it.Categories) != 2 || it.Categories[0] != "Research" || it.Categories[1] != "7" {
		t.Errorf("Expected categories [Research 7], got %v", it.Categories)
	}
	if len(it.Objects) != 1 || it.Objects[0].Title != "model-x" || it.Objects[0].Type != "model" {
		t.Errorf("Expected legacy object keys to be read, got %+v", it.Objects)
	}
	if it.Metadata["author"] != "team" {
		t.Errorf("Expected metadata author 'team', got %v", it.Metadata["author"])
	}
	if string(it.Extra["score"]) != "10" {
		t.Errorf("Expected extra field score to be kept, got %s", it.Extra["score"])
	}
}

func TestMarshalKeepsOrderAndExtras(t *testing.T) {
	it := Item{
		ID:            "abc",
		Source:        "openai",
		Type:          "article",
		Title:         "A & B",
		URL:           "https://openai.com/a",
		PublishedDate: "2025-01-02T00:00:00+00:00",
		Extra: map[string]json.RawMessage{
			"zeta":  json.RawMessage(`"z"`),
			"alpha": json.RawMessage(`1`),
		},
	}

	data, err := json.Marshal(it)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	out := string(data)

	if !strings.HasPrefix(out, `{"id":"abc","source":"openai","type":"article"`) {
		t.Errorf("Expected canonical key order, got %s", out)
	}
	if !strings.Contains(out, `"categories":[]`) {
		t.Errorf("Expected empty categories list, got %s", out)
	}
	if !strings.Contains(out, `"A & B"`) {
		t.Errorf("Expected HTML characters to stay unescaped, got %s", out)
	}
	if strings.Index(out, `"alpha"`) > strings.Index(out, `"zeta"`) {
		t.Errorf("Expected extra keys sorted, got %s", out)
	}
	if strings.Contains(out, "original_source") {
		t.Errorf("Expected empty original_source to be omitted, got %s", out)
	}
}

func TestWriteAndReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "acme_aggregated.json")
	items := []Item{
		{ID: "1", Source: "acme", Title: "First", PublishedDate: "2025-01-02T00:00:00+00:00"},
		{ID: "2", Source: "acme", Title: "Second", PublishedDate: "2025-01-01T00:00:00+00:00"},
	}

	if err := WriteFile(path, items, "    "); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "\n        \"id\": \"1\"") {
		t.Errorf("Expected four-space indentation, got:\n%s", data)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(loaded) != 2 || loaded[1].Title != "Second" {
		t.Errorf("Expected items to be read back in order, got %+v", loaded)
	}
}

func TestWriteFileEmptyList(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.json")
	if err := WriteFile(path, nil, "    "); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Expected empty JSON list, got %s", data)
	}
}
