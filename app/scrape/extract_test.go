package scrape

import (
	"context"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"

	"github.com/mibuhand/ai-news-direct/app/config"
)

var activitySchema = &config.Schema{
	Name:         "activity",
	BaseSelector: "div.activity",
	Fields: []config.SchemaField{
		{Name: "title", Selector: "a.title", Type: "text"},
		{Name: "url", Selector: "a.title", Type: "attribute", Attribute: "href"},
		{Name: "date", Selector: "span.date", Type: "text"},
		{Name: "type", Selector: "span.kind", Type: "text", Default: "model_update"},
		{Name: "objects", Selector: "ul.objects li a", Type: "list", Fields: []config.SchemaField{
			{Name: "title", Type: "text"},
			{Name: "url", Type: "attribute", Attribute: "href"},
		}},
	},
}

const activityPage = `<html><body>
<div class="activity">
  <a class="title" href="/deepseek-ai/DeepSeek-V3.1">updated a model</a>
  <span class="date">2 days ago</span>
  <ul class="objects"><li><a href="/deepseek-ai/DeepSeek-V3.1">DeepSeek-V3.1</a></li></ul>
</div>
<div class="activity">
  <a class="title" href="/datasets/deepseek-ai/bench">published a dataset</a>
  <span class="date">yesterday</span>
  <span class="kind">dataset</span>
</div>
<div class="activity"><span class="date">3 hours ago</span></div>
</body></html>`

func TestExtract(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(activityPage))
	if err != nil {
		t.Fatal(err)
	}

	rows := Extract(doc, activitySchema)
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	first := rows[0]
	if first["title"] != "updated a model" || first["url"] != "/deepseek-ai/DeepSeek-V3.1" {
		t.Errorf("Unexpected first row: %v", first)
	}
	if first["type"] != "model_update" {
		t.Errorf("Expected default type, got %v", first["type"])
	}
	objects, ok := first["objects"].([]any)
	if !ok || len(objects) != 1 {
		t.Fatalf("Expected one object, got %v", first["objects"])
	}
	if obj := objects[0].(map[string]any); obj["title"] != "DeepSeek-V3.1" {
		t.Errorf("Unexpected object: %v", obj)
	}

	if rows[1]["type"] != "dataset" {
		t.Errorf("Expected extracted type, got %v", rows[1]["type"])
	}
	if _, ok := rows[2]["title"]; ok {
		t.Error("Expected missing field to be left out")
	}
	if _, ok := rows[2]["objects"]; ok {
		t.Error("Expected empty list to be left out")
	}
}

func TestExtractNestedAndHTML(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<ul>
<li class="card"><div class="meta"><b>Alice</b><i>admin</i></div><p class="tags"><span>a</span><span>b</span></p></li>
</ul>`))
	if err != nil {
		t.Fatal(err)
	}

	rows := Extract(doc, &config.Schema{
		BaseSelector: "li.card",
		Fields: []config.SchemaField{
			{Name: "meta", Selector: "div.meta", Type: "nested", Fields: []config.SchemaField{
				{Name: "name", Selector: "b", Type: "text"},
				{Name: "role", Selector: "i", Type: "text"},
			}},
			{Name: "tags", Selector: "p.tags span", Type: "list"},
			{Name: "raw", Selector: "b", Type: "html"},
		},
	})
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}

	meta := rows[0]["meta"].(map[string]any)
	if meta["name"] != "Alice" || meta["role"] != "admin" {
		t.Errorf("Unexpected nested values: %v", meta)
	}
	tags := rows[0]["tags"].([]any)
	if len(tags) != 2 || tags[1] != "b" {
		t.Errorf("Unexpected list values: %v", tags)
	}
	if rows[0]["raw"] != "<b>Alice</b>" {
		t.Errorf("Unexpected html value: %v", rows[0]["raw"])
	}
}

func TestScrapeActivity(t *testing.T) {
	site := &config.Site{
		OrganizationKey: "huggingface",
		Site:            "https://huggingface.co",
		Type:            config.SiteTypeOrganizationMatrix,
		Adapter:         "huggingface_activity",
		BasePath:        "organizations/",
		Organizations:   []string{"deepseek-ai"},
		Pages:           []string{"/activity/all"},
		Schema:          activitySchema,
	}
	env := siteEnv(t, site, map[string]string{"organizations/deepseek-ai/activity/all": activityPage})

	outputs, err := scrapeActivity(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	if outputs[0].File != "huggingface.json" {
		t.Errorf("Expected shared activity file, got %s", outputs[0].File)
	}
	items := mapOutput(outputs[0])
	if len(items) != 2 {
		t.Fatalf("Expected untitled row to be dropped, got %d items", len(items))
	}

	updated := items[0]
	if updated.Organization != "deepseek-ai" {
		t.Errorf("Expected organization from page subject, got %s", updated.Organization)
	}
	if updated.URL != "https://huggingface.co/deepseek-ai/DeepSeek-V3.1" {
		t.Errorf("Unexpected URL: %s", updated.URL)
	}
	if updated.PublishedDate != "2025-10-13T12:00:00+00:00" {
		t.Errorf("Expected relative date to resolve, got %s", updated.PublishedDate)
	}
	if updated.Source != "huggingface" || updated.Type != "model_update" {
		t.Errorf("Unexpected source or type: %s %s", updated.Source, updated.Type)
	}
	if len(updated.Objects) != 1 || updated.Objects[0].URL != "https://huggingface.co/deepseek-ai/DeepSeek-V3.1" {
		t.Errorf("Unexpected objects: %+v", updated.Objects)
	}

	if items[1].PublishedDate != "2025-10-14T12:00:00+00:00" || items[1].Type != "dataset" {
		t.Errorf("Unexpected second item: %+v", items[1])
	}
}

func TestScrapeActivityRequiresSchema(t *testing.T) {
	site := &config.Site{OrganizationKey: "huggingface", Site: "https://huggingface.co"}
	if _, err := scrapeActivity(context.Background(), Env{Site: site}); err == nil {
		t.Error("Expected error for site without schema")
	}
}
