package scrape

import (
	"context"
	"testing"
	"time"

	"github.com/mibuhand/ai-news-direct/app/config"
)

const anthropicNewsPage = `<html><body>
<a class="PostCard_post-card__z_Sqq" href="/news/claude-4">
  <h3 class="PostCard_post-heading__Ob1pu">Introducing Claude 4</h3>
  <div class="PostList_post-date__djrOA">May 22, 2025</div>
</a>
<a class="PostCard_post-card__z_Sqq" href="/news/undated">
  <h3 class="PostCard_post-heading__Ob1pu">Undated Post</h3>
</a>
<script>self.__next_f.push([1,"1d:[{\"publishedOn\":\"2025-04-01T00:00:00.000Z\",\"title\":\"Undated Post\"}]"])</script>
</body></html>`

const anthropicEngineeringPage = `<html><body>
<a class="ArticleList_cardLink__VWIzl" href="/engineering/building-effective-agents">
  <h2 class="display-sans-l">Building effective agents</h2>
  <div class="ArticleList_date__2VTRg">Dec 19, 2024</div>
</a>
</body></html>`

const anthropicResearchPage = `<html><body>
<script>self.__next_f.push([1,"1d:[\"$\",\"div\",null,{\"page\":{\"sections\":[{\"title\":\"Publications\",\"posts\":[{\"title\":\"Tracing thoughts\",\"slug\":{\"current\":\"tracing-thoughts\"},\"publishedOn\":\"2025-03-27T00:00:00.000Z\",\"subjects\":[{\"label\":\"Interpretability\"}],\"cta\":{\"url\":\"https://transformer-circuits.pub/tracing\"}},{\"title\":\"Older paper\",\"slug\":{\"current\":\"older\"},\"publishedOn\":\"2024-01-10T00:00:00.000Z\",\"cta\":\"\"}]}]}}]\n"])</script>
</body></html>`

func TestScrapeAnthropic(t *testing.T) {
	site := &config.Site{
		OrganizationKey: "anthropic",
		Site:            "https://www.anthropic.com",
		Type:            config.SiteTypePages,
		Pages:           []string{"news", "engineering", "research"},
	}
	env := siteEnv(t, site, map[string]string{
		"news":        anthropicNewsPage,
		"engineering": anthropicEngineeringPage,
		"research":    anthropicResearchPage,
	})

	outputs, err := scrapeAnthropic(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	if len(outputs) != 3 {
		t.Fatalf("Expected 3 outputs, got %d", len(outputs))
	}

	news := mapOutput(outputs[0])
	if outputs[0].File != "anthropic_news.json" || len(news) != 2 {
		t.Fatalf("Unexpected news output %s with %d items", outputs[0].File, len(news))
	}
	if news[0].URL != "https://www.anthropic.com/news/claude-4" || news[0].PublishedDate != "2025-05-22T00:00:00+00:00" {
		t.Errorf("Unexpected news item: %+v", news[0])
	}
	if news[1].PublishedDate != "2025-04-01T00:00:00+00:00" {
		t.Errorf("Expected date from page data, got %s", news[1].PublishedDate)
	}
	if news[0].Organization != "Anthropic" || news[0].Type != "news" {
		t.Errorf("Unexpected organization or type: %s %s", news[0].Organization, news[0].Type)
	}

	engineering := mapOutput(outputs[1])
	if len(engineering) != 1 || engineering[0].Title != "Building effective agents" {
		t.Errorf("Expected alternate title selector to be used, got %+v", engineering)
	}

	research := mapOutput(outputs[2])
	if len(research) != 2 {
		t.Fatalf("Expected 2 research items, got %d", len(research))
	}
	first := research[0]
	if first.URL != "https://www.anthropic.com/research/tracing-thoughts" {
		t.Errorf("Unexpected research URL: %s", first.URL)
	}
	if first.ExternalURL != "https://transformer-circuits.pub/tracing" {
		t.Errorf("Expected external URL from call to action, got %s", first.ExternalURL)
	}
	if len(first.Categories) != 1 || first.Categories[0] != "Interpretability" {
		t.Errorf("Unexpected categories: %v", first.Categories)
	}
	if first.PublishedDate != "2025-03-27T00:00:00+00:00" {
		t.Errorf("Unexpected research date: %s", first.PublishedDate)
	}
	if research[1].ExternalURL != "" {
		t.Errorf("Expected no external URL, got %s", research[1].ExternalURL)
	}
}

func TestScrapeAnthropicMissingCache(t *testing.T) {
	site := &config.Site{OrganizationKey: "anthropic", Site: "https://www.anthropic.com", Pages: []string{"news"}}
	env := siteEnv(t, site, nil)

	outputs, err := scrapeAnthropic(context.Background(), env)
	if err == nil {
		t.Error("Expected error for missing cached page")
	}
	if len(outputs) != 0 {
		t.Errorf("Expected no outputs, got %d", len(outputs))
	}
}

func TestScrapeOpenAI(t *testing.T) {
	page := `<html><body><div class="grid">
<div class="py-md border-primary-12 border-t"><a href="/index/introducing-gpt-5/">
  <div class="text-meta"><div>Product</div><time datetime="2025-08-07T10:00:00.000Z">Aug 7, 2025</time></div>
  <div class="text-h5">Introducing GPT-5</div>
  <p class="text-p2">Our smartest model yet.</p>
</a></div>
<div class="py-md border-primary-12"><a href="/index/research-note/">
  <div class="text-meta"><div>Research</div><time>Jul 1, 2025</time></div>
  <div class="text-h5">Research note</div>
</a></div>
<div class="py-md border-primary-12"><a href="/index/untitled/"><div class="text-meta"></div></a></div>
</div></body></html>`

	site := &config.Site{OrganizationKey: "openai", Site: "https://openai.com", Type: config.SiteTypePages}
	env := siteEnv(t, site, map[string]string{"": page})

	outputs, err := scrapeOpenAI(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	items := mapOutput(outputs[0])
	if outputs[0].File != "openai_research.json" {
		t.Errorf("Expected openai_research.json, got %s", outputs[0].File)
	}
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.URL != "https://openai.com/index/introducing-gpt-5/" {
		t.Errorf("Unexpected URL: %s", first.URL)
	}
	if first.Type != "product" || first.Categories[0] != "Product" || first.Metadata["post_type"] != "Product" {
		t.Errorf("Unexpected post type mapping: %+v", first)
	}
	if first.PublishedDate != "2025-08-07T10:00:00+00:00" {
		t.Errorf("Expected datetime attribute, got %s", first.PublishedDate)
	}
	if first.Description != "Our smartest model yet." {
		t.Errorf("Unexpected description: %s", first.Description)
	}
	if items[1].PublishedDate != "2025-07-01T00:00:00+00:00" {
		t.Errorf("Expected date from text, got %s", items[1].PublishedDate)
	}
}

func TestScrapeDeepSeek(t *testing.T) {
	page := `<html><body>
<a href="/zh-cn/news/">新闻</a>
<a href="/zh-cn/news/news250528">DeepSeek-R1 更新 2025/05/28</a>
<a href="/zh-cn/news/news250120">DeepSeek-R1 发布</a>
<a href="/zh-cn/news/news0725">DeepSeek APP 上线</a>
<a href="/zh-cn/news/news250120">DeepSeek-R1 发布</a>
<a href="/zh-cn/news/short">短</a>
<a href="/en/news/news250120">Other language</a>
</body></html>`

	site := &config.Site{OrganizationKey: "deepseek", Site: "https://api-docs.deepseek.com", Pages: []string{"zh-cn/news"}}
	env := siteEnv(t, site, map[string]string{"zh-cn/news": page})

	outputs, err := scrapeDeepSeek(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	items := mapOutput(outputs[0])
	if len(items) != 3 {
		t.Fatalf("Expected 3 items, got %d", len(items))
	}

	expected := []struct {
		date     string
		category string
	}{
		{"2025-05-28T00:00:00+00:00", "Reasoning Model"},
		{"2025-01-20T00:00:00+00:00", "Reasoning Model"},
		{"2025-07-25T00:00:00+00:00", "Application"},
	}
	for i, e := range expected {
		if items[i].PublishedDate != e.date {
			t.Errorf("Item %d: expected date %s, got %s", i, e.date, items[i].PublishedDate)
		}
		if len(items[i].Categories) != 1 || items[i].Categories[0] != e.category {
			t.Errorf("Item %d: expected category %s, got %v", i, e.category, items[i].Categories)
		}
	}
	if items[0].URL != "https://api-docs.deepseek.com/zh-cn/news/news250528" {
		t.Errorf("Unexpected URL: %s", items[0].URL)
	}
	if items[1].Description != "DeepSeek news: DeepSeek-R1 发布" {
		t.Errorf("Unexpected description: %s", items[1].Description)
	}
}

func TestDeepSeekDate(t *testing.T) {
	tests := []struct {
		title    string
		path     string
		expected time.Time
	}{
		{"Release 2024/12/26", "/zh-cn/news/news1226", time.Date(2024, 12, 26, 0, 0, 0, 0, time.UTC)},
		{"Old", "/zh-cn/news/news991231", time.Date(1999, 12, 31, 0, 0, 0, 0, time.UTC)},
		{"Bad code", "/zh-cn/news/news251399", testNow},
		{"Bad title date 2025/13/40", "/zh-cn/news/news0301", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"Nothing", "/zh-cn/news/about", testNow},
	}

	for _, tt := range tests {
		if got := deepseekDate(tt.title, tt.path, testNow); !got.Equal(tt.expected) {
			t.Errorf("deepseekDate(%q, %q) = %v, expected %v", tt.title, tt.path, got, tt.expected)
		}
	}
}

func TestScrapeThinkingMachines(t *testing.T) {
	page := `<html><body>
<a class="post-item-link" href="/blog/lora/">
  <div class="post-title">LoRA Without Regret</div>
  <time class="desktop-time">Sep 29</time>
  <span class="author">John Schulman</span>
</a>
<a class="post-item-link" href="/blog/"><div class="post-title">Blog</div></a>
<a class="post-item-link" href="/blog/modular-manifolds/">
  <div class="post-title">Modular Manifolds</div>
  <time class="desktop-time">Sep 26</time>
</a>
<a class="post-item-link" href="/blog/lora/"><div class="post-title">LoRA Without Regret</div></a>
</body></html>`

	site := &config.Site{OrganizationKey: "thinkingmachines", Site: "https://thinkingmachines.ai", Pages: []string{"blog/"}}
	env := siteEnv(t, site, map[string]string{"blog/": page})

	outputs, err := scrapeThinkingMachines(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	items := mapOutput(outputs[0])
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	if items[0].Description != "LoRA Without Regret by John Schulman" || items[0].Categories[0] != "Fine-tuning" {
		t.Errorf("Unexpected first item: %+v", items[0])
	}
	if items[0].PublishedDate != "2025-09-29T00:00:00+00:00" {
		t.Errorf("Unexpected date: %s", items[0].PublishedDate)
	}
	if items[1].Description != "Modular Manifolds" || items[1].Categories[0] != "Theory" {
		t.Errorf("Unexpected second item: %+v", items[1])
	}
	if items[1].Metadata["author"] != thinkingMachinesLab {
		t.Errorf("Expected default author, got %v", items[1].Metadata["author"])
	}
}

func TestInferYear(t *testing.T) {
	january := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		text     string
		now      time.Time
		expected time.Time
	}{
		{"Oct 1", testNow, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC)},
		{"Dec 20", testNow, time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC)},
		{"Dec 30", january, time.Date(2024, 12, 30, 0, 0, 0, 0, time.UTC)},
		{"Feb 1", january, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)},
		{"someday", testNow, testNow},
	}

	for _, tt := range tests {
		if got := inferYear(tt.text, tt.now); !got.Equal(tt.expected) {
			t.Errorf("inferYear(%q) = %v, expected %v", tt.text, got, tt.expected)
		}
	}
}

func TestScrapeByteDanceSeed(t *testing.T) {
	page := `<html><body><script>window._ROUTER_DATA = {"loaderData":{"(locale$)/research/page":{"article_list":[
{"ArticleSubContentEn":{"Title":"Seed1.5-VL","TitleKey":"seed1-5-vl","Abstract":"A vision-language model."},
 "ArticleSubContentZh":{"Title":"Seed1.5-VL 技术报告","TitleKey":"seed1-5-vl","Abstract":"视觉语言模型"},
 "ArticleMeta":{"PublishDate":1746662400000,"ResearchArea":[{"ResearchAreaName":"LLM"}],"Author":"Seed Team","Journal":"arXiv",
  "WorkingTeam":[{"Name":"Seed-VL"}],"ExternalLinks":[{"Link":"https://arxiv.org/abs/2505.07062"}]}},
{"ArticleSubContentEn":{"Title":"","TitleKey":"empty"},"ArticleMeta":{}}
]}}};</script></body></html>`

	site := &config.Site{
		OrganizationKey: "bytedance",
		Site:            "https://seed.bytedance.com",
		Pages:           []string{"en/research"},
		OutputFiles:     map[string]string{"research": "bytedance_seed_research.json"},
	}
	env := siteEnv(t, site, map[string]string{"en/research": page})

	outputs, err := scrapeByteDanceSeed(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	if outputs[0].File != "bytedance_seed_research.json" {
		t.Errorf("Unexpected output file: %s", outputs[0].File)
	}
	items := mapOutput(outputs[0])
	if len(items) != 1 {
		t.Fatalf("Expected untitled article to be dropped, got %d items", len(items))
	}

	it := items[0]
	if it.URL != "https://seed.bytedance.com/en/research/seed1-5-vl" {
		t.Errorf("Unexpected URL: %s", it.URL)
	}
	if it.PublishedDate != "2025-05-08T00:00:00+00:00" {
		t.Errorf("Expected Unix milliseconds to be converted, got %s", it.PublishedDate)
	}
	if it.ExternalURL != "https://arxiv.org/abs/2505.07062" {
		t.Errorf("Unexpected external URL: %s", it.ExternalURL)
	}
	if it.Metadata["author"] != "Seed Team" || it.Organization != "ByteDance Seed" {
		t.Errorf("Unexpected metadata: %+v", it.Metadata)
	}
	if _, ok := it.Extra["title_localized"]; !ok {
		t.Error("Expected localized title")
	}
	if len(it.Categories) != 1 || it.Categories[0] != "LLM" {
		t.Errorf("Unexpected categories: %v", it.Categories)
	}
}

func TestScrapeGitHubTrending(t *testing.T) {
	page := `<html><body>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/acme/rocket"><span class="text-normal">acme /</span> rocket</a></h2>
  <p class="col-9 color-fg-muted my-1 pr-4">Fast rockets.</p>
  <span itemprop="programmingLanguage">Go</span>
  <a href="/acme/rocket/stargazers">12.5k</a>
  <a href="/acme/rocket/forks">1,024</a>
  <span class="d-inline-block float-sm-right">300 stars today</span>
</article>
<article class="Box-row">
  <h2 class="h3 lh-condensed"><a href="/beta/tool">beta / tool</a></h2>
  <a href="/beta/tool/stargazers">900</a>
  <span class="d-inline-block float-sm-right">1,200 stars today</span>
</article>
</body></html>`

	site := &config.Site{OrganizationKey: "github", Site: "https://github.com", Pages: []string{"trending?since=monthly"}}
	env := siteEnv(t, site, map[string]string{"trending?since=monthly": page})

	outputs, err := scrapeGitHubTrending(context.Background(), env)
	if err != nil {
		t.Fatal(err)
	}
	if !outputs[0].Ranked {
		t.Error("Expected trending output to keep its ranking")
	}
	items := mapOutput(outputs[0])
	if len(items) != 2 {
		t.Fatalf("Expected 2 items, got %d", len(items))
	}

	if items[0].Title != "beta/tool" || items[0].Metadata["stars_today"] != 1200 {
		t.Errorf("Expected most starred today first, got %+v", items[0])
	}
	rocket := items[1]
	if rocket.Title != "acme/rocket" || rocket.URL != "https://github.com/acme/rocket" {
		t.Errorf("Unexpected repository: %s %s", rocket.Title, rocket.URL)
	}
	if rocket.Metadata["stars"] != 12500 || rocket.Metadata["forks"] != 1024 {
		t.Errorf("Unexpected counts: %v", rocket.Metadata)
	}
	if len(rocket.Categories) != 1 || rocket.Categories[0] != "Go" {
		t.Errorf("Unexpected categories: %v", rocket.Categories)
	}
}

func TestParseCount(t *testing.T) {
	tests := map[string]int{
		"1,234": 1234,
		"12.5k": 12500,
		"3K":    3000,
		" 42 ":  42,
		"":      0,
		"many":  0,
	}
	for in, expected := range tests {
		if got := parseCount(in); got != expected {
			t.Errorf("parseCount(%q) = %d, expected %d", in, got, expected)
		}
	}
}
