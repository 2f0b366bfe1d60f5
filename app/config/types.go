package config

// Organization describes one organization whose sources are merged into a
// single aggregated feed.
type Organization struct {
	Key         string   `yaml:"-" json:"-"`
	Name        string   `yaml:"name" json:"name" validate:"required"`
	Patterns    []string `yaml:"patterns" json:"patterns"`
	DirectFeeds []string `yaml:"direct_feeds" json:"direct_feeds" validate:"dive,required"`
	FeedSources []string `yaml:"feed_sources" json:"feed_sources" validate:"dive,required"`
	BaseURL     string   `yaml:"base_url" json:"base_url" validate:"omitempty,url"`
	FeedTitle   string   `yaml:"feed_title" json:"feed_title"`
	IconURL     string   `yaml:"icon_url" json:"icon_url" validate:"omitempty,url"`
}

// Organizations is the read-only organization table, in file order.
type Organizations struct {
	keys  []string
	byKey map[string]*Organization
}

type SiteType string

const (
	SiteTypePages              SiteType = "pages"
	SiteTypeOrganizationMatrix SiteType = "organization_matrix"
	SiteTypeUserProfiles       SiteType = "user_profiles"
	SiteTypeFeeds              SiteType = "feeds"

	// SiteTypeAPI sites are read through their public API by the adapter
	// itself and have nothing to fetch ahead of scraping.
	SiteTypeAPI SiteType = "api"
)

// FeedsAdapter is the default adapter for sites of type feeds.
const FeedsAdapter = "feeds"

// Site describes where and how to fetch one site, and which adapter parses
// the cached pages.
type Site struct {
	OrganizationKey string            `yaml:"organization_key" json:"organization_key" validate:"required"`
	Site            string            `yaml:"site" json:"site" validate:"required,url"`
	FaviconURL      string            `yaml:"favicon_url" json:"favicon_url" validate:"omitempty,url"`
	Type            SiteType          `yaml:"type" json:"type" validate:"omitempty,oneof=pages organization_matrix user_profiles feeds api"`
	Adapter         string            `yaml:"adapter" json:"adapter"`
	Pages           []string          `yaml:"pages" json:"pages"`
	BasePath        string            `yaml:"base_path" json:"base_path"`
	Organizations   []string          `yaml:"organizations" json:"organizations"`
	Users           []string          `yaml:"users" json:"users"`
	Feeds           []SiteFeed        `yaml:"feeds" json:"feeds" validate:"dive"`
	OutputFiles     map[string]string `yaml:"output_files" json:"output_files"`
	Schema          *Schema           `yaml:"schema" json:"schema" validate:"omitempty"`
}

type SiteFeed struct {
	Name string `yaml:"name" json:"name" validate:"required"`
	URL  string `yaml:"url" json:"url" validate:"required,url"`
}

// Schema is a CSS extraction schema: every element matching BaseSelector
// yields one record built from Fields.
type Schema struct {
	Name         string        `yaml:"name" json:"name"`
	BaseSelector string        `yaml:"baseSelector" json:"baseSelector" validate:"required"`
	Fields       []SchemaField `yaml:"fields" json:"fields" validate:"min=1,dive"`
}

type SchemaField struct {
	Name      string        `yaml:"name" json:"name" validate:"required"`
	Selector  string        `yaml:"selector" json:"selector"`
	Type      string        `yaml:"type" json:"type" validate:"omitempty,oneof=text attribute html nested list"`
	Attribute string        `yaml:"attribute" json:"attribute" validate:"required_if=Type attribute"`
	Default   string        `yaml:"default" json:"default"`
	Fields    []SchemaField `yaml:"fields" json:"fields" validate:"dive"`
}

// Config bundles the organization table and the site list.
type Config struct {
	Organizations *Organizations
	Sites         []Site
}
