package scrape

import "github.com/mibuhand/ai-news-direct/app/item"

// Item identities per source. The leading "source" value is the adapter's
// identity prefix, which can differ from the item's source slug.
var (
	feedIdentity         = item.Identity{"source", "title", "url", "guid", "published_date"}
	articleIdentity      = item.Identity{"source", "title", "url", "published_date"}
	typedArticleIdentity = item.Identity{"source", "title", "url", "published_date", "type"}
	researchIdentity     = item.Identity{"source", "title", "url", "published", "categories"}
	abstractIdentity     = item.Identity{"source", "title", "url", "published", "abstract_hash"}
	repositoryIdentity   = item.Identity{"source", "name", "url"}
	activityIdentity     = item.Identity{"source", "organization", "title", "url", "date"}
	referenceIdentity    = item.Identity{"source", "ref"}
)
