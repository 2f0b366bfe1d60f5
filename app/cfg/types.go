package cfg

import (
	"path/filepath"
	"time"
)

type Cfg struct {
	// Directories
	DataDir   string
	ConfigDir string
	FeedsDir  string // generated Atom files
	DBPath    string

	// Fetching
	Concurrency       int
	RequestTimeout    time.Duration
	UserAgent         string
	RequestsPerSecond float64
	RespectRobots     bool

	// Serving and scheduling
	Port              string
	APIAccessKey      string
	FeedBaseURL       string
	WorkerCount       int
	SchedulerInterval time.Duration

	// Application metadata
	Timezone string
	Debug    bool
	Version  string
}

// HTMLDir is the page cache the fetcher writes and HTML adapters read.
func (c *Cfg) HTMLDir() string {
	return filepath.Join(c.DataDir, "html_cache")
}

// FeedCacheDir holds fetched RSS/Atom documents.
func (c *Cfg) FeedCacheDir() string {
	return filepath.Join(c.DataDir, "feeds_cache")
}

// ParsedDir holds the per-source and aggregated item lists.
func (c *Cfg) ParsedDir() string {
	return filepath.Join(c.DataDir, "parsed")
}
