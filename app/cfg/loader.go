package cfg

import (
	"cmp"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

// Options are the process-wide flags shared by every command.
type Options struct {
	DataDir   string `long:"data-dir" env:"DATA_DIR" default:"./data" description:"Directory for page caches and parsed item files"`
	ConfigDir string `long:"config-dir" env:"CONFIG_DIR" default:"./config" description:"Directory containing organizations and sites configuration"`
	FeedsDir  string `long:"feeds-dir" env:"FEEDS_DIR" default:"./feeds" description:"Directory the generated Atom feeds are written to"`
	DBPath    string `long:"db-path" env:"DB_PATH" description:"SQLite database path (default: <data-dir>/ai-news-direct.db)"`

	Concurrency       int     `long:"concurrency" env:"FETCH_CONCURRENCY" default:"5" description:"Maximum number of requests in flight"`
	RequestTimeout    int     `long:"request-timeout" env:"REQUEST_TIMEOUT" default:"10" description:"Request timeout in seconds"`
	UserAgent         string  `long:"user-agent" env:"USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36" description:"User agent string for HTTP requests"`
	RequestsPerSecond float64 `long:"rps" env:"REQUESTS_PER_SECOND" default:"2" description:"Requests per second allowed per host (0 disables limiting)"`
	RespectRobots     bool    `long:"respect-robots" env:"RESPECT_ROBOTS" description:"Skip pages disallowed by robots.txt"`

	Port              string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey      string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for authentication (optional)"`
	FeedBaseURL       string `long:"feed-base-url" env:"FEED_BASE_URL" description:"Public location of the feeds directory, used for self links"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"2" description:"Number of background workers for pipeline tasks"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"3600" description:"Pipeline refresh interval in seconds"`

	Timezone string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug    bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

// Load parses args and the environment into a Cfg. It returns nil, nil when
// help was requested.
func Load(args []string) (*Cfg, error) {
	var opts Options

	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.ParseArgs(args); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	return opts.Cfg()
}

// Cfg validates the options and derives the runtime configuration.
func (o *Options) Cfg() (*Cfg, error) {
	if o.Concurrency <= 0 {
		return nil, fmt.Errorf("concurrency must be positive, got %d", o.Concurrency)
	}
	if o.RequestTimeout <= 0 {
		return nil, fmt.Errorf("request timeout must be positive, got %d", o.RequestTimeout)
	}
	if o.WorkerCount <= 0 {
		return nil, fmt.Errorf("worker count must be positive, got %d", o.WorkerCount)
	}
	if o.SchedulerInterval <= 0 {
		return nil, fmt.Errorf("scheduler interval must be positive, got %d", o.SchedulerInterval)
	}

	cfg := &Cfg{
		DataDir:           o.DataDir,
		ConfigDir:         o.ConfigDir,
		FeedsDir:          o.FeedsDir,
		DBPath:            cmp.Or(o.DBPath, filepath.Join(o.DataDir, "ai-news-direct.db")),
		Concurrency:       o.Concurrency,
		RequestTimeout:    time.Duration(o.RequestTimeout) * time.Second,
		UserAgent:         o.UserAgent,
		RequestsPerSecond: o.RequestsPerSecond,
		RespectRobots:     o.RespectRobots,
		Port:              o.Port,
		APIAccessKey:      o.APIAccessKey,
		FeedBaseURL:       o.FeedBaseURL,
		WorkerCount:       o.WorkerCount,
		SchedulerInterval: time.Duration(o.SchedulerInterval) * time.Second,
		Timezone:          o.Timezone,
		Debug:             o.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		slog.Warn("Invalid timezone, using system default", "timezone", cfg.Timezone, "error", err)
	}

	return cfg, nil
}

func applyTimezone(timezone string) error {
	if timezone == "" {
		return nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return err
	}
	time.Local = loc
	return nil
}
