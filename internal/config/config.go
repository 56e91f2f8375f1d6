package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for aislescout.
type Config struct {
	Engine    EngineConfig    `mapstructure:"engine"     yaml:"engine"`
	Fetcher   FetcherConfig   `mapstructure:"fetcher"    yaml:"fetcher"`
	Proxy     ProxyConfig     `mapstructure:"proxy"      yaml:"proxy"`
	RenderAPI RenderAPIConfig `mapstructure:"render_api" yaml:"render_api"`
	Storage   StorageConfig   `mapstructure:"storage"    yaml:"storage"`
	Logging   LoggingConfig   `mapstructure:"logging"    yaml:"logging"`
}

// EngineConfig controls the row dispatcher.
type EngineConfig struct {
	// Concurrency is the number of rows processed in parallel. Within a row
	// retailers are always sequential to preserve priority early-stop.
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency"`

	// ScoreThreshold is the early-stop cutoff on the 0-100 quality score.
	ScoreThreshold int `mapstructure:"score_threshold" yaml:"score_threshold"`

	// SkipRetailers lists retailer IDs that are skipped entirely; their
	// outcomes are emitted with status "skipped" and no network I/O.
	SkipRetailers []string `mapstructure:"skip_retailers" yaml:"skip_retailers"`
}

// FetcherConfig controls the multi-strategy fetcher.
type FetcherConfig struct {
	MaxAttempts        int           `mapstructure:"max_attempts"         yaml:"max_attempts"`
	MaxRetries         int           `mapstructure:"max_retries"          yaml:"max_retries"`
	InterStrategyDelay time.Duration `mapstructure:"inter_strategy_delay" yaml:"inter_strategy_delay"`
	RequestTimeout     time.Duration `mapstructure:"request_timeout"      yaml:"request_timeout"`
	BrowserTimeout     time.Duration `mapstructure:"browser_timeout"      yaml:"browser_timeout"`

	// MinBodyBytes is the smallest body accepted from HTTP strategies;
	// BrowserMinBodyBytes guards strict hosts against interstitial-only DOMs.
	MinBodyBytes        int `mapstructure:"min_body_bytes"         yaml:"min_body_bytes"`
	BrowserMinBodyBytes int `mapstructure:"browser_min_body_bytes" yaml:"browser_min_body_bytes"`

	MaxBodySize int64 `mapstructure:"max_body_size" yaml:"max_body_size"`

	// SessionRefreshInterval rotates a retailer session after this many
	// requests.
	SessionRefreshInterval int `mapstructure:"session_refresh_interval" yaml:"session_refresh_interval"`

	// GlobalRPS caps outbound requests across all hosts; 0 disables the cap.
	GlobalRPS float64 `mapstructure:"global_rps" yaml:"global_rps"`

	// BrowserHeadful runs the browser with a visible window (debug aid,
	// historically toggled for Ocado).
	BrowserHeadful bool `mapstructure:"browser_headful" yaml:"browser_headful"`
}

// ProxyServer is one upstream proxy.
type ProxyServer struct {
	Server   string `mapstructure:"server"   yaml:"server"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Kind     string `mapstructure:"kind"     yaml:"kind"`
}

// ProxyConfig controls the proxy pool.
type ProxyConfig struct {
	Enabled       bool          `mapstructure:"enabled"        yaml:"enabled"`
	Servers       []ProxyServer `mapstructure:"servers"        yaml:"servers"`
	MaxFailures   int           `mapstructure:"max_failures"   yaml:"max_failures"`
	CoolingWindow time.Duration `mapstructure:"cooling_window" yaml:"cooling_window"`

	// Bright Data credentials from the environment are appended as an extra
	// pool entry when set.
	BrightDataHost string `mapstructure:"bright_data_host" yaml:"bright_data_host"`
	BrightDataPort string `mapstructure:"bright_data_port" yaml:"bright_data_port"`
	BrightDataUser string `mapstructure:"bright_data_user" yaml:"bright_data_user"`
	BrightDataPass string `mapstructure:"bright_data_pass" yaml:"bright_data_pass"`
}

// RenderAPIConfig controls the paid external rendering API (Phase 2).
type RenderAPIConfig struct {
	Enabled      bool          `mapstructure:"enabled"       yaml:"enabled"`
	Endpoint     string        `mapstructure:"endpoint"      yaml:"endpoint"`
	APIKey       string        `mapstructure:"api_key"       yaml:"api_key"`
	DailyQuota   int           `mapstructure:"daily_quota"   yaml:"daily_quota"`
	Wait         time.Duration `mapstructure:"wait"          yaml:"wait"`
	PremiumProxy bool          `mapstructure:"premium_proxy" yaml:"premium_proxy"`
	Timeout      time.Duration `mapstructure:"timeout"       yaml:"timeout"`
}

// PostgresConfig carries the persistent sink credentials (PG* env vars).
type PostgresConfig struct {
	Host     string `mapstructure:"host"     yaml:"host"`
	Port     string `mapstructure:"port"     yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user"     yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
	Table    string `mapstructure:"table"    yaml:"table"`
}

// MongoConfig carries the alternative document sink settings.
type MongoConfig struct {
	URI        string `mapstructure:"uri"        yaml:"uri"`
	Database   string `mapstructure:"database"   yaml:"database"`
	Collection string `mapstructure:"collection" yaml:"collection"`
}

// StorageConfig controls output.
type StorageConfig struct {
	// Type selects the persistent backend: postgres, mongo, or none.
	Type string `mapstructure:"type" yaml:"type"`

	// PreviewPath is the CSV preview output file.
	PreviewPath string `mapstructure:"preview_path" yaml:"preview_path"`

	// PreviewOnly skips all persistent writes (PREVIEW_ONLY env).
	PreviewOnly bool `mapstructure:"preview_only" yaml:"preview_only"`

	// InputPath is the CSV of product rows to annotate.
	InputPath string `mapstructure:"input_path" yaml:"input_path"`

	// AislesPath is an optional reference taxonomy CSV for aisle-ID matching.
	AislesPath string `mapstructure:"aisles_path" yaml:"aisles_path"`

	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	Mongo    MongoConfig    `mapstructure:"mongo"    yaml:"mongo"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			Concurrency:    1,
			ScoreThreshold: 50,
			SkipRetailers:  []string{"amazon", "wilko"},
		},
		Fetcher: FetcherConfig{
			MaxAttempts:            2,
			MaxRetries:             3,
			InterStrategyDelay:     2 * time.Second,
			RequestTimeout:         20 * time.Second,
			BrowserTimeout:         45 * time.Second,
			MinBodyBytes:           500,
			BrowserMinBodyBytes:    30 * 1024,
			MaxBodySize:            10 * 1024 * 1024,
			SessionRefreshInterval: 10,
			GlobalRPS:              0,
		},
		// Enabled by default so the legacy BRIGHT_DATA_* environment entry
		// keeps working; without servers the pool is empty and fetches go
		// direct.
		Proxy: ProxyConfig{
			Enabled:       true,
			MaxFailures:   5,
			CoolingWindow: 10 * time.Minute,
		},
		RenderAPI: RenderAPIConfig{
			Enabled:      false,
			Endpoint:     "https://api.zenrows.com/v1/",
			DailyQuota:   900,
			Wait:         5 * time.Second,
			PremiumProxy: true,
			Timeout:      60 * time.Second,
		},
		Storage: StorageConfig{
			Type:        "postgres",
			PreviewPath: "./aisles_preview.csv",
			Postgres: PostgresConfig{
				Port:  "5432",
				Table: "product_aisles",
			},
			Mongo: MongoConfig{
				Database:   "aislescout",
				Collection: "product_aisles",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
