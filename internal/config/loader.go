package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from file and environment.
// Priority (highest to lowest): env vars > config file > defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("AISLESCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Legacy environment contract predating the AISLESCOUT_ prefix.
	bindLegacyEnv(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("aislescout")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".aislescout"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found is okay if not explicitly specified
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// bindLegacyEnv maps the historical un-prefixed variables onto config keys.
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("storage.postgres.host", "PGHOST")
	_ = v.BindEnv("storage.postgres.port", "PGPORT")
	_ = v.BindEnv("storage.postgres.database", "PGDATABASE")
	_ = v.BindEnv("storage.postgres.user", "PGUSER")
	_ = v.BindEnv("storage.postgres.password", "PGPASSWORD")
	_ = v.BindEnv("storage.preview_only", "PREVIEW_ONLY")
	_ = v.BindEnv("proxy.bright_data_host", "BRIGHT_DATA_HOST")
	_ = v.BindEnv("proxy.bright_data_port", "BRIGHT_DATA_PORT")
	_ = v.BindEnv("proxy.bright_data_user", "BRIGHT_DATA_USER")
	_ = v.BindEnv("proxy.bright_data_pass", "BRIGHT_DATA_PASS")
	_ = v.BindEnv("render_api.api_key", "RENDER_API_KEY")
	_ = v.BindEnv("fetcher.browser_headful", "OCADO_SELENIUM_HEADFUL")
}

// setDefaults registers default values in viper.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("engine.concurrency", cfg.Engine.Concurrency)
	v.SetDefault("engine.score_threshold", cfg.Engine.ScoreThreshold)
	v.SetDefault("engine.skip_retailers", cfg.Engine.SkipRetailers)

	v.SetDefault("fetcher.max_attempts", cfg.Fetcher.MaxAttempts)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.inter_strategy_delay", cfg.Fetcher.InterStrategyDelay)
	v.SetDefault("fetcher.request_timeout", cfg.Fetcher.RequestTimeout)
	v.SetDefault("fetcher.browser_timeout", cfg.Fetcher.BrowserTimeout)
	v.SetDefault("fetcher.min_body_bytes", cfg.Fetcher.MinBodyBytes)
	v.SetDefault("fetcher.browser_min_body_bytes", cfg.Fetcher.BrowserMinBodyBytes)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.session_refresh_interval", cfg.Fetcher.SessionRefreshInterval)
	v.SetDefault("fetcher.global_rps", cfg.Fetcher.GlobalRPS)

	v.SetDefault("proxy.enabled", cfg.Proxy.Enabled)
	v.SetDefault("proxy.max_failures", cfg.Proxy.MaxFailures)
	v.SetDefault("proxy.cooling_window", cfg.Proxy.CoolingWindow)

	v.SetDefault("render_api.enabled", cfg.RenderAPI.Enabled)
	v.SetDefault("render_api.endpoint", cfg.RenderAPI.Endpoint)
	v.SetDefault("render_api.daily_quota", cfg.RenderAPI.DailyQuota)
	v.SetDefault("render_api.wait", cfg.RenderAPI.Wait)
	v.SetDefault("render_api.premium_proxy", cfg.RenderAPI.PremiumProxy)
	v.SetDefault("render_api.timeout", cfg.RenderAPI.Timeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.preview_path", cfg.Storage.PreviewPath)
	v.SetDefault("storage.postgres.port", cfg.Storage.Postgres.Port)
	v.SetDefault("storage.postgres.table", cfg.Storage.Postgres.Table)
	v.SetDefault("storage.mongo.database", cfg.Storage.Mongo.Database)
	v.SetDefault("storage.mongo.collection", cfg.Storage.Mongo.Collection)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}
