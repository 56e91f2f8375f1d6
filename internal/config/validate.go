package config

import (
	"fmt"
	"net/url"
	"strings"
)

// Validate checks a loaded configuration for inconsistencies that would only
// surface mid-run otherwise.
func Validate(cfg *Config) error {
	if cfg.Engine.Concurrency < 1 {
		return fmt.Errorf("engine.concurrency must be >= 1, got %d", cfg.Engine.Concurrency)
	}
	if cfg.Engine.ScoreThreshold < 0 || cfg.Engine.ScoreThreshold > 100 {
		return fmt.Errorf("engine.score_threshold must be in [0,100], got %d", cfg.Engine.ScoreThreshold)
	}
	if cfg.Fetcher.MaxAttempts < 1 {
		return fmt.Errorf("fetcher.max_attempts must be >= 1, got %d", cfg.Fetcher.MaxAttempts)
	}
	if cfg.Fetcher.MinBodyBytes < 0 {
		return fmt.Errorf("fetcher.min_body_bytes must be >= 0")
	}
	if cfg.RenderAPI.Enabled && cfg.RenderAPI.APIKey == "" {
		return fmt.Errorf("render_api.enabled requires render_api.api_key (RENDER_API_KEY)")
	}
	switch cfg.Storage.Type {
	case "postgres":
		if !cfg.Storage.PreviewOnly && cfg.Storage.Postgres.Host == "" {
			return fmt.Errorf("storage.type=postgres requires PGHOST (or storage.postgres.host)")
		}
	case "mongo":
		if !cfg.Storage.PreviewOnly && cfg.Storage.Mongo.URI == "" {
			return fmt.Errorf("storage.type=mongo requires storage.mongo.uri")
		}
	case "none", "":
	default:
		return fmt.Errorf("unknown storage.type %q", cfg.Storage.Type)
	}
	for _, p := range cfg.Proxy.Servers {
		if _, err := url.Parse(p.Server); err != nil || p.Server == "" {
			return fmt.Errorf("invalid proxy server %q", p.Server)
		}
	}
	return nil
}

// ValidateURL checks that a store link is an http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}
