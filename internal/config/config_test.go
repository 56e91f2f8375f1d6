package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Engine.ScoreThreshold != 50 {
		t.Errorf("score threshold = %d, want 50", cfg.Engine.ScoreThreshold)
	}
	if cfg.Engine.Concurrency < 1 {
		t.Error("concurrency must default to at least 1")
	}
	if cfg.RenderAPI.DailyQuota <= 0 {
		t.Error("render quota must default positive")
	}
	if !cfg.Proxy.Enabled {
		t.Error("proxy pool must default enabled so the bright data env entry keeps working")
	}
	if err := Validate(cfg); err == nil {
		// Default storage is postgres with no host; only preview-only passes.
		t.Error("default config without PGHOST should fail validation")
	}
	cfg.Storage.PreviewOnly = true
	if err := Validate(cfg); err != nil {
		t.Errorf("preview-only default config should validate: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "aislescout.yaml")
	yaml := `
engine:
  concurrency: 3
  score_threshold: 60
fetcher:
  max_attempts: 1
  request_timeout: 5s
storage:
  type: none
  input_path: ./rows.csv
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine.Concurrency != 3 {
		t.Errorf("concurrency = %d, want 3", cfg.Engine.Concurrency)
	}
	if cfg.Engine.ScoreThreshold != 60 {
		t.Errorf("threshold = %d, want 60", cfg.Engine.ScoreThreshold)
	}
	if cfg.Fetcher.RequestTimeout != 5*time.Second {
		t.Errorf("timeout = %v, want 5s", cfg.Fetcher.RequestTimeout)
	}
	if cfg.Storage.InputPath != "./rows.csv" {
		t.Errorf("input = %q", cfg.Storage.InputPath)
	}
	// Untouched keys keep defaults.
	if cfg.Fetcher.MinBodyBytes != 500 {
		t.Errorf("min body bytes = %d, want default 500", cfg.Fetcher.MinBodyBytes)
	}
}

func TestLoadLegacyEnv(t *testing.T) {
	t.Setenv("PGHOST", "db.internal")
	t.Setenv("PGDATABASE", "products")
	t.Setenv("PGUSER", "scout")
	t.Setenv("PGPASSWORD", "secret")
	t.Setenv("PREVIEW_ONLY", "true")
	t.Setenv("BRIGHT_DATA_HOST", "brd.superproxy.io")
	t.Setenv("RENDER_API_KEY", "zr-key")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Storage.Postgres.Host != "db.internal" {
		t.Errorf("PGHOST not bound: %q", cfg.Storage.Postgres.Host)
	}
	if cfg.Storage.Postgres.Database != "products" || cfg.Storage.Postgres.User != "scout" {
		t.Error("PGDATABASE/PGUSER not bound")
	}
	if !cfg.Storage.PreviewOnly {
		t.Error("PREVIEW_ONLY not bound")
	}
	if cfg.Proxy.BrightDataHost != "brd.superproxy.io" {
		t.Error("BRIGHT_DATA_HOST not bound")
	}
	if cfg.RenderAPI.APIKey != "zr-key" {
		t.Error("RENDER_API_KEY not bound")
	}
	if cfg.Storage.Postgres.Port != "5432" {
		t.Errorf("port = %q, want default 5432", cfg.Storage.Postgres.Port)
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg := DefaultConfig()
		cfg.Storage.Type = "none"
		return cfg
	}

	t.Run("accepts sane config", func(t *testing.T) {
		if err := Validate(base()); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("rejects zero concurrency", func(t *testing.T) {
		cfg := base()
		cfg.Engine.Concurrency = 0
		if err := Validate(cfg); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("rejects out-of-range threshold", func(t *testing.T) {
		cfg := base()
		cfg.Engine.ScoreThreshold = 150
		if err := Validate(cfg); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("render api needs a key", func(t *testing.T) {
		cfg := base()
		cfg.RenderAPI.Enabled = true
		if err := Validate(cfg); err == nil {
			t.Error("expected error")
		}
		cfg.RenderAPI.APIKey = "k"
		if err := Validate(cfg); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("unknown storage type rejected", func(t *testing.T) {
		cfg := base()
		cfg.Storage.Type = "dynamo"
		if err := Validate(cfg); err == nil {
			t.Error("expected error")
		}
	})
}

func TestValidateURL(t *testing.T) {
	for _, ok := range []string{"https://www.tesco.com/p/1", "http://example.com/x"} {
		if err := ValidateURL(ok); err != nil {
			t.Errorf("ValidateURL(%q) = %v", ok, err)
		}
	}
	for _, bad := range []string{"", "ftp://example.com/x", "javascript:void(0)", "https://"} {
		if err := ValidateURL(bad); err == nil {
			t.Errorf("ValidateURL(%q) should fail", bad)
		}
	}
}
