package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aislescout/aislescout/internal/aisleid"
	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/engine"
	"github.com/aislescout/aislescout/internal/extract"
	"github.com/aislescout/aislescout/internal/fetcher"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/rows"
	"github.com/aislescout/aislescout/internal/sink"
	"github.com/aislescout/aislescout/internal/types"
)

var (
	cfgFile     string
	verbose     bool
	inputPath   string
	aislesPath  string
	previewPath string
	previewOnly bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "aislescout",
		Short: "AisleScout annotates grocery products with store aisle breadcrumbs",
		Long: `AisleScout annotates product rows with store-aisle breadcrumbs.

For each product it visits the store links across UK grocery retailers,
extracts the breadcrumb trail from the product page, scores it, and writes
one record per store link to a CSV preview and the configured database.`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(testCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// runCmd creates the "run" subcommand.
func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [limit]",
		Short: "Annotate product rows from the input CSV",
		Long: `Process product rows from the input CSV, optionally capped at the first
N rows. Each row's store links are visited in retailer priority order and
the run stops early per row once a good-enough trail is found.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runRun,
	}

	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "input CSV of product rows")
	cmd.Flags().StringVar(&aislesPath, "aisles", "", "reference aisle taxonomy CSV")
	cmd.Flags().StringVarP(&previewPath, "preview", "o", "", "preview CSV output path")
	cmd.Flags().BoolVar(&previewOnly, "preview-only", false, "skip all persistent writes")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if cfg.Storage.InputPath == "" {
		return fmt.Errorf("no input CSV: set --input or storage.input_path")
	}

	limit := 0
	if len(args) == 1 {
		limit, err = strconv.Atoi(args[0])
		if err != nil || limit < 1 {
			return fmt.Errorf("limit must be a positive integer, got %q", args[0])
		}
	}

	input, err := rows.NewReader(cfg.Storage.InputPath, logger).Read(limit)
	if err != nil {
		return err
	}
	if len(input) == 0 {
		logger.Warn("no rows to process")
		return nil
	}

	var matcher *aisleid.Matcher
	if cfg.Storage.AislesPath != "" {
		matcher, err = aisleid.Load(cfg.Storage.AislesPath, logger)
		if err != nil {
			return err
		}
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, finishing current rows...", "signal", sig)
		stop()
	}()

	sinks, err := sink.Open(ctx, &cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		for _, s := range sinks {
			if err := s.Close(context.Background()); err != nil {
				logger.Error("sink close failed", "sink", s.Name(), "error", err)
			}
		}
	}()

	f := fetcher.New(cfg, logger)
	dispatcher := engine.NewDispatcher(&cfg.Engine, f, logger)
	eng := engine.New(&cfg.Engine, dispatcher, sinks, matcher, logger)

	logger.Info("starting run",
		"rows", len(input),
		"concurrency", cfg.Engine.Concurrency,
		"threshold", cfg.Engine.ScoreThreshold,
		"preview", cfg.Storage.PreviewPath,
	)

	stats := eng.Run(ctx, input)

	fmt.Printf("\nRun complete in %s\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Printf("   Rows:      %d processed, %d annotated, %d failed\n", stats.Rows, stats.Annotated, stats.Failed)
	fmt.Printf("   Records:   %d written\n", stats.Records)
	if blocked := f.Blocked(); len(blocked) > 0 {
		names := make([]string, len(blocked))
		for i, id := range blocked {
			names[i] = string(id)
		}
		fmt.Printf("   Blocked:   %s\n", strings.Join(names, ", "))
	}
	if used := f.Render().Used(); used > 0 {
		fmt.Printf("   Renderer:  %d credits used\n", used)
	}
	return nil
}

// testCmd creates the "test" subcommand: one URL, full diagnostics.
func testCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "test <url> [retailer]",
		Short: "Fetch and extract a single product URL",
		Long: `Fetch one product page, run the extraction cascade, and print the
breadcrumbs, method, and score. The retailer is inferred from the URL host
unless given explicitly.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: runTest,
	}
}

func runTest(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := config.ValidateURL(args[0]); err != nil {
		return fmt.Errorf("invalid URL %q: %w", args[0], err)
	}

	var id types.RetailerID
	if len(args) == 2 {
		id = retailers.Normalize(args[1])
	} else {
		id = inferRetailer(args[0])
	}
	fmt.Printf("Retailer: %s\n", id)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	f := fetcher.New(cfg, logger)
	result := f.Fetch(ctx, args[0], id)
	fmt.Printf("Fetch:    %s via %s (%d bytes, %s)\n",
		result.Status, result.Method, result.BytesReceived, result.Elapsed.Round(time.Millisecond))
	if !result.OK() {
		return fmt.Errorf("fetch failed with status %s", result.Status)
	}

	extracted, err := extract.Extract(result.Body, args[0], id)
	if err != nil {
		return err
	}
	if extracted == nil {
		fmt.Println("No breadcrumbs found")
		return nil
	}
	fmt.Printf("Method:   %s\n", extracted.Method)
	fmt.Printf("Score:    %d\n", extracted.Score)
	fmt.Printf("Aisle:    %s\n", strings.Join(extracted.Breadcrumbs, " > "))
	return nil
}

// inferRetailer matches the URL host against known retailer IDs and aliases.
func inferRetailer(rawURL string) types.RetailerID {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := strings.ToLower(strings.TrimPrefix(u.Hostname(), "www."))
	for _, p := range retailers.All() {
		if strings.Contains(host, string(p.ID)) {
			return p.ID
		}
	}
	// "sainsburys.co.uk" style hosts normalize cleanly.
	return retailers.Normalize(strings.Split(host, ".")[0])
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("AisleScout %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Engine:\n")
			fmt.Printf("  Concurrency:       %d\n", cfg.Engine.Concurrency)
			fmt.Printf("  Score Threshold:   %d\n", cfg.Engine.ScoreThreshold)
			fmt.Printf("  Skip Retailers:    %s\n", strings.Join(cfg.Engine.SkipRetailers, ", "))
			fmt.Printf("\nFetcher:\n")
			fmt.Printf("  Max Attempts:      %d\n", cfg.Fetcher.MaxAttempts)
			fmt.Printf("  Request Timeout:   %s\n", cfg.Fetcher.RequestTimeout)
			fmt.Printf("  Browser Timeout:   %s\n", cfg.Fetcher.BrowserTimeout)
			fmt.Printf("  Min Body Bytes:    %d\n", cfg.Fetcher.MinBodyBytes)
			fmt.Printf("  Global RPS:        %.1f\n", cfg.Fetcher.GlobalRPS)
			fmt.Printf("\nProxy:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Proxy.Enabled)
			fmt.Printf("  Servers:           %d configured\n", len(cfg.Proxy.Servers))
			fmt.Printf("  Cooling Window:    %s\n", cfg.Proxy.CoolingWindow)
			fmt.Printf("\nRender API:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.RenderAPI.Enabled)
			fmt.Printf("  Daily Quota:       %d\n", cfg.RenderAPI.DailyQuota)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  Type:              %s\n", cfg.Storage.Type)
			fmt.Printf("  Preview Path:      %s\n", cfg.Storage.PreviewPath)
			fmt.Printf("  Preview Only:      %v\n", cfg.Storage.PreviewOnly)
			fmt.Printf("  Input Path:        %s\n", cfg.Storage.InputPath)
			return nil
		},
	}
}

// applyCLIOverrides applies command-line flags over the loaded config.
func applyCLIOverrides(cfg *config.Config) {
	if inputPath != "" {
		cfg.Storage.InputPath = inputPath
	}
	if aislesPath != "" {
		cfg.Storage.AislesPath = aislesPath
	}
	if previewPath != "" {
		cfg.Storage.PreviewPath = previewPath
	}
	if previewOnly {
		cfg.Storage.PreviewOnly = true
	}
}

// setupLogger creates a structured logger.
func setupLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	handler := slog.NewTextHandler(os.Stderr, opts)
	return slog.New(handler)
}
