package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/types"
)

// RenderClient calls the paid rendering API (Phase 2). Every call counts
// against a daily quota; once the provider signals exhaustion the client
// turns itself off for the rest of the run.
type RenderClient struct {
	cfg    *config.RenderAPIConfig
	client *http.Client
	logger *slog.Logger

	mu        sync.Mutex
	used      int
	exhausted bool
}

func NewRenderClient(cfg *config.RenderAPIConfig, logger *slog.Logger) *RenderClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &RenderClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		logger: logger.With("component", "render_api"),
	}
}

// Available reports whether the client may still be used this run.
func (rc *RenderClient) Available() bool {
	if rc == nil || !rc.cfg.Enabled {
		return false
	}
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return !rc.exhausted && (rc.cfg.DailyQuota <= 0 || rc.used < rc.cfg.DailyQuota)
}

// Used returns how many quota units this run consumed.
func (rc *RenderClient) Used() int {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.used
}

// Fetch renders targetURL through the API and returns the DOM bytes.
func (rc *RenderClient) Fetch(ctx context.Context, targetURL string) ([]byte, error) {
	if !rc.Available() {
		return nil, types.ErrQuotaExhausted
	}

	params := url.Values{}
	params.Set("apikey", rc.cfg.APIKey)
	params.Set("url", targetURL)
	params.Set("js_render", "true")
	if rc.cfg.PremiumProxy {
		params.Set("premium_proxy", "true")
	}
	if rc.cfg.Wait > 0 {
		params.Set("wait", strconv.Itoa(int(rc.cfg.Wait.Milliseconds())))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rc.cfg.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, &types.FetchStrategyError{URL: targetURL, Strategy: "render_api", Err: err}
	}

	resp, err := rc.client.Do(req)
	if err != nil {
		return nil, &types.FetchStrategyError{URL: targetURL, Strategy: "render_api", Err: err}
	}
	defer resp.Body.Close()

	rc.mu.Lock()
	rc.used++
	rc.mu.Unlock()

	// 402 is the provider's quota signal; disable for the rest of the run.
	if resp.StatusCode == http.StatusPaymentRequired {
		rc.mu.Lock()
		rc.exhausted = true
		rc.mu.Unlock()
		rc.logger.Warn("render API quota exhausted", "used", rc.Used())
		return nil, types.ErrQuotaExhausted
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &types.FetchStrategyError{
			URL:        targetURL,
			Strategy:   "render_api",
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("render API returned %s", resp.Status),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10*1024*1024))
	if err != nil {
		return nil, &types.FetchStrategyError{URL: targetURL, Strategy: "render_api", Err: err}
	}
	return body, nil
}
