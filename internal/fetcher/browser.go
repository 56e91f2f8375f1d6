package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/url"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// browserStrategy is the last local tier: a stealth-patched headless Chromium
// launched per invocation, so a wedged renderer never outlives one fetch.
// Strict retailers get a multi-step warm-up (homepage, then a section page)
// before the product page.
type browserStrategy struct {
	cfg    *config.FetcherConfig
	ua     *UserAgentPool
	logger *slog.Logger
}

func newBrowserStrategy(cfg *config.FetcherConfig, ua *UserAgentPool, logger *slog.Logger) *browserStrategy {
	return &browserStrategy{
		cfg:    cfg,
		ua:     ua,
		logger: logger.With("component", "browser_strategy"),
	}
}

func (s *browserStrategy) name() string { return "browser" }

func (s *browserStrategy) fetch(ctx context.Context, target *url.URL, profile *retailers.Profile, sess *Session, _ *ProxyLease) (body []byte, status int, err error) {
	timeout := s.cfg.BrowserTimeout
	if timeout <= 0 {
		timeout = 45 * time.Second
	}

	defer func() {
		// rod's Must* helpers panic; keep the crash inside this invocation.
		if r := recover(); r != nil {
			body, status = nil, 0
			err = &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: fmt.Errorf("browser panic: %v", r)}
		}
	}()

	l := launcher.New().
		Headless(!s.cfg.BrowserHeadful).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}

	browser := rod.New().ControlURL(launchURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}
	defer func() {
		_ = browser.Close()
		l.Kill()
	}()

	page, err := stealth.Page(browser)
	if err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: fmt.Errorf("stealth page: %w", err)}
	}

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: sess.UA}); err != nil {
		s.logger.Warn("failed to set user agent", "error", err)
	}

	// Warm-up: homepage then section, so the product request carries history.
	for _, warm := range profile.WarmupPaths {
		warmURL := url.URL{Scheme: target.Scheme, Host: target.Host, Path: warm}
		if err := s.navigate(page, warmURL.String(), timeout); err != nil {
			s.logger.Debug("browser warm-up failed", "url", warmURL.String(), "error", err)
			break
		}
		if err := sleepCtx(ctx, time.Duration(1+rand.Intn(2))*time.Second); err != nil {
			return nil, 0, err
		}
	}

	if err := s.navigate(page, target.String(), timeout); err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}

	// Let client-side rendering settle after document-ready.
	settle := time.Duration(3+rand.Intn(9)) * time.Second
	if err := sleepCtx(ctx, settle); err != nil {
		return nil, 0, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, 0, &types.FetchStrategyError{URL: target.String(), Strategy: s.name(), Err: err}
	}

	s.logger.Debug("browser capture complete", "url", target.String(), "size", len(html))
	return []byte(html), 200, nil
}

// navigate loads a URL and blocks until document.readyState is "complete".
func (s *browserStrategy) navigate(page *rod.Page, rawURL string, timeout time.Duration) error {
	p := page.Timeout(timeout)
	if err := p.Navigate(rawURL); err != nil {
		return err
	}
	if err := p.WaitLoad(); err != nil {
		return err
	}
	_, err := p.Eval(`() => document.readyState`)
	return err
}
