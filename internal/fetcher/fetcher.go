package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"time"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

// strategy is one way of acquiring a page body. Strategies return the raw
// body and HTTP status; classification (blocked, empty) happens in Fetch.
type strategy interface {
	name() string
	fetch(ctx context.Context, target *url.URL, profile *retailers.Profile, sess *Session, lease *ProxyLease) ([]byte, int, error)
}

// Fetcher is the two-phase page acquirer. Phase 1 cascades local strategies
// (plain HTTP, TLS-emulating client, headless browser); Phase 2 is the paid
// renderer, invoked by the dispatcher through RenderFetch for hosts observed
// blocked.
type Fetcher struct {
	cfg      *config.FetcherConfig
	ua       *UserAgentPool
	proxies  *ProxyPool
	sessions *SessionPool
	limiter  *RateLimiter
	cache    *ResponseCache
	blocked  *blockedHosts
	render   *RenderClient
	logger   *slog.Logger

	httpStrat    *httpStrategy
	tlsStrat     *tlsStrategy
	browserStrat *browserStrategy
}

// New wires a Fetcher from configuration. The response cache and proxy pool
// are owned here and shared by every fetch in the process.
func New(cfg *config.Config, logger *slog.Logger) *Fetcher {
	ua := NewUserAgentPool()
	f := &Fetcher{
		cfg:      &cfg.Fetcher,
		ua:       ua,
		proxies:  NewProxyPool(&cfg.Proxy, logger),
		sessions: NewSessionPool(cfg.Fetcher.SessionRefreshInterval, ua, logger),
		limiter:  NewRateLimiter(cfg.Fetcher.GlobalRPS, logger),
		cache:    NewResponseCache(),
		blocked:  newBlockedHosts(),
		render:   NewRenderClient(&cfg.RenderAPI, logger),
		logger:   logger.With("component", "fetcher"),
	}
	f.httpStrat = newHTTPStrategy(&cfg.Fetcher, ua, logger)
	f.tlsStrat = newTLSStrategy(&cfg.Fetcher, logger)
	f.browserStrat = newBrowserStrategy(&cfg.Fetcher, ua, logger)
	return f
}

// Render exposes the Phase 2 client (quota checks, diagnostics).
func (f *Fetcher) Render() *RenderClient { return f.render }

// Blocked returns the retailers observed blocked so far this run.
func (f *Fetcher) Blocked() []types.RetailerID { return f.blocked.snapshot() }

// WasBlocked reports whether the retailer was ever observed blocked.
func (f *Fetcher) WasBlocked(id types.RetailerID) bool { return f.blocked.contains(id) }

// CacheLen reports the response cache size (diagnostics).
func (f *Fetcher) CacheLen() int { return f.cache.Len() }

// Fetch runs Phase 1 for one URL: rate-limit wait, then the retailer's
// strategy cascade, up to MaxAttempts passes. A blocked observation marks
// the host. Exhaustion keeps the strongest classification seen: blocked
// beats empty beats error, and an empty exhaustion carries the last
// undersized body so URL inference downstream still has the page context.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string, id types.RetailerID) *types.FetchResult {
	start := time.Now()

	if body, hit := f.cache.Get(rawURL); hit {
		if body == nil {
			return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
		}
		return &types.FetchResult{
			Body:          body,
			Status:        types.FetchOK,
			Method:        "cache",
			BytesReceived: len(body),
			Elapsed:       time.Since(start),
		}
	}

	target, err := url.Parse(rawURL)
	if err != nil || target.Host == "" {
		return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
	}

	profile := retailers.Get(id)
	strategies := f.orderedStrategies(profile)
	sawBlocked := false
	sawEmpty := false
	var emptyBody []byte

	for attempt := 0; attempt < maxOrOne(f.cfg.MaxAttempts); attempt++ {
		for _, strat := range strategies {
			if err := f.limiter.Wait(ctx, profile); err != nil {
				return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
			}

			sess := f.sessions.Get(id)
			sess.SeedCookies(target)

			var lease *ProxyLease
			if strat != f.browserStrat {
				lease = f.proxies.Acquire()
			}

			body, status, err := strat.fetch(ctx, target, profile, sess, lease)
			switch f.classify(body, status, err, profile, strat) {
			case types.FetchOK:
				f.proxies.ReportSuccess(lease)
				f.cache.Put(rawURL, body)
				f.logger.Debug("fetch ok",
					"retailer", id, "method", strat.name(), "bytes", len(body))
				return &types.FetchResult{
					Body:          body,
					Status:        types.FetchOK,
					Method:        strat.name(),
					BytesReceived: len(body),
					Elapsed:       time.Since(start),
				}
			case types.FetchBlocked:
				sawBlocked = true
				f.blocked.mark(id)
				f.proxies.ReportFailure(lease, types.ErrBlocked)
				f.sessions.Rotate(id)
				f.logger.Debug("fetch blocked", "retailer", id, "method", strat.name(), "status", status)
			case types.FetchEmpty:
				sawEmpty = true
				emptyBody = body
				f.proxies.ReportSuccess(lease)
				f.logger.Debug("fetch empty", "retailer", id, "method", strat.name(), "bytes", len(body))
			default:
				f.proxies.ReportFailure(lease, err)
				if err != nil && !errors.Is(err, context.Canceled) {
					f.logger.Debug("fetch error", "retailer", id, "method", strat.name(), "error", err)
				}
			}

			if ctx.Err() != nil {
				return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
			}
		}
		if err := sleepCtx(ctx, f.cfg.InterStrategyDelay); err != nil {
			break
		}
	}

	if sawBlocked {
		f.cache.PutNegative(rawURL)
		return &types.FetchResult{Status: types.FetchBlocked, Elapsed: time.Since(start)}
	}
	if sawEmpty {
		// Not cached: a later run may get a full body.
		return &types.FetchResult{
			Body:          emptyBody,
			Status:        types.FetchEmpty,
			BytesReceived: len(emptyBody),
			Elapsed:       time.Since(start),
		}
	}
	f.cache.PutNegative(rawURL)
	return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
}

// RenderFetch is Phase 2: acquire through the paid renderer, validating the
// body the same way Phase 1 does. Callers must only pass hosts they observed
// blocked.
func (f *Fetcher) RenderFetch(ctx context.Context, rawURL string, id types.RetailerID) *types.FetchResult {
	start := time.Now()
	profile := retailers.Get(id)
	if profile.SkipExternalRenderer || !f.render.Available() {
		return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
	}

	body, err := f.render.Fetch(ctx, rawURL)
	if err != nil {
		return &types.FetchResult{Status: types.FetchError, Elapsed: time.Since(start)}
	}
	if len(body) < f.cfg.MinBodyBytes {
		return &types.FetchResult{Status: types.FetchEmpty, BytesReceived: len(body), Elapsed: time.Since(start)}
	}
	if IsBlockedBody(body) {
		return &types.FetchResult{Status: types.FetchBlocked, BytesReceived: len(body), Elapsed: time.Since(start)}
	}

	f.cache.Put(rawURL, body)
	return &types.FetchResult{
		Body:          body,
		Status:        types.FetchOK,
		Method:        "render_api",
		BytesReceived: len(body),
		Elapsed:       time.Since(start),
	}
}

// orderedStrategies builds the cascade for one retailer. Hosts with warm-up
// paths get the TLS client first (it replays the warm-up cheaply); strict
// hosts append the browser unless it is known to wedge on them.
func (f *Fetcher) orderedStrategies(profile *retailers.Profile) []strategy {
	var out []strategy
	if len(profile.WarmupPaths) > 0 {
		out = append(out, f.tlsStrat, f.httpStrat)
	} else {
		out = append(out, f.httpStrat, f.tlsStrat)
	}
	if profile.NeedsBrowserFallback && !profile.SkipBrowser {
		out = append(out, f.browserStrat)
	}
	return out
}

// classify turns a strategy result into a StatusHint.
func (f *Fetcher) classify(body []byte, status int, err error, profile *retailers.Profile, strat strategy) types.StatusHint {
	if err != nil {
		return types.FetchError
	}
	if IsBlockedStatus(status) {
		return types.FetchBlocked
	}
	minBytes := f.cfg.MinBodyBytes
	if strat == f.browserStrat && profile.NeedsBrowserFallback {
		// Interstitial-only DOMs are large enough in markup but empty of
		// product content.
		minBytes = f.cfg.BrowserMinBodyBytes
		if visibleTextLen(body) < 200 {
			return types.FetchBlocked
		}
	}
	if IsBlockedBody(body) {
		return types.FetchBlocked
	}
	if len(body) < minBytes {
		return types.FetchEmpty
	}
	return types.FetchOK
}
