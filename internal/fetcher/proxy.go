package fetcher

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/aislescout/aislescout/internal/config"
)

// ProxyPool selects upstream proxies by empirical success rate and cools a
// proxy down after repeated failures. All operations are mutex-guarded; the
// pool is shared by every fetch in the process.
type ProxyPool struct {
	mu            sync.Mutex
	proxies       []*proxyEntry
	maxFailures   int
	coolingWindow time.Duration
	logger        *slog.Logger
	now           func() time.Time
}

type proxyEntry struct {
	url       *url.URL
	kind      string
	successes int
	failures  int
	lastFail  time.Time
	coolUntil time.Time
}

// ProxyLease identifies a proxy handed out by Acquire.
type ProxyLease struct {
	URL   *url.URL
	entry *proxyEntry
}

// ProxyStats is a diagnostics snapshot of one pool entry.
type ProxyStats struct {
	Server    string
	Successes int
	Failures  int
	Cooling   bool
}

// NewProxyPool builds a pool from configuration. Bright Data credentials
// from the environment are appended as an extra entry when present. A
// disabled pool stays empty, so Acquire returns nil and fetches go direct.
func NewProxyPool(cfg *config.ProxyConfig, logger *slog.Logger) *ProxyPool {
	pool := &ProxyPool{
		maxFailures:   cfg.MaxFailures,
		coolingWindow: cfg.CoolingWindow,
		logger:        logger.With("component", "proxy_pool"),
		now:           time.Now,
	}
	if pool.maxFailures <= 0 {
		pool.maxFailures = 5
	}
	if pool.coolingWindow <= 0 {
		pool.coolingWindow = 10 * time.Minute
	}

	if !cfg.Enabled {
		pool.logger.Info("proxy pool disabled")
		return pool
	}

	for _, server := range cfg.Servers {
		if err := pool.add(server.Server, server.Username, server.Password, server.Kind); err != nil {
			pool.logger.Warn("invalid proxy server", "server", server.Server, "error", err)
		}
	}
	if cfg.BrightDataHost != "" && cfg.BrightDataPort != "" {
		server := fmt.Sprintf("http://%s:%s", cfg.BrightDataHost, cfg.BrightDataPort)
		if err := pool.add(server, cfg.BrightDataUser, cfg.BrightDataPass, "residential"); err != nil {
			pool.logger.Warn("invalid bright data proxy", "error", err)
		}
	}

	pool.logger.Info("proxy pool initialized", "count", len(pool.proxies))
	return pool
}

func (p *ProxyPool) add(server, username, password, kind string) error {
	u, err := url.Parse(server)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("proxy server needs scheme and host: %q", server)
	}
	if username != "" {
		u.User = url.UserPassword(username, password)
	}
	p.proxies = append(p.proxies, &proxyEntry{url: u, kind: kind})
	return nil
}

// Acquire returns the proxy with the highest success rate that is not
// cooling; ties break toward the fewest failures. Returns nil when the pool
// is empty or everything is cooling, in which case the caller goes direct.
func (p *ProxyPool) Acquire() *ProxyLease {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	var best *proxyEntry
	var bestRate float64
	for _, e := range p.proxies {
		if now.Before(e.coolUntil) {
			continue
		}
		// Cooling window elapsed: failure counter resets.
		if !e.coolUntil.IsZero() && !now.Before(e.coolUntil) {
			e.failures = 0
			e.coolUntil = time.Time{}
		}
		rate := successRate(e)
		if best == nil || rate > bestRate || (rate == bestRate && e.failures < best.failures) {
			best = e
			bestRate = rate
		}
	}
	if best == nil {
		return nil
	}
	return &ProxyLease{URL: best.url, entry: best}
}

// ReportSuccess records a successful request through the leased proxy.
func (p *ProxyPool) ReportSuccess(lease *ProxyLease) {
	if lease == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	lease.entry.successes++
}

// ReportFailure records a failure and starts cooling once the threshold is
// reached.
func (p *ProxyPool) ReportFailure(lease *ProxyLease, reason error) {
	if lease == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	e := lease.entry
	e.failures++
	e.lastFail = p.now()
	if e.failures >= p.maxFailures {
		e.coolUntil = p.now().Add(p.coolingWindow)
		p.logger.Warn("proxy cooling",
			"proxy", e.url.Host,
			"failures", e.failures,
			"until", e.coolUntil,
			"reason", reason,
		)
	}
}

// Stats returns a snapshot for diagnostics.
func (p *ProxyPool) Stats() []ProxyStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	out := make([]ProxyStats, 0, len(p.proxies))
	for _, e := range p.proxies {
		out = append(out, ProxyStats{
			Server:    e.url.Host,
			Successes: e.successes,
			Failures:  e.failures,
			Cooling:   now.Before(e.coolUntil),
		})
	}
	return out
}

// Size returns the number of configured proxies.
func (p *ProxyPool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

func successRate(e *proxyEntry) float64 {
	total := e.successes + e.failures
	if total == 0 {
		// Untried proxies rank above everything that has failed.
		return 1.0
	}
	return float64(e.successes) / float64(total)
}
