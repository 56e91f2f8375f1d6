package fetcher

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/aislescout/aislescout/internal/config"
	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

func profileFor(t *testing.T, id types.RetailerID) *retailers.Profile {
	t.Helper()
	if !retailers.Known(id) {
		t.Fatalf("no curated profile for %q", id)
	}
	return retailers.Get(id)
}

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestIsBlockedBody(t *testing.T) {
	cases := []struct {
		name string
		body string
		want bool
	}{
		{"imperva interstitial", `<html><head><title>Pardon Our Interruption</title></head><body>...</body></html>`, true},
		{"access denied", `<html><body><h1>Access Denied</h1></body></html>`, true},
		{"cloudflare", `<html><body>Checking your browser. Cloudflare challenge in progress.</body></html>`, true},
		{"captcha", `<html><body>Please complete the CAPTCHA to continue</body></html>`, true},
		{"normal page", `<html><body><nav class="breadcrumb"><a>Home</a></nav><h1>Milk 2L</h1></body></html>`, false},
		{"empty", ``, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsBlockedBody([]byte(tc.body)); got != tc.want {
				t.Errorf("IsBlockedBody = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestIsBlockedBodyScanWindow(t *testing.T) {
	// Indicators beyond the scan window are product copy, not interstitials.
	padding := make([]byte, blockScanWindow)
	for i := range padding {
		padding[i] = 'a'
	}
	body := append(padding, []byte("access denied")...)
	if IsBlockedBody(body) {
		t.Error("indicator past the scan window must not mark the page blocked")
	}
}

func TestIsBlockedStatus(t *testing.T) {
	for _, status := range []int{403, 429, 503} {
		if !IsBlockedStatus(status) {
			t.Errorf("status %d should read as blocked", status)
		}
	}
	for _, status := range []int{200, 301, 404, 500} {
		if IsBlockedStatus(status) {
			t.Errorf("status %d should not read as blocked", status)
		}
	}
}

func TestResponseCache(t *testing.T) {
	t.Run("positive entry", func(t *testing.T) {
		c := NewResponseCache()
		c.Put("https://example.com/a", []byte("body"))
		body, hit := c.Get("https://example.com/a")
		if !hit || string(body) != "body" {
			t.Errorf("Get = (%q, %v), want (body, true)", body, hit)
		}
	})

	t.Run("negative entry is stable", func(t *testing.T) {
		c := NewResponseCache()
		c.PutNegative("https://example.com/b")
		c.Put("https://example.com/b", []byte("late body"))
		body, hit := c.Get("https://example.com/b")
		if !hit || body != nil {
			t.Errorf("negative entry was overwritten: (%q, %v)", body, hit)
		}
	})

	t.Run("concurrent writers observe one value", func(t *testing.T) {
		c := NewResponseCache()
		const url = "https://example.com/c"
		var wg sync.WaitGroup
		for i := 0; i < 50; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if i%2 == 0 {
					c.PutNegative(url)
				} else {
					c.Put(url, []byte("body"))
				}
			}(i)
		}
		wg.Wait()

		first, hit := c.Get(url)
		if !hit {
			t.Fatal("expected a cache hit")
		}
		for i := 0; i < 100; i++ {
			got, _ := c.Get(url)
			if (got == nil) != (first == nil) {
				t.Fatal("cache entry flipped between reads")
			}
		}
	})
}

func TestProxyPool(t *testing.T) {
	newPool := func(servers ...string) *ProxyPool {
		cfg := &config.ProxyConfig{Enabled: true, MaxFailures: 3, CoolingWindow: 10 * time.Minute}
		for _, s := range servers {
			cfg.Servers = append(cfg.Servers, config.ProxyServer{Server: s})
		}
		return NewProxyPool(cfg, testLogger)
	}

	t.Run("empty pool acquires nil", func(t *testing.T) {
		if lease := newPool().Acquire(); lease != nil {
			t.Errorf("expected nil lease, got %v", lease.URL)
		}
	})

	t.Run("prefers higher success rate", func(t *testing.T) {
		pool := newPool("http://good.example:8080", "http://bad.example:8080")

		// Teach the pool: first proxy succeeds, second one fails.
		for _, e := range pool.proxies {
			lease := &ProxyLease{URL: e.url, entry: e}
			if e.url.Hostname() == "good.example" {
				pool.ReportSuccess(lease)
				pool.ReportSuccess(lease)
			} else {
				pool.ReportSuccess(lease)
				pool.ReportFailure(lease, types.ErrBlocked)
			}
		}

		lease := pool.Acquire()
		if lease == nil || lease.URL.Hostname() != "good.example" {
			t.Errorf("expected good.example, got %v", lease)
		}
	})

	t.Run("cooling removes proxy from rotation", func(t *testing.T) {
		pool := newPool("http://only.example:8080")
		lease := pool.Acquire()
		if lease == nil {
			t.Fatal("expected a lease")
		}
		for i := 0; i < 3; i++ {
			pool.ReportFailure(lease, types.ErrBlocked)
		}
		if got := pool.Acquire(); got != nil {
			t.Errorf("cooling proxy still handed out: %v", got.URL)
		}
	})

	t.Run("failures reset after cooling window", func(t *testing.T) {
		pool := newPool("http://only.example:8080")
		lease := pool.Acquire()
		for i := 0; i < 3; i++ {
			pool.ReportFailure(lease, types.ErrBlocked)
		}

		pool.now = func() time.Time { return time.Now().Add(11 * time.Minute) }
		revived := pool.Acquire()
		if revived == nil {
			t.Fatal("proxy should return after the cooling window")
		}
		if revived.entry.failures != 0 {
			t.Errorf("failures = %d, want 0 after cooling", revived.entry.failures)
		}
	})

	t.Run("disabled pool ignores configured servers", func(t *testing.T) {
		cfg := &config.ProxyConfig{
			Enabled:        false,
			Servers:        []config.ProxyServer{{Server: "http://configured.example:8080"}},
			BrightDataHost: "brd.superproxy.io",
			BrightDataPort: "22225",
		}
		pool := NewProxyPool(cfg, testLogger)
		if pool.Size() != 0 {
			t.Fatalf("pool size = %d, want 0 when disabled", pool.Size())
		}
		if lease := pool.Acquire(); lease != nil {
			t.Errorf("disabled pool handed out %v", lease.URL)
		}
	})

	t.Run("bright data appended from env config", func(t *testing.T) {
		cfg := &config.ProxyConfig{
			Enabled:        true,
			BrightDataHost: "brd.superproxy.io",
			BrightDataPort: "22225",
			BrightDataUser: "user",
			BrightDataPass: "pass",
		}
		pool := NewProxyPool(cfg, testLogger)
		if pool.Size() != 1 {
			t.Fatalf("pool size = %d, want 1", pool.Size())
		}
		lease := pool.Acquire()
		if lease == nil || lease.URL.User == nil {
			t.Fatal("bright data entry should carry credentials")
		}
	})
}

func TestVisibleTextLen(t *testing.T) {
	page := `<html><head><script>var x = "lots of invisible code";</script>
	<style>.a{color:red}</style></head>
	<body><p>Twelve chars</p></body></html>`
	got := visibleTextLen([]byte(page))
	if got < 10 || got > 30 {
		t.Errorf("visibleTextLen = %d, want roughly the body text only", got)
	}
}

func TestOrderedStrategies(t *testing.T) {
	cfg := config.DefaultConfig()
	f := New(cfg, testLogger)

	t.Run("warmup hosts lead with tls", func(t *testing.T) {
		strats := f.orderedStrategies(profileFor(t, "tesco"))
		if len(strats) < 2 || strats[0].name() != "tls_client" {
			t.Errorf("tesco should lead with tls_client, got %v", names(strats))
		}
		if strats[len(strats)-1].name() != "browser" {
			t.Errorf("tesco should end with browser, got %v", names(strats))
		}
	})

	t.Run("plain hosts lead with http", func(t *testing.T) {
		strats := f.orderedStrategies(profileFor(t, "lidl"))
		if strats[0].name() != "http" {
			t.Errorf("lidl should lead with http, got %v", names(strats))
		}
	})

	t.Run("skip browser respected", func(t *testing.T) {
		for _, s := range f.orderedStrategies(profileFor(t, "aldi")) {
			if s.name() == "browser" {
				t.Error("aldi must never get the browser strategy")
			}
		}
	})
}

// newTestFetcher builds a real Fetcher pointed at a local server, with
// rate-limiter sleeps neutralized so exhaustion runs in milliseconds.
func newTestFetcher(t *testing.T, handler http.Handler) (*Fetcher, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := config.DefaultConfig()
	cfg.Fetcher.MaxAttempts = 1
	cfg.Fetcher.MaxRetries = 1
	cfg.Fetcher.InterStrategyDelay = time.Millisecond
	cfg.Fetcher.RequestTimeout = 2 * time.Second
	f := New(cfg, testLogger)
	f.limiter.sleepFn = func(context.Context, time.Duration) error { return nil }
	return f, srv
}

func TestFetchExhaustion(t *testing.T) {
	t.Run("undersized bodies exhaust to empty", func(t *testing.T) {
		f, srv := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "<html><body>tiny</body></html>")
		}))

		res := f.Fetch(context.Background(), srv.URL+"/health-beauty/cough-cold-flu/capsules-1", "savers")
		if res.Status != types.FetchEmpty {
			t.Fatalf("status = %q, want %q after every strategy returns an undersized body", res.Status, types.FetchEmpty)
		}
		if len(res.Body) == 0 {
			t.Error("empty exhaustion should carry the undersized body")
		}
		if f.WasBlocked("savers") {
			t.Error("an undersized body must not mark the host blocked")
		}
	})

	t.Run("blocked statuses exhaust to blocked", func(t *testing.T) {
		f, srv := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))

		res := f.Fetch(context.Background(), srv.URL+"/p/1", "savers")
		if res.Status != types.FetchBlocked {
			t.Fatalf("status = %q, want %q", res.Status, types.FetchBlocked)
		}
		if !f.WasBlocked("savers") {
			t.Error("blocked exhaustion should mark the host")
		}
	})

	t.Run("blocked outranks empty", func(t *testing.T) {
		var calls int
		var mu sync.Mutex
		f, srv := newTestFetcher(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				_, _ = io.WriteString(w, "<html></html>")
				return
			}
			w.WriteHeader(http.StatusForbidden)
		}))

		res := f.Fetch(context.Background(), srv.URL+"/p/2", "savers")
		if res.Status != types.FetchBlocked {
			t.Errorf("status = %q, want %q when a later strategy is blocked", res.Status, types.FetchBlocked)
		}
	})
}

func names(strats []strategy) []string {
	out := make([]string, len(strats))
	for i, s := range strats {
		out[i] = s.name()
	}
	return out
}
