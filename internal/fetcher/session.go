package fetcher

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/aislescout/aislescout/internal/types"
)

// Session is the per-retailer HTTP state: a cookie jar, a request counter,
// and the header set a real browser would carry for that retailer. Rows run
// in parallel, so concurrent fetches can share one session; the jar is safe
// and seeding is once-guarded. The counter is owned by the pool mutex.
type Session struct {
	Jar      *cookiejar.Jar
	UA       string
	count    int
	seedOnce sync.Once
	created  time.Time
}

// SessionPool keeps one session per retailer and rotates a session after
// refreshInterval requests on it.
type SessionPool struct {
	mu              sync.Mutex
	sessions        map[types.RetailerID]*Session
	refreshInterval int
	uaPool          *UserAgentPool
	logger          *slog.Logger
}

func NewSessionPool(refreshInterval int, uaPool *UserAgentPool, logger *slog.Logger) *SessionPool {
	if refreshInterval <= 0 {
		refreshInterval = 10
	}
	return &SessionPool{
		sessions:        make(map[types.RetailerID]*Session),
		refreshInterval: refreshInterval,
		uaPool:          uaPool,
		logger:          logger.With("component", "session_pool"),
	}
}

// Get returns the retailer's session, rotating it once the counter passes
// the refresh threshold. The counter counts the returned use.
func (sp *SessionPool) Get(id types.RetailerID) *Session {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	s, ok := sp.sessions[id]
	if ok && s.count >= sp.refreshInterval {
		sp.logger.Debug("rotating session", "retailer", id, "requests", s.count)
		ok = false
	}
	if !ok {
		s = sp.newSession()
		sp.sessions[id] = s
	}
	s.count++
	return s
}

// Rotate discards the retailer's session so the next Get builds a fresh one.
func (sp *SessionPool) Rotate(id types.RetailerID) {
	sp.mu.Lock()
	defer sp.mu.Unlock()
	delete(sp.sessions, id)
}

func (sp *SessionPool) newSession() *Session {
	jar, _ := cookiejar.New(nil)
	return &Session{
		Jar:     jar,
		UA:      sp.uaPool.PickChromeLike(),
		created: time.Now(),
	}
}

// SeedCookies plants innocuous first-party cookies so the first product-page
// request does not look like a cold client. Seeds at most once per session,
// also under concurrent callers.
func (s *Session) SeedCookies(target *url.URL) {
	if target == nil {
		return
	}
	s.seedOnce.Do(func() {
		base := &url.URL{Scheme: target.Scheme, Host: target.Host, Path: "/"}
		s.Jar.SetCookies(base, []*http.Cookie{
			{Name: "visitor_id", Value: randomHex(16), Path: "/"},
			{Name: "session_depth", Value: "2", Path: "/"},
			{Name: "cookie_consent", Value: "accepted", Path: "/"},
		})
	})
}

// ApplyHeaders sets the browser-shaped header block for a request to target,
// synthesizing client hints from the session's UA.
func (s *Session) ApplyHeaders(req *http.Request, target *url.URL) {
	origin := fmt.Sprintf("%s://%s", target.Scheme, target.Host)

	req.Header.Set("User-Agent", s.UA)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	req.Header.Set("Referer", origin+"/")
	req.Header.Set("Origin", origin)
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	req.Header.Set("Sec-Fetch-Site", "same-origin")
	req.Header.Set("Sec-Fetch-User", "?1")
	req.Header.Set("Upgrade-Insecure-Requests", "1")

	if major := chromeMajor(s.UA); major != "" {
		req.Header.Set("Sec-Ch-Ua", fmt.Sprintf(`"Chromium";v="%s", "Not?A_Brand";v="8", "Google Chrome";v="%s"`, major, major))
		req.Header.Set("Sec-Ch-Ua-Mobile", "?0")
		req.Header.Set("Sec-Ch-Ua-Platform", platformHint(s.UA))
	}
}

// chromeMajor extracts the major version from a Chrome-family UA, or "".
func chromeMajor(ua string) string {
	idx := strings.Index(ua, "Chrome/")
	if idx < 0 {
		return ""
	}
	rest := ua[idx+len("Chrome/"):]
	if dot := strings.IndexByte(rest, '.'); dot > 0 {
		return rest[:dot]
	}
	return ""
}

func platformHint(ua string) string {
	switch {
	case strings.Contains(ua, "Windows"):
		return `"Windows"`
	case strings.Contains(ua, "Macintosh"):
		return `"macOS"`
	default:
		return `"Linux"`
	}
}

func randomHex(n int) string {
	buf := make([]byte, n)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}
