package fetcher

import (
	"math/rand"
	"strings"
)

// UserAgentPool hands out realistic desktop/mobile User-Agent strings.
// Selection is uniform random; the pool keeps no state.
type UserAgentPool struct {
	agents []string
}

// NewUserAgentPool returns the curated default pool.
func NewUserAgentPool() *UserAgentPool {
	return &UserAgentPool{agents: defaultUserAgents}
}

// Pick returns one UA string uniformly at random.
func (p *UserAgentPool) Pick() string {
	return p.agents[rand.Intn(len(p.agents))]
}

// PickChromeLike returns a Chrome-family UA, for flows that advertise
// Chromium client hints alongside the UA string.
func (p *UserAgentPool) PickChromeLike() string {
	for {
		ua := p.Pick()
		if strings.Contains(ua, "Chrome/") && !strings.Contains(ua, "Edg/") {
			return ua
		}
	}
}

var defaultUserAgents = []string{
	// Chrome desktop
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/130.0.0.0 Safari/537.36",
	// Firefox desktop
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:133.0) Gecko/20100101 Firefox/133.0",
	"Mozilla/5.0 (X11; Linux x86_64; rv:132.0) Gecko/20100101 Firefox/132.0",
	// Safari desktop
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Safari/605.1.15",
	// Edge desktop
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36 Edg/131.0.0.0",
	// Chrome mobile
	"Mozilla/5.0 (Linux; Android 14; Pixel 8) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Mobile Safari/537.36",
	// Safari mobile
	"Mozilla/5.0 (iPhone; CPU iPhone OS 17_6 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.6 Mobile/15E148 Safari/604.1",
}
