package fetcher

import (
	"bytes"
	"strings"
	"sync"

	"golang.org/x/net/html"

	"github.com/aislescout/aislescout/internal/types"
)

// blockIndicators are substrings that mark a bot-mitigation interstitial.
// Only the first ~2 KiB of a body is scanned; real challenge pages carry
// these markers near the top.
var blockIndicators = []string{
	"access denied",
	"cloudflare challenge",
	"checking your browser",
	"captcha",
	"pardon the interruption",
	"pardon our interruption",
	"request unsuccessful",
	"are you a robot",
	"verify you are human",
	"incapsula incident",
	"bot detection",
	"blocked by security policy",
}

const blockScanWindow = 2048

// IsBlockedBody reports whether the body looks like a block interstitial.
func IsBlockedBody(body []byte) bool {
	window := body
	if len(window) > blockScanWindow {
		window = window[:blockScanWindow]
	}
	lower := strings.ToLower(string(window))
	for _, indicator := range blockIndicators {
		if strings.Contains(lower, indicator) {
			return true
		}
	}
	return false
}

// IsBlockedStatus reports whether an HTTP status alone marks the host blocked.
func IsBlockedStatus(code int) bool {
	return code == 403 || code == 429 || code == 503
}

// visibleTextLen measures text inside <body>, ignoring script/style/noscript.
// Large bodies whose visible text is tiny are interstitial shells; the browser
// strategy uses this to reject challenge pages that pass the size check.
func visibleTextLen(body []byte) int {
	tokenizer := html.NewTokenizer(bytes.NewReader(body))
	inBody := false
	skipDepth := 0
	total := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return total
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "body":
				inBody = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			switch string(tn) {
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if inBody && skipDepth == 0 {
				total += len(strings.TrimSpace(string(tokenizer.Text())))
			}
		}
	}
}

// blockedHosts tracks retailers observed blocked during the run. The
// dispatcher snapshots per-row deltas; this set informs strategy ordering
// across rows.
type blockedHosts struct {
	mu    sync.Mutex
	hosts map[types.RetailerID]struct{}
}

func newBlockedHosts() *blockedHosts {
	return &blockedHosts{hosts: make(map[types.RetailerID]struct{})}
}

func (b *blockedHosts) mark(id types.RetailerID) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.hosts[id] = struct{}{}
}

func (b *blockedHosts) contains(id types.RetailerID) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.hosts[id]
	return ok
}

func (b *blockedHosts) snapshot() []types.RetailerID {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]types.RetailerID, 0, len(b.hosts))
	for id := range b.hosts {
		out = append(out, id)
	}
	return out
}
