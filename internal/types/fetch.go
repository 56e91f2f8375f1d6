package types

import "time"

// StatusHint classifies a fetch attempt without reference to a particular
// transport strategy.
type StatusHint string

const (
	FetchOK      StatusHint = "ok"
	FetchBlocked StatusHint = "blocked"
	FetchEmpty   StatusHint = "empty"
	FetchError   StatusHint = "error"
)

// FetchResult is the outcome of acquiring one URL.
type FetchResult struct {
	// Body is the page HTML, nil when no strategy produced a usable body.
	Body []byte

	// Status summarises how the acquisition ended.
	Status StatusHint

	// Method identifies the strategy that produced the body
	// ("http", "tls_client", "browser", "render_api") or "" on failure.
	Method string

	BytesReceived int
	Elapsed       time.Duration
}

// OK reports whether a usable body was acquired.
func (r *FetchResult) OK() bool {
	return r != nil && r.Status == FetchOK && len(r.Body) > 0
}
