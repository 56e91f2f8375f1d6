package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrBlocked        = errors.New("host blocked by bot mitigation")
	ErrEmptyBody      = errors.New("response body below minimum size")
	ErrNoStrategies   = errors.New("all fetch strategies exhausted")
	ErrQuotaExhausted = errors.New("render API daily quota exhausted")
	ErrProxyCooling   = errors.New("all proxies cooling")
	ErrInvalidURL     = errors.New("invalid store link URL")
	ErrRunStopped     = errors.New("run has been stopped")
)

// FetchStrategyError wraps a failure of one fetch strategy for one URL.
type FetchStrategyError struct {
	URL        string
	Strategy   string
	StatusCode int
	Err        error
}

func (e *FetchStrategyError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s fetch of %s failed (status %d): %v", e.Strategy, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s fetch of %s failed: %v", e.Strategy, e.URL, e.Err)
}

func (e *FetchStrategyError) Unwrap() error { return e.Err }

// ExtractError wraps a parse failure inside an extractor strategy. Extractor
// cascades recover from these locally; they never cross the row boundary.
type ExtractError struct {
	URL      string
	Strategy string
	Err      error
}

func (e *ExtractError) Error() string {
	return fmt.Sprintf("extract %s on %s: %v", e.Strategy, e.URL, e.Err)
}

func (e *ExtractError) Unwrap() error { return e.Err }

// SinkError wraps a failure writing records to an output backend.
type SinkError struct {
	Backend string
	Err     error
}

func (e *SinkError) Error() string {
	return fmt.Sprintf("sink error (%s): %v", e.Backend, e.Err)
}

func (e *SinkError) Unwrap() error { return e.Err }
