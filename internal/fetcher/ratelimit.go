package fetcher

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/aislescout/aislescout/internal/retailers"
	"github.com/aislescout/aislescout/internal/types"
)

const (
	jitterMin = 0.5
	jitterMax = 2.5

	// readingPauseChance simulates a human pausing to read a page.
	readingPauseChance = 0.08
	readingPauseMin    = 2 * time.Second
	readingPauseMax    = 5 * time.Second

	// strictWindow is the sliding window for heavily monitored hosts.
	strictWindow   = 10 * time.Minute
	strictPauseMin = 10 * time.Second
	strictPauseMax = 20 * time.Second
)

// RateLimiter enforces per-retailer minimum spacing with jitter, an
// occasional reading pause, a sliding-window cool-off for strict hosts, and
// an optional run-wide request ceiling.
type RateLimiter struct {
	mu      sync.Mutex
	last    map[types.RetailerID]time.Time
	recent  map[types.RetailerID][]time.Time
	global  *rate.Limiter
	logger  *slog.Logger
	sleepFn func(context.Context, time.Duration) error
	now     func() time.Time
}

// NewRateLimiter creates a limiter. globalRPS <= 0 disables the global cap.
func NewRateLimiter(globalRPS float64, logger *slog.Logger) *RateLimiter {
	var global *rate.Limiter
	if globalRPS > 0 {
		global = rate.NewLimiter(rate.Limit(globalRPS), 1)
	}
	return &RateLimiter{
		last:    make(map[types.RetailerID]time.Time),
		recent:  make(map[types.RetailerID][]time.Time),
		global:  global,
		logger:  logger.With("component", "rate_limiter"),
		sleepFn: sleepCtx,
		now:     time.Now,
	}
}

// Wait blocks until a request to the retailer is allowed, then records the
// request timestamp.
func (rl *RateLimiter) Wait(ctx context.Context, profile *retailers.Profile) error {
	delay := rl.spacing(profile)

	rl.mu.Lock()
	prev, seen := rl.last[profile.ID]
	now := rl.now()

	var strictPause time.Duration
	if profile.StrictWindow && profile.StrictWindowRequests > 0 {
		window := pruneBefore(rl.recent[profile.ID], now.Add(-strictWindow))
		if len(window) >= profile.StrictWindowRequests {
			strictPause = strictPauseMin + time.Duration(rand.Float64()*float64(strictPauseMax-strictPauseMin))
			window = window[:0]
		}
		rl.recent[profile.ID] = window
	}
	rl.mu.Unlock()

	if strictPause > 0 {
		rl.logger.Debug("strict host cool-off", "retailer", profile.ID, "pause", strictPause)
		if err := rl.sleepFn(ctx, strictPause); err != nil {
			return err
		}
	}

	if seen {
		if wait := delay - rl.now().Sub(prev); wait > 0 {
			if err := rl.sleepFn(ctx, wait); err != nil {
				return err
			}
		}
	}

	if rl.global != nil {
		if err := rl.global.Wait(ctx); err != nil {
			return err
		}
	}

	rl.mu.Lock()
	stamp := rl.now()
	rl.last[profile.ID] = stamp
	if profile.StrictWindow {
		rl.recent[profile.ID] = append(rl.recent[profile.ID], stamp)
	}
	rl.mu.Unlock()
	return nil
}

// spacing applies jitter and the occasional reading pause to the retailer's
// base delay.
func (rl *RateLimiter) spacing(profile *retailers.Profile) time.Duration {
	jitter := jitterMin + rand.Float64()*(jitterMax-jitterMin)
	delay := time.Duration(float64(profile.DefaultDelay) * jitter)
	if rand.Float64() < readingPauseChance {
		delay += readingPauseMin + time.Duration(rand.Float64()*float64(readingPauseMax-readingPauseMin))
	}
	return delay
}

func pruneBefore(stamps []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(stamps) && stamps[i].Before(cutoff) {
		i++
	}
	return stamps[i:]
}

// sleepCtx sleeps for d or until the context is cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
