package fetcher

import (
	"context"
	"testing"
	"time"

	"github.com/aislescout/aislescout/internal/retailers"
)

func TestRateLimiter(t *testing.T) {
	newLimiter := func() (*RateLimiter, *[]time.Duration) {
		rl := NewRateLimiter(0, testLogger)
		var slept []time.Duration
		rl.sleepFn = func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}
		return rl, &slept
	}

	t.Run("first request does not wait on spacing", func(t *testing.T) {
		rl, slept := newLimiter()
		profile := &retailers.Profile{ID: "shopx", DefaultDelay: time.Second}
		if err := rl.Wait(context.Background(), profile); err != nil {
			t.Fatal(err)
		}
		if len(*slept) != 0 {
			t.Errorf("slept %v on the first request", *slept)
		}
	})

	t.Run("subsequent requests respect jittered spacing", func(t *testing.T) {
		rl, slept := newLimiter()
		profile := &retailers.Profile{ID: "shopx", DefaultDelay: time.Second}
		_ = rl.Wait(context.Background(), profile)
		_ = rl.Wait(context.Background(), profile)
		if len(*slept) != 1 {
			t.Fatalf("slept %d times, want 1", len(*slept))
		}
		got := (*slept)[0]
		min := time.Duration(float64(profile.DefaultDelay) * jitterMin)
		max := time.Duration(float64(profile.DefaultDelay)*jitterMax) + readingPauseMax
		if got < min-100*time.Millisecond || got > max {
			t.Errorf("spacing sleep = %v, want within [%v, %v]", got, min, max)
		}
	})

	t.Run("strict window forces a long pause", func(t *testing.T) {
		rl, slept := newLimiter()
		profile := &retailers.Profile{
			ID:                   "strictshop",
			StrictWindow:         true,
			StrictWindowRequests: 2,
		}
		_ = rl.Wait(context.Background(), profile)
		_ = rl.Wait(context.Background(), profile)
		before := len(*slept)
		_ = rl.Wait(context.Background(), profile)

		var sawStrict bool
		for _, d := range (*slept)[before:] {
			if d >= strictPauseMin && d <= strictPauseMax {
				sawStrict = true
			}
		}
		if !sawStrict {
			t.Errorf("expected a strict-window pause in %v", (*slept)[before:])
		}
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		rl := NewRateLimiter(0, testLogger)
		profile := &retailers.Profile{ID: "shopy", DefaultDelay: time.Hour}
		ctx, cancel := context.WithCancel(context.Background())
		_ = rl.Wait(ctx, profile)
		cancel()
		if err := rl.Wait(ctx, profile); err == nil {
			t.Error("expected a context error on the second wait")
		}
	})
}
