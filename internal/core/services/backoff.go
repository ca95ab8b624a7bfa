package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-comply/internal/core/domain"
)

// Sleeper waits for a duration or until the context is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// SleeperFunc adapts a function to Sleeper.
type SleeperFunc func(ctx context.Context, d time.Duration) error

// Sleep calls f.
func (f SleeperFunc) Sleep(ctx context.Context, d time.Duration) error {
	return f(ctx, d)
}

// realSleeper sleeps on the wall clock.
type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// BackoffPolicy retries rate-limited calls with exponential delays.
type BackoffPolicy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int

	// BaseDelay is the wait after the first failed attempt.
	BaseDelay time.Duration

	// Multiplier scales the wait after each further failure.
	Multiplier float64
}

// NewBackoffPolicy builds a policy from retry settings.
func NewBackoffPolicy(s domain.RetrySettings) BackoffPolicy {
	p := BackoffPolicy{MaxAttempts: s.MaxAttempts, BaseDelay: s.BaseDelay, Multiplier: s.Multiplier}
	if p.MaxAttempts < 1 {
		p.MaxAttempts = 1
	}
	if p.Multiplier < 1 {
		p.Multiplier = 1
	}
	return p
}

// Delay returns the wait after the given failed attempt (1-based).
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(float64(p.BaseDelay) * math.Pow(p.Multiplier, float64(attempt-1)))
}

// Do calls fn until it succeeds, returns an error retry rejects, or the
// attempts run out. onRetry is called before each wait and may be nil.
// The last error is returned.
func (p BackoffPolicy) Do(
	ctx context.Context,
	sleeper Sleeper,
	retry func(error) bool,
	onRetry func(attempt int, err error),
	fn func(ctx context.Context) error,
) error {
	attempts := max(p.MaxAttempts, 1)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !retry(err) || attempt == attempts {
			return err
		}
		if onRetry != nil {
			onRetry(attempt, err)
		}
		if serr := sleeper.Sleep(ctx, p.Delay(attempt)); serr != nil {
			return err
		}
	}
	return err
}

// isRateLimit reports whether err signals provider throttling.
func isRateLimit(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, domain.ErrRateLimited) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "rate_limit") ||
		strings.Contains(msg, "rate limit") ||
		strings.Contains(msg, "429")
}
