package ratelimit

import (
	"context"
	"fmt"
	"time"

	"tweetsweep/pkg/logger"
)

// Status is the remote API's view of one endpoint's quota
type Status struct {
	Limit     int
	Remaining int
	Reset     time.Time
}

// Exhausted reports whether no calls remain in the current window
func (s Status) Exhausted() bool {
	return s.Remaining <= 0
}

// StatusChecker queries the remaining quota of an endpoint
type StatusChecker interface {
	RateLimitStatus(ctx context.Context, endpoint string) (Status, error)
}

// Clock abstracts time so backoff can be tested without sleeping
type Clock interface {
	Now() time.Time
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock is the wall clock
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// Sleep blocks for d or until ctx is done
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// MinBackoff is the shortest sleep after an exhausted status, including one
// whose reset has already passed
const MinBackoff = time.Second

// SleepDuration is how long to wait until the window resets, rounded up to
// whole seconds and never negative
func SleepDuration(status Status, now time.Time) time.Duration {
	d := status.Reset.Sub(now)
	if d <= 0 {
		return 0
	}
	if rem := d % time.Second; rem != 0 {
		d += time.Second - rem
	}
	return d
}

// WaitResult describes what a Gate did before letting a fetch through
type WaitResult struct {
	Backoffs int
	Slept    time.Duration
	Status   Status
}

// Gate blocks page fetches until the endpoint has quota left
type Gate struct {
	checker StatusChecker
	clock   Clock
	logger  logger.Logger
}

// NewGate creates a Gate. A nil clock means the system clock.
func NewGate(checker StatusChecker, clock Clock, log logger.Logger) *Gate {
	if clock == nil {
		clock = SystemClock{}
	}
	if log == nil {
		log = logger.GetLogger()
	}
	return &Gate{checker: checker, clock: clock, logger: log}
}

// Check queries the current status of endpoint
func (g *Gate) Check(ctx context.Context, endpoint string) (Status, error) {
	status, err := g.checker.RateLimitStatus(ctx, endpoint)
	if err != nil {
		return Status{}, fmt.Errorf("rate limit status for %s: %w", endpoint, err)
	}
	if !status.Exhausted() {
		g.logger.DebugWithFields("Rate limit OK", map[string]interface{}{
			"endpoint":  endpoint,
			"remaining": status.Remaining,
		})
	}
	return status, nil
}

// Backoff sleeps until status resets and returns how long it slept
func (g *Gate) Backoff(ctx context.Context, endpoint string, status Status) (time.Duration, error) {
	sleep := SleepDuration(status, g.clock.Now())
	if sleep < MinBackoff {
		sleep = MinBackoff
	}
	logger.LogBackoff(g.logger, endpoint, sleep, status.Reset)

	if err := g.clock.Sleep(ctx, sleep); err != nil {
		return 0, err
	}
	return sleep, nil
}

// Wait alternates Check and Backoff until the endpoint has quota left
func (g *Gate) Wait(ctx context.Context, endpoint string) (WaitResult, error) {
	var result WaitResult
	for {
		status, err := g.Check(ctx, endpoint)
		if err != nil {
			return result, err
		}
		result.Status = status
		if !status.Exhausted() {
			return result, nil
		}

		slept, err := g.Backoff(ctx, endpoint, status)
		if err != nil {
			return result, err
		}
		result.Backoffs++
		result.Slept += slept
	}
}
