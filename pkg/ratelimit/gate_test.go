package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tweetsweep/pkg/logger"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

type scriptedChecker struct {
	statuses []Status
	err      error
	calls    int
}

func (s *scriptedChecker) RateLimitStatus(ctx context.Context, endpoint string) (Status, error) {
	s.calls++
	if s.err != nil {
		return Status{}, s.err
	}
	status := s.statuses[0]
	if len(s.statuses) > 1 {
		s.statuses = s.statuses[1:]
	}
	return status, nil
}

func TestSleepDuration(t *testing.T) {
	now := time.Unix(1_600_000_000, 0)

	tests := []struct {
		name     string
		reset    time.Time
		expected time.Duration
	}{
		{"reset in the future", now.Add(90 * time.Second), 90 * time.Second},
		{"reset now", now, 0},
		{"fractional seconds round up", now.Add(1500 * time.Millisecond), 2 * time.Second},
		{"reset in the past clamps to zero", now.Add(-5 * time.Minute), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SleepDuration(Status{Reset: tt.reset}, now))
		})
	}
}

func TestSleepDurationIsResetMinusNow(t *testing.T) {
	// The reversed subtraction (now - reset) would give a negative, zero
	// clamped sleep here and hammer the API.
	now := time.Unix(1_600_000_000, 0)
	reset := now.Add(15 * time.Minute)

	d := SleepDuration(Status{Reset: reset}, now)
	assert.Equal(t, 15*time.Minute, d)
	assert.NotEqual(t, SleepDuration(Status{Reset: now}, reset), d)
}

func TestGateRemainingPositiveDoesNotSleep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_600_000_000, 0)}
	checker := &scriptedChecker{statuses: []Status{{Remaining: 14, Reset: clock.now.Add(time.Minute)}}}
	gate := NewGate(checker, clock, logger.NewNopLogger())

	result, err := gate.Wait(context.Background(), "/favorites/list")
	require.NoError(t, err)

	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 0, result.Backoffs)
	assert.Equal(t, 1, checker.calls)
	assert.Equal(t, 14, result.Status.Remaining)
}

func TestGateExhaustedSleepsUntilReset(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_600_000_000, 0)}
	reset := clock.now.Add(120 * time.Second)
	checker := &scriptedChecker{statuses: []Status{
		{Remaining: 0, Reset: reset},
		{Remaining: 75, Reset: reset.Add(15 * time.Minute)},
	}}
	tl := logger.NewTestLogger()
	gate := NewGate(checker, clock, tl)

	result, err := gate.Wait(context.Background(), "/statuses/user_timeline")
	require.NoError(t, err)

	require.Len(t, clock.sleeps, 1)
	assert.Equal(t, 120*time.Second, clock.sleeps[0])
	assert.Equal(t, 1, result.Backoffs)
	assert.Equal(t, 120*time.Second, result.Slept)
	assert.Equal(t, 2, checker.calls)
	assert.True(t, tl.HasMessage("Rate limit exhausted, sleeping until reset"))
}

func TestGateStaleResetSleepsAtLeastMinBackoff(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_600_000_000, 0)}
	checker := &scriptedChecker{statuses: []Status{
		{Remaining: 0, Reset: clock.now.Add(-time.Minute)},
		{Remaining: 1, Reset: clock.now.Add(time.Minute)},
	}}
	gate := NewGate(checker, clock, logger.NewNopLogger())

	result, err := gate.Wait(context.Background(), "/favorites/list")
	require.NoError(t, err)

	// a reset already in the past must not turn into a busy loop of status queries
	assert.Equal(t, []time.Duration{MinBackoff}, clock.sleeps)
	assert.Equal(t, 1, result.Backoffs)
	assert.Equal(t, MinBackoff, result.Slept)
	assert.Equal(t, 2, checker.calls)
}

func TestGateStatusError(t *testing.T) {
	cause := errors.New("connection refused")
	gate := NewGate(&scriptedChecker{err: cause}, &fakeClock{}, logger.NewNopLogger())

	_, err := gate.Wait(context.Background(), "/favorites/list")
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}

func TestGateHonoursCancellation(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_600_000_000, 0)}
	checker := &scriptedChecker{statuses: []Status{{Remaining: 0, Reset: clock.now.Add(time.Hour)}}}
	gate := NewGate(checker, clock, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := gate.Wait(ctx, "/favorites/list")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSystemClockSleep(t *testing.T) {
	clock := SystemClock{}

	start := time.Now()
	require.NoError(t, clock.Sleep(context.Background(), 10*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, clock.Sleep(ctx, time.Hour), context.Canceled)
}
