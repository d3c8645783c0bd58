package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tweetsweep/pkg/config"
	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
)

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.0,
	}

	tests := []struct {
		attempt     int
		expected    time.Duration
		description string
	}{
		{0, 0, "No attempt yet"},
		{1, 100 * time.Millisecond, "First attempt"},
		{2, 200 * time.Millisecond, "Second attempt"},
		{4, 800 * time.Millisecond, "Fourth attempt"},
		{5, 1 * time.Second, "Fifth attempt (capped at max)"},
		{9, 1 * time.Second, "Ninth attempt (still capped)"},
	}

	for _, test := range tests {
		t.Run(test.description, func(t *testing.T) {
			assert.Equal(t, test.expected, backoff.NextDelay(test.attempt))
		})
	}
}

func TestExponentialBackoffWithJitterStaysInRange(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     1 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.3,
	}

	for i := 0; i < 50; i++ {
		delay := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, delay, 140*time.Millisecond)
		assert.LessOrEqual(t, delay, 260*time.Millisecond)
	}
}

func TestRetryWithSuccess(t *testing.T) {
	attempts := 0
	op := func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary error")
		}
		return nil
	}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	require.NoError(t, Do(op, cfg))
	assert.Equal(t, 3, attempts)
}

func TestRetryWithMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	retries := 0
	cause := errors.New("persistent error")

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		OnRetry:     func(int, error, time.Duration) { retries++ },
		Context:     context.Background(),
		Logger:      logger.NewNopLogger(),
	}

	err := Do(func() error {
		attempts++
		return cause
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 3, attempts)
	// no sleep after the final attempt
	assert.Equal(t, 2, retries)
}

func TestRetryWithNonRetryableError(t *testing.T) {
	attempts := 0
	authError := &errs.Error{Type: errs.ErrorTypeAuth, Message: "bad token", Code: 401}

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     DefaultRetryIf,
		Context:     context.Background(),
	}

	err := Do(func() error {
		attempts++
		return authError
	}, cfg)

	assert.Same(t, authError, err)
	assert.Equal(t, 1, attempts)
}

func TestDefaultRetryIf(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		retry bool
	}{
		{"nil", nil, false},
		{"network", &errs.Error{Type: errs.ErrorTypeNetwork}, true},
		{"server", &errs.Error{Type: errs.ErrorTypeServerError, Code: 503}, true},
		{"rate limit is left to the gate", &errs.Error{Type: errs.ErrorTypeRateLimit, Code: 429}, false},
		{"not found", &errs.Error{Type: errs.ErrorTypeNotFound, Code: 404}, false},
		{"cancelled", context.Canceled, false},
		{"plain", errors.New("eof"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.retry, DefaultRetryIf(tt.err))
		})
	}
}

func TestRetryWithContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	attempts := 0

	cfg := &Config{
		MaxAttempts: 5,
		Backoff:     &ConstantBackoff{Delay: time.Second},
		RetryIf:     func(err error) bool { return true },
		Context:     ctx,
	}

	err := Do(func() error {
		attempts++
		cancel()
		return errors.New("error")
	}, cfg)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, attempts)
}

func TestFromSettings(t *testing.T) {
	cfg := FromSettings(config.RetryConfig{
		Enabled:     true,
		MaxAttempts: 4,
		BaseDelay:   time.Second,
		MaxDelay:    10 * time.Second,
	}, logger.NewNopLogger())
	assert.Equal(t, 4, cfg.MaxAttempts)

	disabled := FromSettings(config.RetryConfig{Enabled: false, MaxAttempts: 4}, logger.NewNopLogger())
	assert.Equal(t, 1, disabled.MaxAttempts)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bound := cfg.WithContext(ctx)
	assert.Equal(t, ctx, bound.Context)
	assert.Equal(t, context.Background(), cfg.Context)
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	op := func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("temporary error")
		}
		return "success", nil
	}

	cfg := &Config{
		MaxAttempts: 3,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     func(err error) bool { return true },
		Context:     context.Background(),
	}

	result, err := DoWithResult(op, cfg)
	require.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 2, attempts)
}
