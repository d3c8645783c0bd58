package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Limiter defines the interface for client side throttling
type Limiter interface {
	// Wait blocks until another request is allowed or ctx is done
	Wait(ctx context.Context) error
}

// Throttle spaces out media downloads with a token bucket
type Throttle struct {
	limiter *rate.Limiter
}

// NewThrottle allows perSecond requests with the given burst. A non-positive
// rate disables throttling.
func NewThrottle(perSecond float64, burst int) *Throttle {
	if perSecond <= 0 {
		return &Throttle{limiter: rate.NewLimiter(rate.Inf, 0)}
	}
	if burst < 1 {
		burst = 1
	}
	return &Throttle{limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until a token is available
func (t *Throttle) Wait(ctx context.Context) error {
	return t.limiter.Wait(ctx)
}

// Allow reports whether a request may proceed now, consuming a token if so
func (t *Throttle) Allow() bool {
	return t.limiter.Allow()
}
