// Package retry provides bounded retries with exponential backoff for
// idempotent Twitter API reads (rate limit status and page fetches).
//
// Destroy requests never go through this package: a failed delete or
// un-like is attempted exactly once.
//
// Basic usage:
//
//	cfg := retry.FromSettings(appConfig.Retry, log).WithContext(ctx)
//	page, err := retry.DoWithResult(func() (*Page, error) {
//		return c.fetchPage(ctx, kind, cursor)
//	}, cfg)
//
// Errors are retried when DefaultRetryIf reports them retryable: network and
// 5xx failures are, authentication, not-found and 429 responses are not.
package retry
