// Package ratelimit schedules calls against the Twitter API's per-endpoint
// quotas and throttles media downloads.
//
// Gate implements the fetch gate of the collection loop: before every page
// fetch it asks the API how many calls remain for the endpoint. When none
// remain it sleeps until the reported reset time (reset minus now, never
// negative) and asks again.
//
//	gate := ratelimit.NewGate(client, nil, log)
//	if _, err := gate.Wait(ctx, "/favorites/list"); err != nil {
//		return err
//	}
//
// Throttle wraps golang.org/x/time/rate for the media CDN, which publishes no
// quota of its own.
package ratelimit
