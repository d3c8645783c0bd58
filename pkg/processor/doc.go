// Package processor drives one run over a user's posted or liked tweets.
//
// A run is a loop over four states:
//
//	fetch_gate  query the endpoint's rate limit; exhausted -> backoff
//	backoff     sleep until the window resets, then fetch_gate
//	fetch_page  fetch up to 200 items older than the cursor and handle each
//	            one; an empty page -> done, otherwise fetch_gate
//	done        return the Summary
//
// Each item is archived, destroyed, or both. An item whose archival failed
// is never destroyed. Per-item failures are counted and logged; rate limit
// or page fetch failures end the run.
package processor
