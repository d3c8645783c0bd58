// Package twitter is a small client for the Twitter REST v1.1 endpoints
// tweetsweep needs: rate limit status, the user timeline, the favorites
// list, and the two destroy calls.
//
// Requests are signed with OAuth 1.0a. Non-2xx responses become
// *errors.Error values typed by status code. GET requests retry network and
// server failures through package retry; POST requests are sent once.
//
//	client := twitter.NewClient(twitter.Config{
//		BaseURL:     cfg.Twitter.APIBaseURL,
//		Timeout:     cfg.Download.Timeout,
//		Credentials: creds,
//		Retry:       retry.FromSettings(cfg.Retry, log),
//	}, log)
//
//	page, err := client.Favorites(ctx, twitter.MaxPageSize, "")
package twitter
