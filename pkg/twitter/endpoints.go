package twitter

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

const (
	// DefaultBaseURL is the REST v1.1 root
	DefaultBaseURL = "https://api.twitter.com/1.1"

	// UserTimelineEndpoint is the rate limit key for the posted timeline
	UserTimelineEndpoint = "/statuses/user_timeline"

	// FavoritesEndpoint is the rate limit key for liked tweets
	FavoritesEndpoint = "/favorites/list"

	// MaxPageSize is the largest count both list endpoints accept
	MaxPageSize = 200
)

// endpointFamily returns the rate_limit_status resource family of an
// endpoint key, e.g. "favorites" for "/favorites/list".
func endpointFamily(endpoint string) string {
	trimmed := strings.TrimPrefix(endpoint, "/")
	if i := strings.Index(trimmed, "/"); i >= 0 {
		return trimmed[:i]
	}
	return trimmed
}

func clampCount(count int) int {
	if count <= 0 || count > MaxPageSize {
		return MaxPageSize
	}
	return count
}

// RateLimitStatusURL builds the rate_limit_status query for one endpoint
func RateLimitStatusURL(baseURL, endpoint string) string {
	params := url.Values{}
	params.Set("resources", endpointFamily(endpoint))
	return fmt.Sprintf("%s/application/rate_limit_status.json?%s", baseURL, params.Encode())
}

// UserTimelineURL lists the authenticated user's tweets, retweets included
func UserTimelineURL(baseURL string, count int, maxID string) string {
	params := url.Values{}
	params.Set("count", strconv.Itoa(clampCount(count)))
	params.Set("include_rts", "true")
	if maxID != "" {
		params.Set("max_id", maxID)
	}
	return fmt.Sprintf("%s%s.json?%s", baseURL, UserTimelineEndpoint, params.Encode())
}

// FavoritesURL lists the authenticated user's likes
func FavoritesURL(baseURL string, count int, maxID string) string {
	params := url.Values{}
	params.Set("count", strconv.Itoa(clampCount(count)))
	if maxID != "" {
		params.Set("max_id", maxID)
	}
	return fmt.Sprintf("%s%s.json?%s", baseURL, FavoritesEndpoint, params.Encode())
}

// DestroyStatusURL deletes one of the user's tweets
func DestroyStatusURL(baseURL, id string) string {
	return fmt.Sprintf("%s/statuses/destroy/%s.json", baseURL, url.PathEscape(id))
}

// DestroyFavoriteURL removes a like
func DestroyFavoriteURL(baseURL, id string) string {
	params := url.Values{}
	params.Set("id", id)
	return fmt.Sprintf("%s/favorites/destroy.json?%s", baseURL, params.Encode())
}
