package twitter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/retry"
)

func newTestClient(t *testing.T, handler http.Handler, retryCfg *retry.Config) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClientWithHTTPClient(server.Client(), Config{
		BaseURL:   server.URL + "/1.1",
		UserAgent: "tweetsweep-test",
		Retry:     retryCfg,
	}, logger.NewNopLogger())
}

const sampleTweet = `{
	"id": 1212121212121212121,
	"id_str": "1212121212121212121",
	"created_at": "Wed Jan 01 00:00:00 +0000 2020",
	"text": "hello",
	"entities": {"media": [{"media_url": "http://pbs.twimg.com/media/abc.jpg", "media_url_https": "https://pbs.twimg.com/media/abc.jpg"}]},
	"extended_entities": {"media": [
		{"media_url": "http://pbs.twimg.com/media/abc.jpg"},
		{"media_url_https": "https://video.twimg.com/ext_tw_video/1/pu/vid/v.mp4"}
	]}
}`

func TestParseItem(t *testing.T) {
	item, err := ParseItem(json.RawMessage(sampleTweet))
	require.NoError(t, err)

	assert.Equal(t, "1212121212121212121", item.ID)
	assert.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), item.CreatedAt.UTC())
	require.Len(t, item.Media, 1)
	assert.Equal(t, "http://pbs.twimg.com/media/abc.jpg", item.Media[0].URL)
	assert.False(t, item.Media[0].Extended)

	assert.True(t, item.HasExtended)
	require.Len(t, item.ExtendedMedia, 2)
	assert.Equal(t, 1, item.ExtendedMedia[1].Index)
	assert.True(t, item.ExtendedMedia[1].Extended)
	assert.Equal(t, "https://video.twimg.com/ext_tw_video/1/pu/vid/v.mp4", item.ExtendedMedia[1].URL)
	assert.JSONEq(t, sampleTweet, string(item.Raw))
}

func TestParseItemVariants(t *testing.T) {
	t.Run("rfc3339 timestamp and numeric id only", func(t *testing.T) {
		item, err := ParseItem(json.RawMessage(`{"id": 42, "created_at": "2020-01-01T00:00:00Z"}`))
		require.NoError(t, err)
		assert.Equal(t, "42", item.ID)
		assert.Empty(t, item.Media)
		assert.False(t, item.HasExtended)
	})

	t.Run("extended entities without media list", func(t *testing.T) {
		item, err := ParseItem(json.RawMessage(`{"id_str": "7", "created_at": "2020-01-01T00:00:00Z", "extended_entities": {}}`))
		require.NoError(t, err)
		assert.False(t, item.HasExtended)
	})

	t.Run("missing id", func(t *testing.T) {
		_, err := ParseItem(json.RawMessage(`{"created_at": "2020-01-01T00:00:00Z"}`))
		assert.Error(t, err)
	})

	t.Run("bad timestamp", func(t *testing.T) {
		_, err := ParseItem(json.RawMessage(`{"id_str": "7", "created_at": "yesterday"}`))
		assert.Error(t, err)
	})
}

func TestNextCursor(t *testing.T) {
	assert.Equal(t, "", nextCursor(nil))
	assert.Equal(t, "99", nextCursor([]string{"300", "100", "200"}))
	assert.Equal(t, "", nextCursor([]string{"abc"}))
	assert.Equal(t, "", nextCursor([]string{"0"}))
	assert.Equal(t, "4", nextCursor([]string{"", "5", "abc"}))
}

func TestRateLimitStatus(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/application/rate_limit_status.json", r.URL.Path)
		assert.Equal(t, "favorites", r.URL.Query().Get("resources"))
		fmt.Fprint(w, `{"resources": {"favorites": {"/favorites/list": {"limit": 75, "remaining": 0, "reset": 1700000000}}}}`)
	}), nil)

	status, err := client.RateLimitStatus(context.Background(), FavoritesEndpoint)
	require.NoError(t, err)

	assert.Equal(t, 75, status.Limit)
	assert.Equal(t, 0, status.Remaining)
	assert.True(t, status.Exhausted())
	assert.Equal(t, time.Unix(1700000000, 0), status.Reset)
}

func TestRateLimitStatusMissingEndpoint(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"resources": {"statuses": {}}}`)
	}), nil)

	_, err := client.RateLimitStatus(context.Background(), UserTimelineEndpoint)
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestUserTimelinePage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/statuses/user_timeline.json", r.URL.Path)
		assert.Equal(t, "200", r.URL.Query().Get("count"))
		assert.Equal(t, "true", r.URL.Query().Get("include_rts"))
		assert.Equal(t, "500", r.URL.Query().Get("max_id"))
		assert.Equal(t, "tweetsweep-test", r.Header.Get("User-Agent"))
		fmt.Fprint(w, `[
			{"id_str": "450", "created_at": "Wed Jan 01 00:00:00 +0000 2020"},
			{"id_str": "420", "created_at": "Wed Jan 01 00:00:00 +0000 2020"}
		]`)
	}), nil)

	page, err := client.UserTimeline(context.Background(), 500, "500")
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "450", page.Items[0].ID)
	assert.Equal(t, "419", page.NextCursor)
}

func TestPageKeepsItemsAroundMalformedOnes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"id_str": "2", "created_at": "Wed Jan 01 00:00:00 +0000 2020"},
			{"id_str": "1", "created_at": "garbage"},
			{"id": 7}
		]`)
	}), nil)

	page, err := client.UserTimeline(context.Background(), 200, "")
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, "2", page.Items[0].ID)
	require.Len(t, page.Skipped, 2)
	assert.Equal(t, "1", page.Skipped[0].ID)
	assert.Equal(t, "7", page.Skipped[1].ID)

	var apiErr *errs.Error
	require.True(t, errors.As(page.Skipped[0].Err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
	assert.Equal(t, 3, page.Len())
	assert.Equal(t, "0", page.NextCursor)
}

func TestFavoritesEmptyPage(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/1.1/favorites/list.json", r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("max_id"))
		fmt.Fprint(w, `[]`)
	}), nil)

	page, err := client.Favorites(context.Background(), 200, "")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Empty(t, page.NextCursor)
}

func TestFetchPageRetriesServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `[]`)
	}), &retry.Config{
		MaxAttempts: 3,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
		RetryIf:     retry.DefaultRetryIf,
	})

	_, err := client.Favorites(context.Background(), 200, "")
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchPageDoesNotRetryAuthErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"errors": [{"code": 89, "message": "Invalid or expired token."}]}`)
	}), &retry.Config{
		MaxAttempts: 3,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
	})

	_, err := client.UserTimeline(context.Background(), 200, "")
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeAuth, apiErr.Type)
	assert.Contains(t, apiErr.Message, "Invalid or expired token.")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetchPageMalformedJSON(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not": "a list"}`)
	}), nil)

	_, err := client.Favorites(context.Background(), 200, "")
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeParsing, apiErr.Type)
}

func TestDestroyCalls(t *testing.T) {
	var paths []string
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		paths = append(paths, r.URL.RequestURI())
		fmt.Fprint(w, `{}`)
	}), nil)

	require.NoError(t, client.DestroyStatus(context.Background(), "42"))
	require.NoError(t, client.DestroyFavorite(context.Background(), "99"))

	assert.Equal(t, []string{
		"/1.1/statuses/destroy/42.json",
		"/1.1/favorites/destroy.json?id=99",
	}, paths)
}

func TestDestroyIsNotRetried(t *testing.T) {
	var calls int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}), &retry.Config{
		MaxAttempts: 5,
		Backoff:     &retry.ConstantBackoff{Delay: time.Millisecond},
	})

	err := client.DestroyFavorite(context.Background(), "99")
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeServerError, apiErr.Type)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDestroyNotFound(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"errors": [{"code": 144, "message": "No status found with that ID."}]}`)
	}), nil)

	err := client.DestroyStatus(context.Background(), "1")
	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)
	assert.Equal(t, 404, apiErr.Code)
}

func TestCancelledContext(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[]`)
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Favorites(ctx, 200, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewClientSignsRequests(t *testing.T) {
	var authHeader string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader = r.Header.Get("Authorization")
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client := NewClient(Config{
		BaseURL: server.URL,
		Timeout: 5 * time.Second,
		Credentials: Credentials{
			ConsumerKey:       "ck",
			ConsumerSecret:    "cs",
			AccessTokenKey:    "atk",
			AccessTokenSecret: "ats",
		},
	}, logger.NewNopLogger())

	_, err := client.Favorites(context.Background(), 200, "")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(authHeader, "OAuth "))
	assert.Contains(t, authHeader, `oauth_consumer_key="ck"`)
	assert.Contains(t, authHeader, `oauth_token="atk"`)
	assert.Contains(t, authHeader, `oauth_signature_method="HMAC-SHA1"`)
}

func TestEndpointURLs(t *testing.T) {
	base := "https://api.twitter.com/1.1"

	assert.Equal(t, "https://api.twitter.com/1.1/application/rate_limit_status.json?resources=statuses",
		RateLimitStatusURL(base, UserTimelineEndpoint))
	assert.Equal(t, "https://api.twitter.com/1.1/favorites/list.json?count=200&max_id=9",
		FavoritesURL(base, 0, "9"))
	assert.Equal(t, "https://api.twitter.com/1.1/statuses/user_timeline.json?count=50&include_rts=true",
		UserTimelineURL(base, 50, ""))
	assert.Equal(t, "statuses", endpointFamily("/statuses/user_timeline"))
}
