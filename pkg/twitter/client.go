package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/ratelimit"
	"tweetsweep/pkg/retry"
)

// Credentials are the four OAuth 1.0a secrets of a user context app
type Credentials struct {
	ConsumerKey       string
	ConsumerSecret    string
	AccessTokenKey    string
	AccessTokenSecret string
}

// Config configures a Client
type Config struct {
	BaseURL     string
	UserAgent   string
	Timeout     time.Duration
	Credentials Credentials
	// Retry applies to GET requests only; nil means a single attempt
	Retry *retry.Config
}

// Client talks to the Twitter REST v1.1 API
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	retry      *retry.Config
	logger     logger.Logger
}

// NewClient creates a client that signs every request with OAuth 1.0a
func NewClient(cfg Config, log logger.Logger) *Client {
	oauthConfig := oauth1.NewConfig(cfg.Credentials.ConsumerKey, cfg.Credentials.ConsumerSecret)
	token := oauth1.NewToken(cfg.Credentials.AccessTokenKey, cfg.Credentials.AccessTokenSecret)

	httpClient := oauthConfig.Client(oauth1.NoContext, token)
	httpClient.Timeout = cfg.Timeout

	return NewClientWithHTTPClient(httpClient, cfg, log)
}

// NewClientWithHTTPClient uses httpClient as is. Tests pass an unsigned
// client pointed at an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, cfg Config, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	retryCfg := cfg.Retry
	if retryCfg == nil {
		retryCfg = &retry.Config{MaxAttempts: 1, Logger: log}
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		userAgent:  cfg.UserAgent,
		retry:      retryCfg,
		logger:     log,
	}
}

// RateLimitStatus reports the remaining quota of endpoint, e.g.
// "/favorites/list".
func (c *Client) RateLimitStatus(ctx context.Context, endpoint string) (ratelimit.Status, error) {
	var response rateLimitResponse
	if err := c.getJSONWithRetry(ctx, RateLimitStatusURL(c.baseURL, endpoint), &response); err != nil {
		return ratelimit.Status{}, err
	}

	entry, ok := response.Resources[endpointFamily(endpoint)][endpoint]
	if !ok {
		return ratelimit.Status{}, &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("no rate limit entry for %s", endpoint),
		}
	}

	return ratelimit.Status{
		Limit:     entry.Limit,
		Remaining: entry.Remaining,
		Reset:     time.Unix(entry.Reset, 0),
	}, nil
}

// UserTimeline fetches up to count of the user's own tweets older than cursor
func (c *Client) UserTimeline(ctx context.Context, count int, cursor string) (*Page, error) {
	return c.fetchPage(ctx, UserTimelineURL(c.baseURL, count, cursor))
}

// Favorites fetches up to count liked tweets older than cursor
func (c *Client) Favorites(ctx context.Context, count int, cursor string) (*Page, error) {
	return c.fetchPage(ctx, FavoritesURL(c.baseURL, count, cursor))
}

// DestroyStatus deletes one of the user's tweets. It is never retried.
func (c *Client) DestroyStatus(ctx context.Context, id string) error {
	return c.post(ctx, DestroyStatusURL(c.baseURL, id))
}

// DestroyFavorite un-likes a tweet. It is never retried.
func (c *Client) DestroyFavorite(ctx context.Context, id string) error {
	return c.post(ctx, DestroyFavoriteURL(c.baseURL, id))
}

func (c *Client) fetchPage(ctx context.Context, url string) (*Page, error) {
	var raws []json.RawMessage
	if err := c.getJSONWithRetry(ctx, url, &raws); err != nil {
		return nil, err
	}

	page := &Page{Items: make([]Item, 0, len(raws))}
	ids := make([]string, 0, len(raws))
	for _, raw := range raws {
		item, err := ParseItem(raw)
		if err != nil {
			// One bad entry must not cost the rest of the page
			skipped := SkippedItem{
				ID:  rawID(raw),
				Err: &errs.Error{Type: errs.ErrorTypeParsing, Message: err.Error()},
			}
			page.Skipped = append(page.Skipped, skipped)
			ids = append(ids, skipped.ID)
			continue
		}
		page.Items = append(page.Items, item)
		ids = append(ids, item.ID)
	}
	page.NextCursor = nextCursor(ids)

	return page, nil
}

func (c *Client) getJSONWithRetry(ctx context.Context, url string, target interface{}) error {
	return retry.Do(func() error {
		return c.getJSON(ctx, url, target)
	}, c.retry.WithContext(ctx))
}

func (c *Client) getJSON(ctx context.Context, url string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	if err := c.checkResponseStatus(resp, body); err != nil {
		return err
	}

	if err := json.Unmarshal(body, target); err != nil {
		preview := string(body)
		if len(preview) > 200 {
			preview = preview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"url":          url,
			"error":        err.Error(),
			"body_preview": preview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	return nil
}

func (c *Client) post(ctx context.Context, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeUnknown,
			Message: fmt.Sprintf("failed to create request: %v", err),
		}
	}

	resp, err := c.doRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	return c.checkResponseStatus(resp, body)
}

// doRequest sends req and maps transport failures to network errors
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"url":      req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errs.Error{
			Type:    errs.ErrorTypeNetwork,
			Message: fmt.Sprintf("network error: %v", err),
		}
	}

	logger.LogRequest(c.logger, req.Method, req.URL.Path, resp.StatusCode, duration)
	return resp, nil
}

// checkResponseStatus maps non-2xx responses to typed errors, preferring the
// message from the API's error envelope.
func (c *Client) checkResponseStatus(resp *http.Response, body []byte) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	message := http.StatusText(resp.StatusCode)
	var envelope apiErrorResponse
	if json.Unmarshal(body, &envelope) == nil && len(envelope.Errors) > 0 {
		message = fmt.Sprintf("%s (api code %d)", envelope.Errors[0].Message, envelope.Errors[0].Code)
	}

	return &errs.Error{
		Type:    errs.TypeForStatus(resp.StatusCode),
		Message: message,
		Code:    resp.StatusCode,
	}
}
