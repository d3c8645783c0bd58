package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	errs "tweetsweep/pkg/errors"
)

// Downloader opens a media URL for reading
type Downloader interface {
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// HTTPDownloader implements Downloader with a plain HTTP client. Media URLs
// on the CDN are public and need no OAuth signature.
type HTTPDownloader struct {
	client    *http.Client
	userAgent string
}

// NewHTTPDownloader creates a downloader with an overall request timeout
func NewHTTPDownloader(timeout time.Duration, userAgent string) *HTTPDownloader {
	return &HTTPDownloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewHTTPDownloaderWithClient uses an existing client, mostly for tests
func NewHTTPDownloaderWithClient(client *http.Client, userAgent string) *HTTPDownloader {
	return &HTTPDownloader{client: client, userAgent: userAgent}
}

// Download issues a GET and hands back the body on 200
func (d *HTTPDownloader) Download(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &errs.Error{Type: errs.ErrorTypeNetwork, Message: err.Error()}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &errs.Error{
			Type:    errs.TypeForStatus(resp.StatusCode),
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}

	return resp.Body, nil
}
