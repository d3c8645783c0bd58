package media

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/ratelimit"
	"tweetsweep/pkg/storage"
)

func TestDeriveFilename(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		fallback string
		expected string
	}{
		{"media marker", "http://pbs.twimg.com/media/abc.jpg", "media_0", "abc.jpg"},
		{"first marker wins", "https://x/media/a/media/b.png", "media_0", "a/media/b.png"},
		{"fallback with extension", "https://video.twimg.com/ext_tw_video/1/pu/vid/720x1280/v.mp4", "extended_media_1", "extended_media_1.mp4"},
		{"query stripped from extension", "https://video.twimg.com/tweet_video/x.mp4?tag=12", "media_2", "media_2.mp4"},
		{"no extension", "https://example/path", "media_0", "media_0"},
		{"dot only in host", "https://example.com/path", "media_0", "media_0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeriveFilename(tt.url, tt.fallback))
		})
	}
}

func TestSafeFilename(t *testing.T) {
	assert.True(t, SafeFilename("abc.jpg"))
	assert.True(t, SafeFilename("media_0.mp4"))
	assert.True(t, SafeFilename("..hidden.jpg"))
	for _, name := range []string{"", ".", "..", "../x.jpg", "a/b.png", `a\b.png`, "/etc/passwd"} {
		assert.False(t, SafeFilename(name), name)
	}
}

func TestFetchRejectsNamesLeavingTheDirectory(t *testing.T) {
	var hits int32
	server := newMediaServer(t, &hits)
	root := t.TempDir()
	dir := filepath.Join(root, "Archive-Posted-Items", "entry")
	require.NoError(t, os.MkdirAll(dir, 0755))

	fetcher := NewFetcher(NewHTTPDownloaderWithClient(server.Client(), ""), storage.NewManager(), nil, logger.NewNopLogger())

	for _, url := range []string{
		server.URL + "/media/../../../escaped.jpg",
		server.URL + "/media/a/b.png",
	} {
		_, err := fetcher.Fetch(context.Background(), dir, url, "media_0")
		var downloadErr *errs.DownloadError
		require.True(t, errors.As(err, &downloadErr), url)
		assert.ErrorIs(t, err, ErrUnsafeFilename)
	}

	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
	assert.NoFileExists(t, filepath.Join(root, "escaped.jpg"))
	assert.NoFileExists(t, filepath.Join(filepath.Dir(root), "escaped.jpg"))
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func newMediaServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch r.URL.Path {
		case "/media/missing.jpg":
			http.NotFound(w, r)
		default:
			w.Header().Set("Content-Type", "image/jpeg")
			w.Write([]byte("image:" + r.URL.Path))
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchStoresThenSkips(t *testing.T) {
	var hits int32
	server := newMediaServer(t, &hits)
	dir := t.TempDir()
	tl := logger.NewTestLogger()

	fetcher := NewFetcher(
		NewHTTPDownloaderWithClient(server.Client(), "tweetsweep-test"),
		storage.NewManager(),
		ratelimit.NewThrottle(0, 0),
		tl,
	)

	url := server.URL + "/media/abc.jpg"

	first, err := fetcher.Fetch(context.Background(), dir, url, "media_0")
	require.NoError(t, err)
	assert.Equal(t, Stored, first.Status)
	assert.Equal(t, "abc.jpg", first.Filename)
	assert.Equal(t, int64(len("image:/media/abc.jpg")), first.Bytes)

	// the same attachment listed again under extended_entities
	second, err := fetcher.Fetch(context.Background(), dir, url, "extended_media_0")
	require.NoError(t, err)
	assert.Equal(t, Skipped, second.Status)

	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
	content, err := os.ReadFile(filepath.Join(dir, "abc.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image:/media/abc.jpg", string(content))
	assert.True(t, tl.HasMessage("Skipped duplicate media download"))
}

func TestFetchSkipsPreexistingFileWithoutNetwork(t *testing.T) {
	var hits int32
	server := newMediaServer(t, &hits)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abc.jpg"), []byte("old"), 0644))

	fetcher := NewFetcher(NewHTTPDownloaderWithClient(server.Client(), ""), storage.NewManager(), nil, logger.NewNopLogger())

	result, err := fetcher.Fetch(context.Background(), dir, server.URL+"/media/abc.jpg", "media_0")
	require.NoError(t, err)
	assert.Equal(t, Skipped, result.Status)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))

	content, _ := os.ReadFile(filepath.Join(dir, "abc.jpg"))
	assert.Equal(t, "old", string(content))
}

func TestFetchNotFoundIsDownloadError(t *testing.T) {
	var hits int32
	server := newMediaServer(t, &hits)
	dir := t.TempDir()

	fetcher := NewFetcher(NewHTTPDownloaderWithClient(server.Client(), ""), storage.NewManager(), nil, logger.NewNopLogger())

	_, err := fetcher.Fetch(context.Background(), dir, server.URL+"/media/missing.jpg", "media_0")
	require.Error(t, err)

	var downloadErr *errs.DownloadError
	require.True(t, errors.As(err, &downloadErr))
	assert.Equal(t, filepath.Join(dir, "missing.jpg"), downloadErr.Path)

	var apiErr *errs.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, errs.ErrorTypeNotFound, apiErr.Type)

	// nothing left behind, so a later run tries again
	entries, _ := os.ReadDir(dir)
	assert.Empty(t, entries)
}

func TestFetchUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL + "/media/gone.png"
	server.Close()

	fetcher := NewFetcher(NewHTTPDownloader(0, ""), storage.NewManager(), nil, logger.NewNopLogger())

	_, err := fetcher.Fetch(context.Background(), t.TempDir(), url, "media_0")
	var downloadErr *errs.DownloadError
	assert.True(t, errors.As(err, &downloadErr))
}

type blockedLimiter struct{}

func (blockedLimiter) Wait(ctx context.Context) error { return context.DeadlineExceeded }

func TestFetchThrottleFailure(t *testing.T) {
	var hits int32
	server := newMediaServer(t, &hits)

	fetcher := NewFetcher(NewHTTPDownloaderWithClient(server.Client(), ""), storage.NewManager(), blockedLimiter{}, logger.NewNopLogger())

	_, err := fetcher.Fetch(context.Background(), t.TempDir(), server.URL+"/media/a.jpg", "media_0")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}
