package media

import (
	"context"
	"io"
	"path/filepath"

	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/ratelimit"
)

// Status is the outcome of a single Fetch
type Status string

const (
	Stored  Status = "stored"
	Skipped Status = "skipped"
)

// Result describes one fetched or skipped media file
type Result struct {
	Status   Status
	Filename string
	Bytes    int64
}

// Store is the filesystem surface the fetcher needs
type Store interface {
	Exists(dir, name string) bool
	SaveFile(dir, name string, r io.Reader) (int64, error)
}

// Fetcher makes a media file present in a directory exactly once
type Fetcher struct {
	downloader Downloader
	store      Store
	limiter    ratelimit.Limiter
	logger     logger.Logger
}

// NewFetcher creates a Fetcher. limiter may be nil to disable throttling.
func NewFetcher(downloader Downloader, store Store, limiter ratelimit.Limiter, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		downloader: downloader,
		store:      store,
		limiter:    limiter,
		logger:     log,
	}
}

// Fetch stores mediaURL in dir under its derived name. An existing file with
// that name is never fetched again. Failures come back as *errors.DownloadError
// and are not retried.
func (f *Fetcher) Fetch(ctx context.Context, dir, mediaURL, fallback string) (Result, error) {
	name := DeriveFilename(mediaURL, fallback)
	log := f.logger.WithFields(map[string]interface{}{
		"url":  mediaURL,
		"file": name,
	})

	if !SafeFilename(name) {
		log.Warn("Refusing media with unsafe filename")
		return Result{}, &errs.DownloadError{URL: mediaURL, Path: filepath.Join(dir, name), Err: ErrUnsafeFilename}
	}

	if f.store.Exists(dir, name) {
		log.Info("Skipped duplicate media download")
		return Result{Status: Skipped, Filename: name}, nil
	}

	path := filepath.Join(dir, name)

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return Result{}, &errs.DownloadError{URL: mediaURL, Path: path, Err: err}
		}
	}

	log.Info("Downloading media")
	body, err := f.downloader.Download(ctx, mediaURL)
	if err != nil {
		return Result{}, &errs.DownloadError{URL: mediaURL, Path: path, Err: err}
	}
	defer body.Close()

	n, err := f.store.SaveFile(dir, name, body)
	if err != nil {
		return Result{}, &errs.DownloadError{URL: mediaURL, Path: path, Err: err}
	}

	return Result{Status: Stored, Filename: name, Bytes: n}, nil
}
