package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/media"
	"tweetsweep/pkg/twitter"
)

// TimestampLayout renders an item's creation time in its entry name
const TimestampLayout = "2006-01-02-15:04:05"

// Store is the filesystem surface the archiver needs
type Store interface {
	EnsureDir(path string) (existed bool, err error)
	WriteFile(dir, name string, data []byte) error
}

// MediaFetcher fetches one attachment into an entry directory
type MediaFetcher interface {
	Fetch(ctx context.Context, dir, mediaURL, fallback string) (media.Result, error)
}

// Entry summarises one archival
type Entry struct {
	Dir           string
	MetadataFile  string
	Media         []media.Result
	MediaFailures int
	Bytes         int64
}

// Archiver writes items into per-item directories under an archive root
type Archiver struct {
	store   Store
	fetcher MediaFetcher
	logger  logger.Logger
}

// NewArchiver creates an Archiver. fetcher may be nil when media is never
// requested.
func NewArchiver(store Store, fetcher MediaFetcher, log logger.Logger) *Archiver {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Archiver{store: store, fetcher: fetcher, logger: log}
}

// EntryName is the directory name of item: its creation time followed by
// its id, so entries sort chronologically and re-archiving hits the same one.
func EntryName(item twitter.Item) string {
	return item.CreatedAt.Format(TimestampLayout) + "-" + item.ID
}

// MetadataFilename is the JSON file holding the item payload
func MetadataFilename(item twitter.Item) string {
	return "tweet-" + item.ID + ".json"
}

// Canonicalize re-encodes a payload with sorted keys and 4-space indentation.
// Numbers pass through untouched so 64-bit ids keep every digit.
func Canonicalize(raw json.RawMessage) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}

	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Archive persists item under archiveRoot and, when includeMedia is set,
// every attachment it references. Directory and metadata failures return a
// *errors.PersistenceError; media failures are logged and counted only.
func (a *Archiver) Archive(ctx context.Context, item twitter.Item, archiveRoot string, includeMedia bool) (*Entry, error) {
	dir := filepath.Join(archiveRoot, EntryName(item))
	log := a.logger.WithField("id", item.ID)

	existed, err := a.store.EnsureDir(dir)
	if err != nil {
		return nil, &errs.PersistenceError{Op: "create archive folder", Path: dir, Err: err}
	}
	if existed {
		log.Info("Archive folder already exists. Proceeding anyway.")
	}

	payload, err := Canonicalize(item.Raw)
	if err != nil {
		return nil, &errs.PersistenceError{Op: "canonicalize metadata", Path: dir, Err: err}
	}

	entry := &Entry{Dir: dir, MetadataFile: MetadataFilename(item)}
	if err := a.store.WriteFile(dir, entry.MetadataFile, payload); err != nil {
		return nil, &errs.PersistenceError{Op: "write metadata", Path: filepath.Join(dir, entry.MetadataFile), Err: err}
	}

	if !includeMedia {
		return entry, nil
	}
	if a.fetcher == nil {
		return entry, fmt.Errorf("media requested but no fetcher configured")
	}

	for _, att := range item.Media {
		a.fetch(ctx, log, entry, att, fmt.Sprintf("media_%d", att.Index))
	}
	if item.HasExtended {
		for _, att := range item.ExtendedMedia {
			a.fetch(ctx, log, entry, att, fmt.Sprintf("extended_media_%d", att.Index))
		}
	}

	return entry, nil
}

func (a *Archiver) fetch(ctx context.Context, log logger.Logger, entry *Entry, att twitter.MediaAttachment, fallback string) {
	if att.URL == "" {
		log.WarnWithFields("Media attachment has no URL", map[string]interface{}{"fallback": fallback})
		entry.MediaFailures++
		return
	}

	result, err := a.fetcher.Fetch(ctx, entry.Dir, att.URL, fallback)
	if err != nil {
		log.WithError(err).Warn("Media download failed, continuing")
		entry.MediaFailures++
		return
	}

	entry.Media = append(entry.Media, result)
	entry.Bytes += result.Bytes
}
