package processor

import (
	"context"

	"tweetsweep/pkg/archive"
	"tweetsweep/pkg/ratelimit"
	"tweetsweep/pkg/twitter"
)

// API is the remote surface a run needs. *twitter.Client implements it.
type API interface {
	ratelimit.StatusChecker
	UserTimeline(ctx context.Context, count int, cursor string) (*twitter.Page, error)
	Favorites(ctx context.Context, count int, cursor string) (*twitter.Page, error)
	DestroyStatus(ctx context.Context, id string) error
	DestroyFavorite(ctx context.Context, id string) error
}

// ItemArchiver persists one item under an archive root
type ItemArchiver interface {
	Archive(ctx context.Context, item twitter.Item, archiveRoot string, includeMedia bool) (*archive.Entry, error)
}

// DirStore creates the archive root
type DirStore interface {
	EnsureDir(path string) (existed bool, err error)
}

// Progress receives per-item ticks for display
type Progress interface {
	Add(n int) error
	Describe(description string)
}

type nopProgress struct{}

func (nopProgress) Add(int) error   { return nil }
func (nopProgress) Describe(string) {}
