package processor

import (
	"errors"
	"fmt"
	"strings"

	"tweetsweep/pkg/twitter"
)

// Kind selects which collection a run walks
type Kind string

const (
	Posted Kind = "posted"
	Liked  Kind = "liked"
)

// ParseKind accepts "posted" or "liked"
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(s)) {
	case Posted:
		return Posted, nil
	case Liked:
		return Liked, nil
	default:
		return "", fmt.Errorf("unknown kind %q (want posted or liked)", s)
	}
}

// Endpoint is the rate limit key of the kind's list endpoint
func (k Kind) Endpoint() string {
	if k == Liked {
		return twitter.FavoritesEndpoint
	}
	return twitter.UserTimelineEndpoint
}

// ArchiveDirName is the archive root directory for the kind
func (k Kind) ArchiveDirName() string {
	if k == Liked {
		return "Archive-Liked-Items"
	}
	return "Archive-Posted-Items"
}

// DestroyAction names the remote call that removes an item
func (k Kind) DestroyAction() string {
	if k == Liked {
		return "unlike"
	}
	return "delete"
}

// Options are the per-run switches
type Options struct {
	Archive bool
	Destroy bool
	Media   bool
}

var (
	ErrNoAction          = errors.New("at least one of archive or delete must be selected")
	ErrMediaNeedsArchive = errors.New("saving media requires archiving")
)

// Validate rejects combinations that would do nothing or save media without
// an archive to put it in.
func (o Options) Validate() error {
	if o.Media && !o.Archive {
		return ErrMediaNeedsArchive
	}
	if !o.Archive && !o.Destroy {
		return ErrNoAction
	}
	return nil
}

// Describe renders the confirmation sentence for a run
func Describe(kind Kind, opts Options) string {
	var b strings.Builder
	b.WriteString("You have selected: to ")
	if opts.Archive {
		b.WriteString("ARCHIVE")
		if opts.Media {
			b.WriteString(" (and save media files)")
		}
		if opts.Destroy {
			b.WriteString(" and ")
		}
	}
	if opts.Destroy {
		if kind == Liked {
			b.WriteString("UN-LIKE")
		} else {
			b.WriteString("DELETE")
		}
	}
	if kind == Liked {
		b.WriteString(" ALL tweets you have LIKED.")
	} else {
		b.WriteString(" ALL tweets you have POSTED (including retweets).")
	}
	return b.String()
}
