package processor

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	errs "tweetsweep/pkg/errors"
	"tweetsweep/pkg/logger"
	"tweetsweep/pkg/media"
	"tweetsweep/pkg/metrics"
	"tweetsweep/pkg/ratelimit"
	"tweetsweep/pkg/twitter"
)

type state int

const (
	stateFetchGate state = iota
	stateBackoff
	stateFetchPage
	stateDone
)

func (s state) String() string {
	switch s {
	case stateFetchGate:
		return "fetch_gate"
	case stateBackoff:
		return "backoff"
	case stateFetchPage:
		return "fetch_page"
	case stateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Summary is what a run did
type Summary struct {
	RunID           string        `json:"run_id"`
	Kind            Kind          `json:"kind"`
	Archive         bool          `json:"archive"`
	Destroy         bool          `json:"destroy"`
	Media           bool          `json:"media"`
	ArchiveRoot     string        `json:"archive_root,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	FinishedAt      time.Time     `json:"finished_at"`
	Pages           int           `json:"pages"`
	Items           int           `json:"items"`
	Malformed       int           `json:"malformed"`
	Archived        int           `json:"archived"`
	ArchiveFailures int           `json:"archive_failures"`
	Destroyed       int           `json:"destroyed"`
	DestroyFailures int           `json:"destroy_failures"`
	MediaStored     int           `json:"media_stored"`
	MediaSkipped    int           `json:"media_skipped"`
	MediaFailed     int           `json:"media_failed"`
	Bytes           int64         `json:"bytes"`
	Backoffs        int           `json:"backoffs"`
	BackoffTime     time.Duration `json:"backoff_ns"`
}

// Duration is the wall time between start and finish
func (s *Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

// Deps are the collaborators a Processor drives. API is required, the rest
// default to no-ops or the system clock.
type Deps struct {
	API      API
	Archiver ItemArchiver
	Store    DirStore
	Clock    ratelimit.Clock
	Metrics  metrics.Recorder
	Progress Progress
	Logger   logger.Logger
}

// Settings are the static knobs of a Processor
type Settings struct {
	BaseDir  string
	PageSize int
}

// Processor walks one collection page by page, archiving and destroying
// each item, and sleeps through exhausted rate limit windows.
type Processor struct {
	api      API
	archiver ItemArchiver
	store    DirStore
	clock    ratelimit.Clock
	gate     *ratelimit.Gate
	metrics  metrics.Recorder
	progress Progress
	logger   logger.Logger
	settings Settings
}

// New creates a Processor
func New(deps Deps, settings Settings) *Processor {
	if deps.Clock == nil {
		deps.Clock = ratelimit.SystemClock{}
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.Nop{}
	}
	if deps.Progress == nil {
		deps.Progress = nopProgress{}
	}
	if deps.Logger == nil {
		deps.Logger = logger.GetLogger()
	}
	if settings.PageSize <= 0 || settings.PageSize > twitter.MaxPageSize {
		settings.PageSize = twitter.MaxPageSize
	}
	if settings.BaseDir == "" {
		settings.BaseDir = "."
	}

	return &Processor{
		api:      deps.API,
		archiver: deps.Archiver,
		store:    deps.Store,
		clock:    deps.Clock,
		gate:     ratelimit.NewGate(deps.API, deps.Clock, deps.Logger),
		metrics:  deps.Metrics,
		progress: deps.Progress,
		logger:   deps.Logger,
		settings: settings,
	}
}

// ArchiveRoot is where items of kind are archived
func (p *Processor) ArchiveRoot(kind Kind) string {
	return filepath.Join(p.settings.BaseDir, kind.ArchiveDirName())
}

// Run processes every item of kind until a page comes back empty. Per-item
// failures are counted in the summary and do not stop the run; a failed
// rate limit query or page fetch does. The summary is returned in both cases.
func (p *Processor) Run(ctx context.Context, kind Kind, opts Options) (*Summary, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if opts.Archive && p.archiver == nil {
		return nil, fmt.Errorf("archiving requested but no archiver configured")
	}

	summary := &Summary{
		RunID:     uuid.NewString(),
		Kind:      kind,
		Archive:   opts.Archive,
		Destroy:   opts.Destroy,
		Media:     opts.Media,
		StartedAt: p.clock.Now(),
	}
	log := p.logger.WithFields(map[string]interface{}{
		"run_id": summary.RunID,
		"kind":   string(kind),
	})
	defer func() { summary.FinishedAt = p.clock.Now() }()

	if opts.Archive {
		summary.ArchiveRoot = p.ArchiveRoot(kind)
		if p.store != nil {
			if _, err := p.store.EnsureDir(summary.ArchiveRoot); err != nil {
				return summary, &errs.PersistenceError{Op: "create archive root", Path: summary.ArchiveRoot, Err: err}
			}
		}
	}

	log.InfoWithFields("Run started", map[string]interface{}{
		"archive": opts.Archive,
		"destroy": opts.Destroy,
		"media":   opts.Media,
	})

	endpoint := kind.Endpoint()
	cursor := ""
	var status ratelimit.Status
	st := stateFetchGate

	for st != stateDone {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		switch st {
		case stateFetchGate:
			var err error
			status, err = p.gate.Check(ctx, endpoint)
			if err != nil {
				return summary, err
			}
			log.InfoWithFields("Rate limit status", map[string]interface{}{
				"endpoint":  endpoint,
				"remaining": status.Remaining,
			})
			if status.Exhausted() {
				st = stateBackoff
			} else {
				st = stateFetchPage
			}

		case stateBackoff:
			p.progress.Describe("rate limited, sleeping")
			slept, err := p.gate.Backoff(ctx, endpoint, status)
			if err != nil {
				return summary, err
			}
			summary.Backoffs++
			summary.BackoffTime += slept
			p.metrics.RecordBackoff(string(kind), slept)
			st = stateFetchGate

		case stateFetchPage:
			page, err := p.fetchPage(ctx, kind, cursor)
			if err != nil {
				return summary, fmt.Errorf("fetch %s page: %w", kind, err)
			}
			summary.Pages++
			summary.Items += len(page.Items)
			summary.Malformed += len(page.Skipped)
			p.metrics.RecordPage(string(kind), len(page.Items))
			log.InfoWithFields("Page fetched", map[string]interface{}{
				"page":      summary.Pages,
				"items":     len(page.Items),
				"malformed": len(page.Skipped),
			})

			if page.Len() == 0 {
				st = stateDone
				break
			}

			for _, bad := range page.Skipped {
				log.WithField("id", bad.ID).WithError(bad.Err).Warn("Skipping item that could not be decoded")
			}

			p.progress.Describe(fmt.Sprintf("%s page %d", kind, summary.Pages))
			for _, item := range page.Items {
				if err := ctx.Err(); err != nil {
					return summary, err
				}
				p.handleItem(ctx, log, kind, opts, item, summary)
				_ = p.progress.Add(1)
			}

			cursor = page.NextCursor
			if cursor == "" {
				// No numeric id to move past; refetching would loop forever.
				log.Warn("Page had no usable cursor, stopping")
				st = stateDone
				break
			}
			st = stateFetchGate
		}
	}

	log.InfoWithFields("No more items to handle", map[string]interface{}{
		"pages":     summary.Pages,
		"items":     summary.Items,
		"archived":  summary.Archived,
		"destroyed": summary.Destroyed,
	})
	return summary, nil
}

func (p *Processor) fetchPage(ctx context.Context, kind Kind, cursor string) (*twitter.Page, error) {
	if kind == Liked {
		return p.api.Favorites(ctx, p.settings.PageSize, cursor)
	}
	return p.api.UserTimeline(ctx, p.settings.PageSize, cursor)
}

func (p *Processor) destroy(ctx context.Context, kind Kind, id string) error {
	var err error
	if kind == Liked {
		err = p.api.DestroyFavorite(ctx, id)
	} else {
		err = p.api.DestroyStatus(ctx, id)
	}
	if err != nil {
		return &errs.RemoteActionError{Action: kind.DestroyAction(), ID: id, Err: err}
	}
	return nil
}

func (p *Processor) handleItem(ctx context.Context, log logger.Logger, kind Kind, opts Options, item twitter.Item, summary *Summary) {
	log = log.WithField("id", item.ID)

	if opts.Archive {
		entry, err := p.archiver.Archive(ctx, item, summary.ArchiveRoot, opts.Media)
		if entry != nil {
			for _, res := range entry.Media {
				if res.Status == media.Skipped {
					summary.MediaSkipped++
				} else {
					summary.MediaStored++
				}
				p.metrics.RecordMedia(string(res.Status), res.Bytes)
			}
			for i := 0; i < entry.MediaFailures; i++ {
				p.metrics.RecordMediaFailure()
			}
			summary.MediaFailed += entry.MediaFailures
			summary.Bytes += entry.Bytes
		}
		if err != nil {
			summary.ArchiveFailures++
			p.metrics.RecordArchiveFailure(string(kind))
			if opts.Destroy {
				log.WithError(err).Error("Archive failed, keeping remote copy")
			} else {
				log.WithError(err).Error("Archive failed")
			}
			return
		}
		summary.Archived++
		p.metrics.RecordArchived(string(kind))
		log.InfoWithFields("Archived", map[string]interface{}{"dir": entry.Dir})
	}

	if opts.Destroy {
		if err := p.destroy(ctx, kind, item.ID); err != nil {
			summary.DestroyFailures++
			p.metrics.RecordDestroyFailure(string(kind))
			log.WithError(err).Error("Destroy failed, continuing")
			return
		}
		summary.Destroyed++
		p.metrics.RecordDestroyed(string(kind))
		log.InfoWithFields("Destroyed", map[string]interface{}{"action": kind.DestroyAction()})
	}
}
