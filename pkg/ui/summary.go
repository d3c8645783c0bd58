package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"tweetsweep/pkg/processor"
)

// PrintSummary writes the outcome of a run
func PrintSummary(w io.Writer, s *processor.Summary) {
	if s == nil || IsQuietMode() {
		return
	}

	row := func(label, value string) {
		fmt.Fprintf(w, "  %-18s %s\n", label, value)
	}

	fmt.Fprintln(w, Bold(fmt.Sprintf("Run %s (%s)", s.RunID, s.Kind)))
	row("duration", s.Duration().Round(time.Second).String())
	row("pages", humanize.Comma(int64(s.Pages)))
	row("items", humanize.Comma(int64(s.Items)))
	if s.Malformed > 0 {
		row("undecodable", Yellow(humanize.Comma(int64(s.Malformed))))
	}
	if s.Archive {
		row("archived", fmt.Sprintf("%s in %s", humanize.Comma(int64(s.Archived)), s.ArchiveRoot))
		if s.ArchiveFailures > 0 {
			row("archive failures", Red(humanize.Comma(int64(s.ArchiveFailures))))
		}
	}
	if s.Media {
		row("media", fmt.Sprintf("%d stored, %d skipped, %d failed (%s)",
			s.MediaStored, s.MediaSkipped, s.MediaFailed, humanize.Bytes(uint64(s.Bytes))))
	}
	if s.Destroy {
		label := "deleted"
		if s.Kind == processor.Liked {
			label = "un-liked"
		}
		row(label, humanize.Comma(int64(s.Destroyed)))
		if s.DestroyFailures > 0 {
			row("destroy failures", Red(humanize.Comma(int64(s.DestroyFailures))))
		}
	}
	if s.Backoffs > 0 {
		row("rate limit waits", fmt.Sprintf("%d (%s)", s.Backoffs, s.BackoffTime.Round(time.Second)))
	}
}
