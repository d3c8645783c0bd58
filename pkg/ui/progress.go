package ui

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// Spinner counts handled items without a known total
type Spinner struct {
	bar   *progressbar.ProgressBar
	count int64
}

// NewSpinner draws on w. A quiet spinner draws nothing.
func NewSpinner(w io.Writer, description string) *Spinner {
	if IsQuietMode() {
		w = io.Discard
	}
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(15),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowCount(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionFullWidth(),
		progressbar.OptionClearOnFinish(),
	)
	return &Spinner{bar: bar}
}

// Add records n more handled items
func (s *Spinner) Add(n int) error {
	s.count += int64(n)
	return s.bar.Add(n)
}

// Describe replaces the text next to the spinner
func (s *Spinner) Describe(description string) {
	s.bar.Describe(description)
}

// Count is the number of items added so far
func (s *Spinner) Count() int64 {
	return s.count
}

// Finish clears the spinner line
func (s *Spinner) Finish() error {
	return s.bar.Finish()
}
