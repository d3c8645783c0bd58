// Package metrics exposes run counters over Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the collection loop reports to. kind is "posted" or
// "liked".
type Recorder interface {
	RecordPage(kind string, items int)
	RecordArchived(kind string)
	RecordArchiveFailure(kind string)
	RecordDestroyed(kind string)
	RecordDestroyFailure(kind string)
	RecordMedia(status string, bytes int64)
	RecordMediaFailure()
	RecordBackoff(kind string, sleep time.Duration)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	pages          *prometheus.CounterVec
	items          *prometheus.CounterVec
	archived       *prometheus.CounterVec
	archiveFails   *prometheus.CounterVec
	destroyed      *prometheus.CounterVec
	destroyFails   *prometheus.CounterVec
	media          *prometheus.CounterVec
	mediaFails     prometheus.Counter
	mediaBytes     prometheus.Counter
	backoffs       *prometheus.CounterVec
	backoffSeconds prometheus.Histogram
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	kind := []string{"kind"}
	c := &Collector{
		pages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_pages_fetched_total",
			Help: "Pages fetched from the API.",
		}, kind),
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_items_seen_total",
			Help: "Items returned by page fetches.",
		}, kind),
		archived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_items_archived_total",
			Help: "Items written to the archive.",
		}, kind),
		archiveFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_archive_failures_total",
			Help: "Items whose archival failed.",
		}, kind),
		destroyed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_items_destroyed_total",
			Help: "Tweets deleted or un-liked.",
		}, kind),
		destroyFails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_destroy_failures_total",
			Help: "Delete or un-like requests that failed.",
		}, kind),
		media: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_media_total",
			Help: "Media attachments by outcome.",
		}, []string{"status"}),
		mediaFails: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweetsweep_media_failures_total",
			Help: "Media downloads that failed.",
		}),
		mediaBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tweetsweep_media_bytes_total",
			Help: "Bytes of media written.",
		}),
		backoffs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tweetsweep_rate_limit_backoffs_total",
			Help: "Times the loop slept for an exhausted rate limit.",
		}, kind),
		backoffSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tweetsweep_rate_limit_backoff_seconds",
			Help:    "Length of rate limit sleeps.",
			Buckets: []float64{1, 10, 60, 300, 600, 900},
		}),
	}

	reg.MustRegister(
		c.pages,
		c.items,
		c.archived,
		c.archiveFails,
		c.destroyed,
		c.destroyFails,
		c.media,
		c.mediaFails,
		c.mediaBytes,
		c.backoffs,
		c.backoffSeconds,
	)

	return c
}

func (c *Collector) RecordPage(kind string, items int) {
	c.pages.WithLabelValues(kind).Inc()
	c.items.WithLabelValues(kind).Add(float64(items))
}

func (c *Collector) RecordArchived(kind string) {
	c.archived.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordArchiveFailure(kind string) {
	c.archiveFails.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordDestroyed(kind string) {
	c.destroyed.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordDestroyFailure(kind string) {
	c.destroyFails.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordMedia(status string, bytes int64) {
	c.media.WithLabelValues(status).Inc()
	c.mediaBytes.Add(float64(bytes))
}

func (c *Collector) RecordMediaFailure() {
	c.mediaFails.Inc()
}

func (c *Collector) RecordBackoff(kind string, sleep time.Duration) {
	c.backoffs.WithLabelValues(kind).Inc()
	c.backoffSeconds.Observe(sleep.Seconds())
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordPage(string, int)              {}
func (Nop) RecordArchived(string)               {}
func (Nop) RecordArchiveFailure(string)         {}
func (Nop) RecordDestroyed(string)              {}
func (Nop) RecordDestroyFailure(string)         {}
func (Nop) RecordMedia(string, int64)           {}
func (Nop) RecordMediaFailure()                 {}
func (Nop) RecordBackoff(string, time.Duration) {}

// Handler serves gatherer in the Prometheus text format on /metrics
func Handler(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return mux
}
