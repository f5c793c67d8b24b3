// Package metrics exposes Prometheus counters for downloads and cache lookups.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Download outcomes
const (
	OutcomeOK          = "ok"
	OutcomeTransport   = "transport_error"
	OutcomeStatus      = "status_error"
	OutcomeBreakerOpen = "breaker_open"
	OutcomeDecode      = "decode_error"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Collector groups the client's counters. A nil *Collector is valid and records nothing.
type Collector struct {
	downloads    *prometheus.CounterVec
	cacheLookups *prometheus.CounterVec
	retries      prometheus.Counter
	bytes        prometheus.Counter
}

// NewCollector creates the counters and registers them on reg.
// A nil reg creates unregistered counters.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		downloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnipath_downloads_total",
			Help: "Download attempts per mirror and outcome.",
		}, []string{"mirror", "outcome"}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "omnipath_cache_lookups_total",
			Help: "Cache lookups by result.",
		}, []string{"result"}),
		retries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "omnipath_http_retries_total",
			Help: "HTTP requests retried after a retryable status or transport error.",
		}),
		bytes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "omnipath_download_bytes_total",
			Help: "Response bytes read from the web service.",
		}),
	}

	if reg != nil {
		for _, col := range []prometheus.Collector{c.downloads, c.cacheLookups, c.retries, c.bytes} {
			if err := reg.Register(col); err != nil {
				return nil, err
			}
		}
	}
	return c, nil
}

// Download records one download attempt against mirror
func (c *Collector) Download(mirror, outcome string) {
	if c == nil {
		return
	}
	c.downloads.WithLabelValues(mirror, outcome).Inc()
}

// CacheLookup records a cache hit or miss
func (c *Collector) CacheLookup(result string) {
	if c == nil {
		return
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}

// Retry records one retried HTTP request
func (c *Collector) Retry() {
	if c == nil {
		return
	}
	c.retries.Inc()
}

// Bytes records n downloaded bytes
func (c *Collector) Bytes(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.bytes.Add(float64(n))
}

// Downloads returns the download counter vector, for inspection in tests
func (c *Collector) Downloads() *prometheus.CounterVec { return c.downloads }

// CacheLookups returns the cache lookup counter vector
func (c *Collector) CacheLookups() *prometheus.CounterVec { return c.cacheLookups }

// Retries returns the retry counter
func (c *Collector) Retries() prometheus.Counter { return c.retries }
