// Package downloader fetches OmniPath endpoints with caching, mirror
// fallback, retries and per-mirror circuit breaking.
package downloader

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sync"
	"time"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/internal/metrics"
	"github.com/omnipath-client/pkg/cache"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// UserAgent is sent with every request
const UserAgent = "omnipathdb-user"

// UnknownVersion is reported when the server version cannot be determined
const UnknownVersion = "UNKNOWN"

var versionPattern = regexp.MustCompile(`\d+\.\d+.\d+`)

// Decoder turns a downloaded body into a value
type Decoder func(r io.Reader) (any, error)

// ProgressFunc is called after every chunk with the bytes read so far and
// the expected total (-1 when unknown)
type ProgressFunc func(read, total int64)

// Option configures a Downloader
type Option func(*Downloader)

// WithHTTPTransport sets the transport wrapped by the retry layer
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(d *Downloader) { d.transport = rt }
}

// WithMetrics records downloads and cache lookups on c
func WithMetrics(c *metrics.Collector) Option {
	return func(d *Downloader) { d.metrics = c }
}

// WithProgress installs a progress hook, used when progress reporting is enabled
func WithProgress(fn ProgressFunc) Option {
	return func(d *Downloader) { d.progress = fn }
}

// DownloadOption tunes a single MaybeDownload call
type DownloadOption func(*downloadConfig)

type downloadConfig struct {
	noCache  bool
	finalURL bool
}

// WithoutCache skips both the cache lookup and the cache store
func WithoutCache() DownloadOption {
	return func(c *downloadConfig) { c.noCache = true }
}

// AsFinalURL treats the endpoint as a complete URL, disabling mirror fallback
func AsFinalURL() DownloadOption {
	return func(c *downloadConfig) { c.finalURL = true }
}

// Downloader fetches and caches decoded endpoint payloads
type Downloader struct {
	opts      domain.Options
	cache     cache.Cache
	client    *http.Client
	transport http.RoundTripper
	limiter   *rate.Limiter
	group     singleflight.Group
	metrics   *metrics.Collector
	progress  ProgressFunc
	log       *logrus.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

// New creates a downloader. The options are copied; c may be nil to disable caching.
func New(opts domain.Options, c cache.Cache, logger *logrus.Logger, options ...Option) *Downloader {
	if c == nil {
		c = cache.NewNoopCache()
	}
	d := &Downloader{
		opts:     opts.With(),
		cache:    c,
		log:      logging.OrDiscard(logger),
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, option := range options {
		option(d)
	}
	if d.opts.ChunkSize <= 0 {
		d.opts.ChunkSize = domain.DefaultChunkSize
	}
	if d.opts.Timeout <= 0 {
		d.opts.Timeout = domain.DefaultTimeout
	}
	if d.opts.RateLimit > 0 {
		d.limiter = rate.NewLimiter(rate.Limit(d.opts.RateLimit), 1)
	}
	d.client = &http.Client{
		Transport: newRetryTransport(d.transport, d.opts.NumRetries, d.metrics, d.log),
	}
	return d
}

// Options returns the downloader's private copy of the configuration
func (d *Downloader) Options() domain.Options { return d.opts }

// Cache returns the cache shared with other components
func (d *Downloader) Cache() cache.Cache { return d.cache }

// Key returns the cache key of a fully resolved URL
func Key(u string) string {
	sum := md5.Sum([]byte(u))
	return hex.EncodeToString(sum[:])
}

// ResolveURL joins base and endpoint and appends params as a sorted query string
func ResolveURL(base, endpoint string, params map[string]string) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("failed to parse endpoint %q: %w", endpoint, err)
	}
	u := ref
	if base != "" {
		b, err := url.Parse(base)
		if err != nil {
			return "", fmt.Errorf("failed to parse base URL %q: %w", base, err)
		}
		u = b.ResolveReference(ref)
	}

	query := u.Query()
	for k, v := range params {
		query.Set(k, v)
	}
	u.RawQuery = query.Encode()
	return u.String(), nil
}

// MaybeDownload returns the decoded payload for endpoint, served from the
// cache when an identical request was completed before. Mirrors are tried in
// order; a decoding failure stops the search.
func (d *Downloader) MaybeDownload(ctx context.Context, endpoint string, decode Decoder, params map[string]string, opts ...DownloadOption) (any, error) {
	var cfg downloadConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	bases := d.opts.BaseURLs()
	if cfg.finalURL {
		bases = []string{""}
	}

	var (
		tried   []string
		lastErr error
	)
	for _, base := range bases {
		u, err := ResolveURL(base, endpoint, params)
		if err != nil {
			lastErr = err
			continue
		}
		tried = append(tried, u)
		key := Key(u)
		log := d.log.WithFields(logrus.Fields{
			logging.FieldURL:      redact(u),
			logging.FieldCacheKey: key,
		})

		if !cfg.noCache {
			v, err := d.cache.Get(ctx, key)
			if err == nil {
				d.metrics.CacheLookup(metrics.CacheHit)
				log.Debug("Serving from cache")
				return v, nil
			}
			if !errors.Is(err, cache.ErrNotFound) {
				log.WithError(err).Warn("Cache lookup failed")
			}
			d.metrics.CacheLookup(metrics.CacheMiss)
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("download of %s interrupted: %w", redact(u), ctxErr)
		}

		// the flight outlives the caller that started it
		flight := d.group.DoChan(key, func() (any, error) {
			fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.Timeout)
			defer cancel()

			v, err := d.fetch(fctx, u, decode)
			if err != nil {
				return nil, err
			}
			if !cfg.noCache {
				if err := d.cache.Set(fctx, key, v); err != nil {
					log.WithError(err).Warn("Failed to store downloaded value")
				}
			}
			return v, nil
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("download of %s interrupted: %w", redact(u), ctx.Err())
		case res = <-flight:
		}

		v, err := res.Val, res.Err
		if err == nil {
			if res.Shared {
				v = cache.ShallowCopy(v)
			}
			return v, nil
		}

		var decodeErr *domain.DecodeError
		if errors.As(err, &decodeErr) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("download of %s interrupted: %w", redact(u), ctxErr)
		}
		log.WithError(err).Warn("Failed to download, trying next mirror")
		lastErr = err
	}

	return nil, domain.NewTransportError(redactAll(tried), lastErr)
}

// fetch downloads u through its mirror's breaker and decodes the body
func (d *Downloader) fetch(ctx context.Context, u string, decode Decoder) (any, error) {
	mirror := hostOf(u)

	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limit wait failed: %w", err)
		}
	}

	body, err := d.breaker(mirror).Execute(func() (interface{}, error) {
		return d.get(ctx, u)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			d.metrics.Download(mirror, metrics.OutcomeBreakerOpen)
		}
		return nil, err
	}

	v, err := decode(bytes.NewReader(body.([]byte)))
	if err != nil {
		d.metrics.Download(mirror, metrics.OutcomeDecode)
		return nil, domain.NewDecodeError(redact(u), err)
	}
	d.metrics.Download(mirror, metrics.OutcomeOK)
	return v, nil
}

// statusError is a non-2xx response that survived the retries
type statusError struct {
	Status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected HTTP status %d", e.Status)
}

// get performs the GET and reads the body in chunks
func (d *Downloader) get(ctx context.Context, u string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, d.opts.Timeout)
	defer cancel()

	mirror := hostOf(u)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	start := time.Now()
	resp, err := d.client.Do(req)
	if err != nil {
		d.metrics.Download(mirror, metrics.OutcomeTransport)
		return nil, fmt.Errorf("failed to GET %s: %w", redact(u), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		d.metrics.Download(mirror, metrics.OutcomeStatus)
		return nil, &statusError{Status: resp.StatusCode}
	}

	var buf bytes.Buffer
	chunk := make([]byte, d.opts.ChunkSize)
	var read int64
	for {
		n, err := resp.Body.Read(chunk)
		if n > 0 {
			buf.Write(chunk[:n])
			read += int64(n)
			if d.progress != nil && d.opts.ProgressBar {
				d.progress(read, resp.ContentLength)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			d.metrics.Download(mirror, metrics.OutcomeTransport)
			return nil, fmt.Errorf("failed to read body of %s: %w", redact(u), err)
		}
	}
	d.metrics.Bytes(int(read))

	d.log.WithFields(logrus.Fields{
		logging.FieldURL: redact(u),
		"bytes":          read,
		"duration_ms":    time.Since(start).Milliseconds(),
	}).Debug("Download finished")
	return buf.Bytes(), nil
}

// breaker returns the circuit breaker guarding mirror
func (d *Downloader) breaker(mirror string) *gobreaker.CircuitBreaker {
	d.mu.Lock()
	defer d.mu.Unlock()

	if cb, ok := d.breakers[mirror]; ok {
		return cb
	}
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        mirror,
		MaxRequests: 5,
		Interval:    30 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			d.log.WithFields(logrus.Fields{
				"mirror": name,
				"from":   from.String(),
				"to":     to.String(),
			}).Warn("Mirror circuit breaker changed state")
		},
	})
	d.breakers[mirror] = cb
	return cb
}

// BreakerStates reports the breaker state of every mirror contacted so far
func (d *Downloader) BreakerStates() map[string]gobreaker.State {
	d.mu.Lock()
	defer d.mu.Unlock()

	states := make(map[string]gobreaker.State, len(d.breakers))
	for name, cb := range d.breakers {
		states[name] = cb.State()
	}
	return states
}

// ServerVersion asks the primary server for its version. Any failure, or a
// disabled autoload, yields UnknownVersion.
func (d *Downloader) ServerVersion(ctx context.Context) string {
	if !d.opts.Autoload {
		return UnknownVersion
	}

	probe := New(d.opts.With(func(o *domain.Options) {
		o.NumRetries = 0
		o.Timeout = o.ProbeTimeout
		o.ProgressBar = false
		o.ChunkSize = 1024
		o.FallbackURLs = nil
	}), nil, d.log, WithHTTPTransport(d.transport), WithMetrics(d.metrics))

	v, err := probe.MaybeDownload(ctx, "about", readText, map[string]string{"format": "text"}, WithoutCache())
	if err != nil {
		d.log.WithError(err).Debug("Failed to determine server version")
		return UnknownVersion
	}
	if version := versionPattern.FindString(v.(string)); version != "" {
		return version
	}
	return UnknownVersion
}

func readText(r io.Reader) (any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func hostOf(u string) string {
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "unknown"
	}
	return parsed.Host
}

// redact hides the password query parameter
func redact(u string) string {
	parsed, err := url.Parse(u)
	if err != nil {
		return u
	}
	query := parsed.Query()
	if query.Has("password") {
		query.Set("password", "***")
		parsed.RawQuery = query.Encode()
	}
	return parsed.Redacted()
}

func redactAll(urls []string) []string {
	out := make([]string, len(urls))
	for i, u := range urls {
		out[i] = redact(u)
	}
	return out
}
