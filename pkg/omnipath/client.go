// Package omnipath is the entry point of the OmniPath client. A Client owns
// the cache, the downloader and the parameter registry; its request types run
// the download-and-validate pipeline for every endpoint of the web service.
package omnipath

import (
	"context"
	"fmt"
	"sync"

	"github.com/omnipath-client/internal/domain"
	"github.com/omnipath-client/internal/logging"
	"github.com/omnipath-client/pkg/cache"
	"github.com/omnipath-client/pkg/downloader"
	"github.com/omnipath-client/pkg/query"
	"github.com/omnipath-client/pkg/table"
	"github.com/sirupsen/logrus"
)

// Client gives access to the OmniPath endpoints. It is safe for concurrent use.
type Client struct {
	opts       domain.Options
	log        *logrus.Logger
	cache      cache.Cache
	ownCache   bool
	dlOptions  []downloader.Option
	downloader *downloader.Downloader
	registry   *query.Registry

	resMu     sync.Mutex
	resources Resources
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithLogger sets the logger shared by every component
func WithLogger(logger *logrus.Logger) ClientOption {
	return func(c *Client) { c.log = logger }
}

// WithCache uses c instead of opening the cache named by the options
func WithCache(store cache.Cache) ClientOption {
	return func(c *Client) { c.cache = store }
}

// WithDownloaderOptions passes options to the downloader and to the registry probes
func WithDownloaderOptions(options ...downloader.Option) ClientOption {
	return func(c *Client) { c.dlOptions = append(c.dlOptions, options...) }
}

// NewClient validates opts, opens the configured cache and wires the
// downloader and the parameter registry
func NewClient(ctx context.Context, opts domain.Options, options ...ClientOption) (*Client, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}

	c := &Client{opts: opts.With()}
	for _, option := range options {
		option(c)
	}
	c.log = logging.OrDiscard(c.log)

	if c.cache == nil {
		store, err := cache.Open(ctx, c.opts.Cache, c.opts.CacheSize, c.log)
		if err != nil {
			return nil, fmt.Errorf("failed to open cache: %w", err)
		}
		c.cache = store
		c.ownCache = true
	}

	c.downloader = downloader.New(c.opts, c.cache, c.log, c.dlOptions...)
	c.registry = query.NewRegistry(c.opts, c.log, c.dlOptions...)

	c.log.WithFields(logrus.Fields{
		logging.FieldURL:       c.opts.URL,
		logging.FieldCachePath: c.cache.Path(),
		"mirrors":              len(c.opts.FallbackURLs),
	}).Debug("OmniPath client initialized")

	return c, nil
}

// Close releases the cache when the client opened it
func (c *Client) Close() error {
	if !c.ownCache {
		return nil
	}
	return cache.Close(c.cache)
}

// Options returns a copy of the client's configuration
func (c *Client) Options() domain.Options { return c.opts.With() }

// Cache returns the cache shared by all requests
func (c *Client) Cache() cache.Cache { return c.cache }

// Registry returns the parameter registry
func (c *Client) Registry() *query.Registry { return c.registry }

// ServerVersion returns the version reported by the server, or
// downloader.UnknownVersion
func (c *Client) ServerVersion(ctx context.Context) string {
	return c.downloader.ServerVersion(ctx)
}

// ClearCache drops every cached response along with the memoized resources
func (c *Client) ClearCache(ctx context.Context) error {
	c.resMu.Lock()
	c.resources = nil
	c.resMu.Unlock()

	if err := c.cache.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}
	return nil
}

// Request returns the generic request of endpoint: one of the plain endpoints
// or an interactions request over every dataset
func (c *Client) Request(endpoint string) (Getter, error) {
	switch endpoint {
	case query.Annotations:
		return c.Annotations(), nil
	case query.Complexes:
		return c.Complexes(), nil
	case query.Enzsub:
		return c.Enzsub(), nil
	case query.Intercell:
		return c.Intercell(), nil
	case query.Interactions:
		r, err := c.AllInteractions(nil, nil)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
	return nil, domain.NewValidationError("endpoint",
		fmt.Sprintf("unknown endpoint, valid endpoints are `%v`", query.Endpoints), endpoint)
}

// Getter is the behavior shared by every request type
type Getter interface {
	Endpoint() string
	Get(ctx context.Context, params Params) (*table.Table, error)
	Params(ctx context.Context) (map[string]query.Set, error)
	Resources(ctx context.Context) ([]string, error)
}
