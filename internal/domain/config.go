package domain

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Default option values
const (
	DefaultURL          = "https://omnipathdb.org"
	DefaultNumRetries   = 3
	DefaultTimeout      = 600 * time.Second
	DefaultProbeTimeout = 3 * time.Second
	DefaultChunkSize    = 8196
	DefaultCacheSize    = 1000
)

// Options represents the client configuration consumed by the downloader,
// the query registry and the request pipeline
type Options struct {
	URL           string        `mapstructure:"url" yaml:"url"`
	FallbackURLs  []string      `mapstructure:"fallback_urls" yaml:"fallback_urls"`
	License       string        `mapstructure:"license" yaml:"license"`
	Password      string        `mapstructure:"password" yaml:"-"`
	Cache         string        `mapstructure:"cache" yaml:"cache"`
	CacheSize     int           `mapstructure:"cache_size" yaml:"cache_size"`
	Autoload      bool          `mapstructure:"autoload" yaml:"autoload"`
	ConvertDtypes bool          `mapstructure:"convert_dtypes" yaml:"convert_dtypes"`
	NumRetries    int           `mapstructure:"num_retries" yaml:"num_retries"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	ProbeTimeout  time.Duration `mapstructure:"probe_timeout" yaml:"probe_timeout"`
	ChunkSize     int           `mapstructure:"chunk_size" yaml:"chunk_size"`
	ProgressBar   bool          `mapstructure:"progress_bar" yaml:"progress_bar"`
	RateLimit     float64       `mapstructure:"rate_limit" yaml:"rate_limit"` // requests per second, 0 = unlimited
	Logging       LoggingConfig `mapstructure:"logging" yaml:"logging"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultCacheDir returns the directory used by the file cache when nothing is configured
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "omnipathdb")
	}
	return filepath.Join(home, ".cache", "omnipathdb")
}

// DefaultOptions returns options populated with the package defaults
func DefaultOptions() Options {
	return Options{
		URL:           DefaultURL,
		Cache:         DefaultCacheDir(),
		CacheSize:     DefaultCacheSize,
		Autoload:      true,
		ConvertDtypes: true,
		NumRetries:    DefaultNumRetries,
		Timeout:       DefaultTimeout,
		ProbeTimeout:  DefaultProbeTimeout,
		ChunkSize:     DefaultChunkSize,
		ProgressBar:   true,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Validate checks the options and returns a *ConfigError on the first problem
func (o Options) Validate() error {
	if err := validateURL("url", o.URL); err != nil {
		return err
	}
	for _, u := range o.FallbackURLs {
		if err := validateURL("fallback_urls", u); err != nil {
			return err
		}
	}
	if o.License != "" {
		if _, err := ParseLicense(o.License); err != nil {
			return NewConfigError("license", err.Error(), o.License)
		}
	}
	if o.NumRetries < 0 {
		return NewConfigError("num_retries", "expected to be non-negative", o.NumRetries)
	}
	if o.Timeout <= 0 {
		return NewConfigError("timeout", "expected to be positive", o.Timeout)
	}
	if o.ProbeTimeout <= 0 {
		return NewConfigError("probe_timeout", "expected to be positive", o.ProbeTimeout)
	}
	if o.ChunkSize <= 0 {
		return NewConfigError("chunk_size", "expected to be positive", o.ChunkSize)
	}
	if o.RateLimit < 0 {
		return NewConfigError("rate_limit", "expected to be non-negative", o.RateLimit)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "fatal": true, "panic": true,
	}
	if o.Logging.Level != "" && !validLogLevels[strings.ToLower(o.Logging.Level)] {
		return NewConfigError("logging.level", "unknown log level", o.Logging.Level)
	}
	switch strings.ToLower(o.Logging.Format) {
	case "", "text", "json":
	default:
		return NewConfigError("logging.format", "expected one of text, json", o.Logging.Format)
	}

	return nil
}

// With returns a copy of the options with the overrides applied.
// The receiver is never modified.
func (o Options) With(overrides ...func(*Options)) Options {
	derived := o
	derived.FallbackURLs = append([]string(nil), o.FallbackURLs...)
	for _, override := range overrides {
		override(&derived)
	}
	return derived
}

// BaseURLs returns the primary URL followed by the fallback mirrors
func (o Options) BaseURLs() []string {
	urls := make([]string, 0, len(o.FallbackURLs)+1)
	urls = append(urls, o.URL)
	return append(urls, o.FallbackURLs...)
}

func validateURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return NewConfigError(field, "invalid URL", raw)
	}
	return nil
}
