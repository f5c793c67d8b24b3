package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/omnipath-client/internal/domain"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by the manager
const EnvPrefix = "OMNIPATH"

// Manager loads client options from defaults, a config file and the environment using Viper
type Manager struct {
	v       *viper.Viper
	options domain.Options
}

// NewManager creates a new configuration manager.
// configFile may be empty, in which case the default search paths are used
// and a missing file is not an error.
func NewManager(configFile string) (*Manager, error) {
	m := &Manager{v: viper.New()}
	if err := m.loadConfig(configFile); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// loadConfig loads configuration from various sources
func (m *Manager) loadConfig(configFile string) error {
	if configFile != "" {
		m.v.SetConfigFile(configFile)
	} else {
		m.v.SetConfigName("omnipath")
		m.v.SetConfigType("yaml")
		m.v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			m.v.AddConfigPath(filepath.Join(home, ".config", "omnipath"))
		}
		m.v.AddConfigPath("/etc/omnipath/")
	}

	m.v.SetEnvPrefix(EnvPrefix)
	m.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.v.AutomaticEnv()

	m.setDefaults()

	if err := m.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return m.unmarshal()
}

func (m *Manager) unmarshal() error {
	options := domain.Options{}
	if err := m.v.Unmarshal(&options); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}
	m.options = options
	return nil
}

// setDefaults sets default configuration values
func (m *Manager) setDefaults() {
	defaults := domain.DefaultOptions()

	m.v.SetDefault("url", defaults.URL)
	m.v.SetDefault("fallback_urls", []string{})
	m.v.SetDefault("license", "")
	m.v.SetDefault("password", "")
	m.v.SetDefault("cache", defaults.Cache)
	m.v.SetDefault("cache_size", defaults.CacheSize)
	m.v.SetDefault("autoload", defaults.Autoload)
	m.v.SetDefault("convert_dtypes", defaults.ConvertDtypes)
	m.v.SetDefault("num_retries", defaults.NumRetries)
	m.v.SetDefault("timeout", defaults.Timeout)
	m.v.SetDefault("probe_timeout", defaults.ProbeTimeout)
	m.v.SetDefault("chunk_size", defaults.ChunkSize)
	m.v.SetDefault("progress_bar", defaults.ProgressBar)
	m.v.SetDefault("rate_limit", defaults.RateLimit)

	// Logging defaults
	m.v.SetDefault("logging.level", defaults.Logging.Level)
	m.v.SetDefault("logging.format", defaults.Logging.Format)
}

// Options returns a copy of the loaded options
func (m *Manager) Options() domain.Options {
	return m.options.With()
}

// Override sets a key with the highest precedence and re-validates.
// Used for command line flags.
func (m *Manager) Override(key string, value interface{}) error {
	m.v.Set(key, value)
	if err := m.unmarshal(); err != nil {
		return err
	}
	return m.Validate()
}

// ConfigFileUsed returns the path of the loaded config file, if any
func (m *Manager) ConfigFileUsed() string {
	return m.v.ConfigFileUsed()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	return m.options.Validate()
}

// Write persists the current options to path. The password is never written.
func (m *Manager) Write(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	out := viper.New()
	for _, key := range m.v.AllKeys() {
		if key == "password" {
			continue
		}
		out.Set(key, m.v.Get(key))
	}

	if err := out.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config to %s: %w", path, err)
	}
	return nil
}

// DefaultConfigPath returns the per-user config file location
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "omnipath.yaml"
	}
	return filepath.Join(home, ".config", "omnipath", "omnipath.yaml")
}
