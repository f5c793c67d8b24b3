package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/omnipath-client/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps the user's own config files and environment out of the test
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{"URL", "TIMEOUT", "NUM_RETRIES", "CACHE", "LICENSE", "PASSWORD", "FALLBACK_URLS", "CHUNK_SIZE", "LOGGING_LEVEL"} {
		t.Setenv(EnvPrefix+"_"+key, "")
		os.Unsetenv(EnvPrefix + "_" + key)
	}
	return home
}

func TestNewManager_Defaults(t *testing.T) {
	isolate(t)

	m, err := NewManager("")
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, domain.DefaultURL, opts.URL)
	assert.Equal(t, 3, opts.NumRetries)
	assert.Equal(t, 600*time.Second, opts.Timeout)
	assert.Equal(t, 8196, opts.ChunkSize)
	assert.True(t, opts.Autoload)
	assert.True(t, opts.ConvertDtypes)
	assert.Empty(t, opts.FallbackURLs)
	assert.Equal(t, "info", opts.Logging.Level)
}

func TestNewManager_EnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("OMNIPATH_URL", "https://mirror.example.org")
	t.Setenv("OMNIPATH_TIMEOUT", "30s")
	t.Setenv("OMNIPATH_NUM_RETRIES", "0")
	t.Setenv("OMNIPATH_LICENSE", "academic")
	t.Setenv("OMNIPATH_LOGGING_LEVEL", "debug")

	m, err := NewManager("")
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, "https://mirror.example.org", opts.URL)
	assert.Equal(t, 30*time.Second, opts.Timeout)
	assert.Equal(t, 0, opts.NumRetries)
	assert.Equal(t, "academic", opts.License)
	assert.Equal(t, "debug", opts.Logging.Level)
}

func TestNewManager_ConfigFile(t *testing.T) {
	home := isolate(t)
	path := filepath.Join(home, "omnipath.yaml")
	content := `
url: https://primary.example.org
fallback_urls:
  - https://mirror-a.example.org
  - https://mirror-b.example.org
cache: memory
chunk_size: 1024
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	m, err := NewManager(path)
	require.NoError(t, err)

	opts := m.Options()
	assert.Equal(t, "https://primary.example.org", opts.URL)
	assert.Equal(t, []string{"https://mirror-a.example.org", "https://mirror-b.example.org"}, opts.FallbackURLs)
	assert.Equal(t, "memory", opts.Cache)
	assert.Equal(t, 1024, opts.ChunkSize)
	assert.Equal(t, path, m.ConfigFileUsed())
}

func TestNewManager_InvalidValuesFailAtConstruction(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		value string
		field string
	}{
		{"invalid url", "OMNIPATH_URL", "omnipathdb", "url"},
		{"negative retries", "OMNIPATH_NUM_RETRIES", "-1", "num_retries"},
		{"non-positive chunk size", "OMNIPATH_CHUNK_SIZE", "0", "chunk_size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.env, tt.value)

			_, err := NewManager("")
			require.Error(t, err)

			var cfgErr *domain.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, tt.field, cfgErr.Field)
		})
	}
}

func TestManager_Override(t *testing.T) {
	isolate(t)

	m, err := NewManager("")
	require.NoError(t, err)

	require.NoError(t, m.Override("cache", "none"))
	assert.Equal(t, "none", m.Options().Cache)

	err = m.Override("timeout", "-5s")
	assert.Error(t, err)
}

func TestManager_WriteOmitsPassword(t *testing.T) {
	home := isolate(t)
	t.Setenv("OMNIPATH_PASSWORD", "s3cret")

	m, err := NewManager("")
	require.NoError(t, err)
	assert.Equal(t, "s3cret", m.Options().Password)

	path := filepath.Join(home, "out", "omnipath.yaml")
	require.NoError(t, m.Write(path))

	written, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(written), "s3cret")
	assert.Contains(t, string(written), "omnipathdb.org")

	os.Unsetenv("OMNIPATH_PASSWORD")
	reloaded, err := NewManager(path)
	require.NoError(t, err)
	assert.Equal(t, m.Options().URL, reloaded.Options().URL)
	assert.Equal(t, m.Options().ChunkSize, reloaded.Options().ChunkSize)
}
