package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_Counts(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.Download("https://omnipathdb.org", OutcomeOK)
	c.Download("https://omnipathdb.org", OutcomeOK)
	c.Download("https://mirror.org", OutcomeTransport)
	c.CacheLookup(CacheHit)
	c.Retry()
	c.Bytes(128)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.Downloads().WithLabelValues("https://omnipathdb.org", OutcomeOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Downloads().WithLabelValues("https://mirror.org", OutcomeTransport)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CacheLookups().WithLabelValues(CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Retries()))

	count, err := testutil.GatherAndCount(reg, "omnipath_download_bytes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCollector_DoubleRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.Download("x", OutcomeOK)
		c.CacheLookup(CacheMiss)
		c.Retry()
		c.Bytes(10)
	})
}
