package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorObservations(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg)

	c.ObserveGenerate("anthropic", "final", 2, 150*time.Millisecond)
	c.ObserveGenerate("anthropic", "error", 1, 20*time.Millisecond)
	c.ObserveDispatch("css_query")
	c.ObserveDispatch("css_query")
	c.ObserveFailure("timeout")

	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.generateTotal.WithLabelValues("anthropic", "final")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.generateTotal.WithLabelValues("anthropic", "error")))
	assert.Equal(t, float64(2),
		testutil.ToFloat64(c.toolDispatches.WithLabelValues("css_query")))
	assert.Equal(t, float64(1),
		testutil.ToFloat64(c.failures.WithLabelValues("timeout")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["test_generate_requests_total"])
	assert.True(t, names["test_generate_duration_seconds"])
	assert.True(t, names["test_request_rounds"])
}

func TestCollectorSeparateRegistries(t *testing.T) {
	// Two collectors must be able to coexist on independent registries.
	a := NewCollector("a", prometheus.NewRegistry())
	b := NewCollector("b", prometheus.NewRegistry())
	a.ObserveDispatch("xpath_query")
	b.ObserveDispatch("xpath_query")
	assert.Equal(t, float64(1), testutil.ToFloat64(a.toolDispatches.WithLabelValues("xpath_query")))
}
