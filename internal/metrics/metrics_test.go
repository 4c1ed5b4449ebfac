package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ForceSplit("dpr")
	m.ForceSplit("dpr")
	m.ForceSplit("unknown")
	m.NamespaceQueried("legal-national", OutcomeOK, 20*time.Millisecond)
	m.NamespaceQueried("legal-regional", OutcomeTimeout, time.Second)
	m.CacheLookup(true)
	m.StrategyChosen("legal-only")
	m.ProcessorRan("chunker", 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ForceSplits("dpr")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForceSplits("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.NamespaceQueries("legal-regional", OutcomeTimeout)))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.NamespaceQueries("legal-regional", OutcomeOK)))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "urbanlex_chunker_force_splits_total")
	assert.Contains(t, names, "urbanlex_search_namespace_query_duration_seconds")
	assert.Contains(t, names, "urbanlex_pipeline_processor_duration_seconds")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ForceSplit("legge")
		m.ChunkProduced("complete_article")
		m.StrategyChosen("urban-only")
		m.NamespaceQueried("urban-general", OutcomeError, time.Millisecond)
		m.CacheLookup(false)
		m.DocumentIndexed("urban-general", OutcomeOK)
		m.ProcessorRan("segmenter", time.Millisecond)
	})
}

func TestNew_WithoutRegistry(t *testing.T) {
	m := New(nil)
	m.ForceSplit("legge")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ForceSplits("legge")))
}
