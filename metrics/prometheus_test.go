package metrics

import (
	"bytes"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findMetric(t *testing.T, families []*dto.MetricFamily, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue next
				}
			}
			return m
		}
	}
	t.Fatalf("metric %s %v not found", name, labels)
	return nil
}

func TestPrometheusCollectorCounts(t *testing.T) {
	c := newTestCollector(CollectorConfig{})
	pc := NewPrometheusCollector(c, "storysynth")

	assert.Zero(t, testutil.CollectAndCount(pc), "no nodes, no samples")

	c.RecordRetry("readiness", 1)
	// executions x2, retries x1, errors x4; no duration samples yet.
	assert.Equal(t, 7, testutil.CollectAndCount(pc))

	c.RecordSuccess("seed", 10)
	// plus seven counters and four duration gauges for seed.
	assert.Equal(t, 18, testutil.CollectAndCount(pc))
}

func TestPrometheusCollectorValues(t *testing.T) {
	c := newTestCollector(CollectorConfig{})
	c.RecordSuccess("attack", 100)
	c.RecordFailure("attack", 300, nil, ErrorTimeout)
	c.RecordRetry("attack", 1)

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(NewPrometheusCollector(c, "storysynth")))

	families, err := reg.Gather()
	require.NoError(t, err)

	failures := findMetric(t, families, "storysynth_node_executions_total", map[string]string{"node": "attack", "outcome": "failure"})
	assert.Equal(t, 1.0, failures.GetCounter().GetValue())

	timeouts := findMetric(t, families, "storysynth_node_errors_total", map[string]string{"node": "attack", "category": "timeout"})
	assert.Equal(t, 1.0, timeouts.GetCounter().GetValue())

	retries := findMetric(t, families, "storysynth_node_retries_total", map[string]string{"node": "attack"})
	assert.Equal(t, 1.0, retries.GetCounter().GetValue())

	p99 := findMetric(t, families, "storysynth_node_duration_ms", map[string]string{"node": "attack", "quantile": "0.99"})
	assert.Equal(t, 100.0, p99.GetGauge().GetValue())

	avg := findMetric(t, families, "storysynth_node_duration_avg_ms", map[string]string{"node": "attack"})
	assert.Equal(t, 200.0, avg.GetGauge().GetValue())
}

func TestWriteText(t *testing.T) {
	c := newTestCollector(CollectorConfig{})
	c.RecordSuccess("seed", 42)

	reg := prometheus.NewRegistry()
	reg.MustRegister(NewPrometheusCollector(c, "storysynth"))

	var buf bytes.Buffer
	require.NoError(t, WriteText(&buf, reg))

	out := buf.String()
	assert.Contains(t, out, "# TYPE storysynth_node_executions_total counter")
	assert.Contains(t, out, `storysynth_node_executions_total{node="seed",outcome="success"} 1`)
	assert.Contains(t, out, `storysynth_node_duration_ms{node="seed",quantile="0.5"} 42`)
}
