package metrics

import (
	"fmt"
	"io"
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// PrometheusCollector exposes a Collector's snapshots as Prometheus metrics.
// Values are computed at scrape time, so it never drifts from the collector.
type PrometheusCollector struct {
	source *Collector

	executions *prometheus.Desc
	retries    *prometheus.Desc
	errors     *prometheus.Desc
	duration   *prometheus.Desc
	avg        *prometheus.Desc
}

// NewPrometheusCollector wraps source for registration with a Prometheus
// registry. namespace prefixes every metric name.
func NewPrometheusCollector(source *Collector, namespace string) *PrometheusCollector {
	return &PrometheusCollector{
		source: source,
		executions: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "node", "executions_total"),
			"Node executions by outcome.",
			[]string{"node", "outcome"}, nil),
		retries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "node", "retries_total"),
			"Node retry attempts.",
			[]string{"node"}, nil),
		errors: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "node", "errors_total"),
			"Node failures by error category.",
			[]string{"node", "category"}, nil),
		duration: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "node", "duration_ms"),
			"Node duration percentiles over the rolling window, in milliseconds.",
			[]string{"node", "quantile"}, nil),
		avg: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "node", "duration_avg_ms"),
			"Mean node duration over the rolling window, in milliseconds.",
			[]string{"node"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (p *PrometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- p.executions
	ch <- p.retries
	ch <- p.errors
	ch <- p.duration
	ch <- p.avg
}

// Collect implements prometheus.Collector.
func (p *PrometheusCollector) Collect(ch chan<- prometheus.Metric) {
	snapshot := p.source.Snapshot()
	nodes := make([]string, 0, len(snapshot))
	for node := range snapshot {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)

	for _, node := range nodes {
		m := snapshot[node]
		ch <- prometheus.MustNewConstMetric(p.executions, prometheus.CounterValue, float64(m.SuccessCount), node, "success")
		ch <- prometheus.MustNewConstMetric(p.executions, prometheus.CounterValue, float64(m.FailureCount), node, "failure")
		ch <- prometheus.MustNewConstMetric(p.retries, prometheus.CounterValue, float64(m.RetryCount), node)

		for _, tally := range []struct {
			category ErrorCategory
			count    int
		}{
			{ErrorTimeout, m.TimeoutErrors},
			{ErrorValidation, m.ValidationErrors},
			{ErrorNetwork, m.NetworkErrors},
			{ErrorOther, m.OtherErrors},
		} {
			ch <- prometheus.MustNewConstMetric(p.errors, prometheus.CounterValue, float64(tally.count), node, string(tally.category))
		}

		if m.P99 == nil {
			continue
		}
		ch <- prometheus.MustNewConstMetric(p.duration, prometheus.GaugeValue, *m.P50, node, "0.5")
		ch <- prometheus.MustNewConstMetric(p.duration, prometheus.GaugeValue, *m.P90, node, "0.9")
		ch <- prometheus.MustNewConstMetric(p.duration, prometheus.GaugeValue, *m.P99, node, "0.99")
		ch <- prometheus.MustNewConstMetric(p.avg, prometheus.GaugeValue, m.AvgExecutionMs, node)
	}
}

// WriteText gathers g and writes it in the Prometheus text exposition format.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("encode metric family %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
