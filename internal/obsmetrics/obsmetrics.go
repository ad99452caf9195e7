// Package obsmetrics exposes Prometheus metrics for gecko scans: how long
// they take and how many rule failures they produce, broken down by level.
package obsmetrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var once sync.Once
var instance *ScanMetrics

// ScanMetrics tracks Prometheus metrics for one gecko process. Construct
// it with NewScanMetrics; the underlying collectors are registered with
// the default registry exactly once regardless of how many times
// NewScanMetrics is called.
type ScanMetrics struct {
	scansTotal     *prometheus.CounterVec
	scanDuration   prometheus.Histogram
	ruleResultsTotal *prometheus.CounterVec
	forestNodesTotal prometheus.Histogram
}

// NewScanMetrics returns the process-wide ScanMetrics singleton,
// registering its collectors with the default Prometheus registry on
// first call.
func NewScanMetrics() *ScanMetrics {
	once.Do(func() {
		instance = &ScanMetrics{
			scansTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gecko_scans_total",
					Help: "Total number of parse+rule-run scans, by outcome.",
				},
				[]string{"outcome"}, // "clean" or "failed"
			),
			scanDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "gecko_scan_duration_seconds",
					Help:    "Duration of a single parse+rule-run scan.",
					Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
				},
			),
			ruleResultsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "gecko_rule_results_total",
					Help: "Total rule invocations, by rule id and level.",
				},
				[]string{"rule_id", "level", "passed"},
			),
			forestNodesTotal: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "gecko_forest_nodes",
					Help:    "Number of ConfigNodes produced by a single parse.",
					Buckets: []float64{10, 50, 100, 500, 1000, 5000, 10000},
				},
			),
		}
	})
	return instance
}

// ObserveScan records the duration and outcome of one scan.
func (m *ScanMetrics) ObserveScan(seconds float64, hadErrors bool) {
	m.scanDuration.Observe(seconds)
	outcome := "clean"
	if hadErrors {
		outcome = "failed"
	}
	m.scansTotal.WithLabelValues(outcome).Inc()
}

// ObserveForestSize records how many nodes one parse produced.
func (m *ScanMetrics) ObserveForestSize(nodeCount int) {
	m.forestNodesTotal.Observe(float64(nodeCount))
}

// ObserveRuleResult records one rule invocation outcome.
func (m *ScanMetrics) ObserveRuleResult(ruleID, level string, passed bool) {
	m.ruleResultsTotal.WithLabelValues(ruleID, level, boolLabel(passed)).Inc()
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
