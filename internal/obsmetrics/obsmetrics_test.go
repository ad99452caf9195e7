package obsmetrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewScanMetrics(t *testing.T) {
	m := NewScanMetrics()

	assert.NotNil(t, m)
	assert.NotNil(t, m.scansTotal)
	assert.NotNil(t, m.scanDuration)
	assert.NotNil(t, m.ruleResultsTotal)
	assert.NotNil(t, m.forestNodesTotal)
}

func TestNewScanMetrics_Singleton(t *testing.T) {
	a := NewScanMetrics()
	b := NewScanMetrics()
	assert.Same(t, a, b)
}

func TestObserveScan(t *testing.T) {
	m := NewScanMetrics()
	m.ObserveScan(0.01, false)
	m.ObserveScan(0.02, true)
}

func TestObserveForestSize(t *testing.T) {
	m := NewScanMetrics()
	m.ObserveForestSize(42)
}

func TestObserveRuleResult(t *testing.T) {
	m := NewScanMetrics()
	m.ObserveRuleResult("no-telnet", "error", false)
	m.ObserveRuleResult("has-description", "info", true)
}
