// =============================================================================
// PURPOSE: Prometheus instrumentation for payroll submission
// =============================================================================
//
// Metrics implements ledger.Recorder so the submitter can report per-check
// outcomes and ledger latency without importing prometheus. Runs are counted
// by final status from the runner.
//
// SEE ALSO:
//   - ledger/submitter.go: Recorder interface and outcome labels
//   - runner/runner.go: run status reporting
// =============================================================================
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	checks        *prometheus.CounterVec
	ledgerLatency prometheus.Histogram
	runs          *prometheus.CounterVec
	draftsBuilt   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the payroll collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers collectors on the given registerer and serves
// them from the given gatherer.
func NewWithRegistry(registerer prometheus.Registerer, gatherer prometheus.Gatherer) *Metrics {
	checks := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_checks_total",
		Help: "Counts check submissions by outcome.",
	}, []string{"outcome"})

	ledgerLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payroll_ledger_create_check_seconds",
		Help:    "Latency of check creation calls to the ledger.",
		Buckets: prometheus.DefBuckets,
	})

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_runs_total",
		Help: "Counts payroll runs by final status.",
	}, []string{"status"})

	draftsBuilt := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "payroll_drafts_built_total",
		Help: "Counts check drafts produced for preview or submission.",
	})

	registerer.MustRegister(checks, ledgerLatency, runs, draftsBuilt)

	return &Metrics{
		checks:        checks,
		ledgerLatency: ledgerLatency,
		runs:          runs,
		draftsBuilt:   draftsBuilt,
		gatherer:      gatherer,
	}
}

func (m *Metrics) CheckOutcome(outcome string) {
	if m == nil {
		return
	}
	m.checks.WithLabelValues(outcome).Inc()
}

func (m *Metrics) CheckLatency(elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ledgerLatency.Observe(elapsed.Seconds())
}

func (m *Metrics) RunFinished(status string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(status).Inc()
}

func (m *Metrics) DraftsBuilt(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.draftsBuilt.Add(float64(n))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
