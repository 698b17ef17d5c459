// Package metrics provides Prometheus metrics for the completion
// reconciliation batch.
package metrics

import (
	"fmt"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for one batch process.
type Manager struct {
	namespace    string
	subsystem    string
	enabled      bool
	customLabels map[string]string
	registry     prometheus.Registerer
	gatherer     prometheus.Gatherer

	// Pipeline volume metrics
	rowsRead     *prometheus.CounterVec
	rowsDropped  *prometheus.CounterVec
	rowsInScope  *prometheus.CounterVec
	rowsAccepted *prometheus.CounterVec
	rowsInserted *prometheus.CounterVec

	// Identity resolution
	identitiesResolved prometheus.Counter
	resolutionMisses   prometheus.Counter

	// Run health
	stepErrors  *prometheus.CounterVec
	runDuration prometheus.Gauge
	runsTotal   *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

// Initialize global metrics.
func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:    "tracorp",
		subsystem:    "reconcile",
		enabled:      true,
		customLabels: make(map[string]string),
		registry:     prometheus.DefaultRegisterer,
		gatherer:     prometheus.DefaultGatherer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

// initializeMetrics creates all the Prometheus metrics.
func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.rowsRead = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_read_total",
		Help:      "Raw rows read from each input feed",
	}, []string{"source"})

	m.rowsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_dropped_total",
		Help:      "Rows dropped during normalization, by reason",
	}, []string{"source", "reason"})

	m.rowsInScope = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_in_scope_total",
		Help:      "Rows surviving the active-activity filter",
	}, []string{"source"})

	m.rowsAccepted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_accepted_total",
		Help:      "Rows accepted as new completions after the ledger anti-join",
	}, []string{"source"})

	m.rowsInserted = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "rows_inserted_total",
		Help:      "Rows written to warehouse tables",
	}, []string{"table"})

	m.identitiesResolved = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "identities_resolved_total",
		Help:      "Staged identities resolved to roster email addresses",
	})

	m.resolutionMisses = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "resolution_misses_total",
		Help:      "Staged identities with no roster match (retained as-is)",
	})

	m.stepErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "step_errors_total",
		Help:      "Fatal step errors by pipeline step",
	}, []string{"step"})

	m.runDuration = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "run_duration_seconds",
		Help:      "Wall-clock duration of the last run",
	})

	m.runsTotal = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "runs_total",
		Help:      "Completed runs by outcome",
	}, []string{"outcome"})
}

// RecordRowsRead records raw rows read from a feed.
func RecordRowsRead(source string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rowsRead.WithLabelValues(source).Add(float64(n))
}

// RecordRowsDropped records rows dropped during normalization.
func RecordRowsDropped(source, reason string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rowsDropped.WithLabelValues(source, reason).Add(float64(n))
}

// RecordRowsInScope records rows surviving the active-activity filter.
func RecordRowsInScope(source string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rowsInScope.WithLabelValues(source).Add(float64(n))
}

// RecordRowsAccepted records rows accepted after the ledger anti-join.
func RecordRowsAccepted(source string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rowsAccepted.WithLabelValues(source).Add(float64(n))
}

// RecordRowsInserted records rows written to a warehouse table.
func RecordRowsInserted(table string, n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.rowsInserted.WithLabelValues(table).Add(float64(n))
}

// RecordIdentitiesResolved records roster resolutions.
func RecordIdentitiesResolved(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.identitiesResolved.Add(float64(n))
}

// RecordResolutionMisses records roster misses.
func RecordResolutionMisses(n int) {
	if !globalManager.enabled {
		return
	}
	globalManager.resolutionMisses.Add(float64(n))
}

// RecordStepError records a fatal error in a pipeline step.
func RecordStepError(step string) {
	if !globalManager.enabled {
		return
	}
	globalManager.stepErrors.WithLabelValues(step).Inc()
}

// RecordRunDuration records the wall-clock duration of the run.
func RecordRunDuration(d time.Duration) {
	if !globalManager.enabled {
		return
	}
	globalManager.runDuration.Set(d.Seconds())
}

// RecordRunOutcome records a completed run ("success" or "failure").
func RecordRunOutcome(outcome string) {
	if !globalManager.enabled {
		return
	}
	globalManager.runsTotal.WithLabelValues(outcome).Inc()
}

// Snapshot gathers the current metric values as "name{labels}=value" lines,
// sorted for stable output. The batch exposes no scrape endpoint, so the run
// summary logs this snapshot instead.
func Snapshot() ([]string, error) {
	families, err := globalManager.gatherer.Gather()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGatherFailed, err)
	}

	var lines []string
	for _, fam := range families {
		for _, metric := range fam.GetMetric() {
			labels := ""
			for _, lp := range metric.GetLabel() {
				if labels != "" {
					labels += ","
				}
				labels += lp.GetName() + "=" + lp.GetValue()
			}
			var value float64
			switch {
			case metric.GetCounter() != nil:
				value = metric.GetCounter().GetValue()
			case metric.GetGauge() != nil:
				value = metric.GetGauge().GetValue()
			default:
				continue
			}
			name := fam.GetName()
			if labels != "" {
				name += "{" + labels + "}"
			}
			lines = append(lines, fmt.Sprintf("%s=%g", name, value))
		}
	}
	sort.Strings(lines)
	return lines, nil
}

// Reset replaces the global manager and backing registry. Intended for tests.
func Reset() {
	customRegistry = prometheus.NewRegistry()
	globalManager = NewManager(WithPrometheusRegistry(customRegistry))
}
