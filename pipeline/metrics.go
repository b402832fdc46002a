package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/smallnest/trendreport/graph"
	"github.com/smallnest/trendreport/report"
	"github.com/smallnest/trendreport/state"
)

// Metrics are the run's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	Registry *prometheus.Registry

	// stageDuration measures each stage from start to merged update.
	// Labels: stage
	stageDuration *prometheus.HistogramVec

	// stageOutcomes counts finished stages.
	// Labels: stage, outcome (ok, error)
	stageOutcomes *prometheus.CounterVec

	// fallbacks counts recovered collaborator failures.
	// Labels: stage, kind
	fallbacks *prometheus.CounterVec

	// exports counts export outcomes.
	// Labels: state (succeeded, degraded, not_started)
	exports *prometheus.CounterVec

	mu      sync.Mutex
	started map[string]time.Time
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		Registry: reg,
		stageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "trendreport",
			Subsystem: "stage",
			Name:      "duration_seconds",
			Help:      "Stage duration in seconds",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"stage"}),
		stageOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trendreport",
			Subsystem: "stage",
			Name:      "outcomes_total",
			Help:      "Finished stages by outcome",
		}, []string{"stage", "outcome"}),
		fallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trendreport",
			Subsystem: "stage",
			Name:      "fallbacks_total",
			Help:      "Collaborator failures recovered with fallback content",
		}, []string{"stage", "kind"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "trendreport",
			Subsystem: "export",
			Name:      "results_total",
			Help:      "Export results by final state",
		}, []string{"state"}),
		started: make(map[string]time.Time),
	}
}

// OnNodeEvent implements graph.NodeListener.
func (m *Metrics) OnNodeEvent(_ context.Context, event graph.NodeEvent, name string, _ state.RunState, _ error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	switch event {
	case graph.NodeEventStart:
		m.started[name] = time.Now()
	case graph.NodeEventComplete, graph.NodeEventError:
		outcome := "ok"
		if event == graph.NodeEventError {
			outcome = "error"
		}
		m.stageOutcomes.WithLabelValues(name, outcome).Inc()
		if t, ok := m.started[name]; ok {
			m.stageDuration.WithLabelValues(name).Observe(time.Since(t).Seconds())
			delete(m.started, name)
		}
	}
}

func (m *Metrics) fallback(stage string, kind state.ErrorKind) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(stage, string(kind)).Inc()
}

func (m *Metrics) exported(s report.ExportState) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(string(s)).Inc()
}

// WriteTextfile writes the metrics in the text exposition format for the
// node exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.Registry)
}
