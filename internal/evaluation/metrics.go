package evaluation

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	MetricRunsTotal            = "merit_evaluation_runs_total"
	MetricRunErrorsTotal       = "merit_evaluation_errors_total"
	MetricRunDuration          = "merit_evaluation_duration_seconds"
	MetricInconsistentMatrices = "merit_inconsistent_matrices"
	MetricEigenFallbacksTotal  = "merit_eigen_fallbacks_total"
	MetricLastRunTimestamp     = "merit_last_ranking_timestamp_seconds"
)

// Run kinds used as the "kind" label.
const (
	KindPreview   = "preview"
	KindRecompute = "recompute"
)

const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the evaluation collectors. They are registered separately
// with Register so tests can use a private registry.
type Metrics struct {
	runs           *prometheus.CounterVec
	runErrors      *prometheus.CounterVec
	duration       *prometheus.HistogramVec
	inconsistent   prometheus.Gauge
	eigenFallbacks prometheus.Counter
	lastRun        prometheus.Gauge
}

func NewMetrics() *Metrics {
	return &Metrics{
		runs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunsTotal,
				Help: "Evaluation passes by kind and status",
			},
			[]string{"kind", "status"},
		),
		runErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricRunErrorsTotal,
				Help: "Evaluation failures by stage",
			},
			[]string{"stage"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricRunDuration,
				Help:    "Duration of evaluation passes in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"kind"},
		),
		inconsistent: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricInconsistentMatrices,
			Help: "Comparison matrices not classified consistent in the last pass",
		}),
		eigenFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: MetricEigenFallbacksTotal,
			Help: "Matrices whose eigen solve fell back to row averages",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: MetricLastRunTimestamp,
			Help: "Unix time of the last persisted ranking",
		}),
	}
}

func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.runs, m.runErrors, m.duration, m.inconsistent, m.eigenFallbacks, m.lastRun}
}

func (m *Metrics) ObserveRun(kind, status string, seconds float64) {
	m.runs.WithLabelValues(kind, status).Inc()
	m.duration.WithLabelValues(kind).Observe(seconds)
}

func (m *Metrics) IncError(stage string) {
	m.runErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) SetInconsistent(n int) { m.inconsistent.Set(float64(n)) }

func (m *Metrics) AddEigenFallbacks(n int) { m.eigenFallbacks.Add(float64(n)) }

func (m *Metrics) SetLastRun(unix float64) { m.lastRun.Set(unix) }
