package discovery

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomeHit     = "hit"
	outcomeMiss    = "miss"
	outcomeSkipped = "skipped"
)

// Metrics records how each strategy performs. A nil *Metrics is valid and records nothing.
type Metrics struct {
	attempts *prometheus.CounterVec
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics registers the discovery collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bedriftssok",
			Subsystem: "discovery",
			Name:      "strategy_attempts_total",
			Help:      "Phone discovery strategy attempts by outcome.",
		}, []string{"strategy", "outcome"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bedriftssok",
			Subsystem: "discovery",
			Name:      "runs_total",
			Help:      "Completed discovery runs, labelled by whether a phone number was found.",
		}, []string{"found"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "bedriftssok",
			Subsystem: "discovery",
			Name:      "run_duration_seconds",
			Help:      "Wall time of a full discovery run.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 40, 60, 90},
		}),
	}
}

func (m *Metrics) attempt(strategy, outcome string) {
	if m == nil {
		return
	}
	m.attempts.WithLabelValues(strategy, outcome).Inc()
}

func (m *Metrics) run(found bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	label := "false"
	if found {
		label = "true"
	}
	m.runs.WithLabelValues(label).Inc()
	m.duration.Observe(elapsed.Seconds())
}
