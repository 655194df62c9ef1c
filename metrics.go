package dudect

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics publishes session progress to Prometheus. One Metrics may be
// shared by concurrent sessions; per-session series carry a "source" label.
type Metrics struct {
	rounds       *prometheus.CounterVec
	consumed     *prometheus.CounterVec
	discarded    *prometheus.GaugeVec
	maxT         *prometheus.GaugeVec
	maxTau       *prometheus.GaugeVec
	measurements *prometheus.GaugeVec
	verdicts     *prometheus.CounterVec
}

// NewMetrics registers the session metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		rounds: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dudect",
			Name:      "rounds_total",
			Help:      "Rounds completed, by resulting state.",
		}, []string{"source", "state"}),
		consumed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dudect",
			Name:      "samples_consumed_total",
			Help:      "Samples read from the source.",
		}, []string{"source"}),
		discarded: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dudect",
			Name:      "samples_discarded",
			Help:      "Samples dropped because of a negative (wrapped) timing.",
		}, []string{"source"}),
		maxT: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dudect",
			Name:      "max_t",
			Help:      "Largest |t| among ready tests in the last round.",
		}, []string{"source"}),
		maxTau: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dudect",
			Name:      "max_tau",
			Help:      "max_t normalised by the square root of its sample count.",
		}, []string{"source"}),
		measurements: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "dudect",
			Name:      "winning_test_measurements",
			Help:      "Sample count of the test that produced max_t.",
		}, []string{"source"}),
		verdicts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dudect",
			Name:      "verdicts_total",
			Help:      "Terminal verdicts, by state and severity.",
		}, []string{"state", "severity"}),
	}
}

func (m *Metrics) observe(source string, v Verdict, chunk int, discarded uint64) {
	if m == nil {
		return
	}
	m.rounds.WithLabelValues(source, v.State.String()).Inc()
	m.consumed.WithLabelValues(source).Add(float64(chunk))
	m.discarded.WithLabelValues(source).Set(float64(discarded))
	if v.Test >= 0 {
		m.maxT.WithLabelValues(source).Set(v.MaxT)
		m.maxTau.WithLabelValues(source).Set(v.MaxTau)
		m.measurements.WithLabelValues(source).Set(v.Measurements)
	}
	if v.State.Terminal() {
		m.verdicts.WithLabelValues(v.State.String(), v.Severity.String()).Inc()
	}
}
