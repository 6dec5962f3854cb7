package ranking

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/flagquiz/flagquiz-api/internal/rejection"
)

// Metrics counts session and submission outcomes.
type Metrics struct {
	sessionsStarted prometheus.Counter
	accepted        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
}

// NewMetrics registers the ranking counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		sessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flagquiz",
			Subsystem: "session",
			Name:      "tokens_minted_total",
			Help:      "Quiz session tokens issued.",
		}),
		accepted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagquiz",
			Subsystem: "ranking",
			Name:      "submissions_accepted_total",
			Help:      "Score submissions stored on the ranking boards.",
		}, []string{"format"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flagquiz",
			Subsystem: "ranking",
			Name:      "submissions_rejected_total",
			Help:      "Score submissions refused by anti-fraud checks, by rejection code and class.",
		}, []string{"code", "class"}),
	}
	if reg != nil {
		reg.MustRegister(m.sessionsStarted, m.accepted, m.rejected)
	}
	return m
}

func (m *Metrics) sessionStarted() {
	if m == nil {
		return
	}
	m.sessionsStarted.Inc()
}

func (m *Metrics) submissionAccepted(format string) {
	if m == nil {
		return
	}
	m.accepted.WithLabelValues(format).Inc()
}

func (m *Metrics) submissionRejected(r *rejection.Rejection) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(string(r.Code), string(r.Class())).Inc()
}
