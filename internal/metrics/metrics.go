package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the quiz service's Prometheus collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	QuestionsLoaded   *prometheus.CounterVec
	AnswersSubmitted  *prometheus.CounterVec
	SessionsCompleted *prometheus.CounterVec
	RemoteFailures    *prometheus.CounterVec
	ActiveConnections prometheus.Gauge
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		QuestionsLoaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Name:      "questions_loaded_total",
				Help:      "Questions served to quiz sessions",
			},
			[]string{"mode"},
		),
		AnswersSubmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Name:      "answers_submitted_total",
				Help:      "Answers submitted, by result",
			},
			[]string{"result"},
		),
		SessionsCompleted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Name:      "sessions_completed_total",
				Help:      "Completed quiz sessions, by where the stats came from",
			},
			[]string{"source"},
		),
		RemoteFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "quiz",
				Name:      "remote_failures_total",
				Help:      "Failed calls to question, session, status or profile stores",
			},
			[]string{"operation"},
		),
		ActiveConnections: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "quiz",
				Name:      "ws_connections",
				Help:      "Open quiz websocket connections",
			},
		),
	}
}

func (m *Metrics) ObserveQuestionsLoaded(mode string, n int) {
	if m == nil {
		return
	}
	m.QuestionsLoaded.WithLabelValues(mode).Add(float64(n))
}

func (m *Metrics) ObserveAnswer(correct bool) {
	if m == nil {
		return
	}
	result := "incorrect"
	if correct {
		result = "correct"
	}
	m.AnswersSubmitted.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveCompletion(source string) {
	if m == nil {
		return
	}
	m.SessionsCompleted.WithLabelValues(source).Inc()
}

func (m *Metrics) ObserveRemoteFailure(operation string) {
	if m == nil {
		return
	}
	m.RemoteFailures.WithLabelValues(operation).Inc()
}

// ConnectionOpened bumps the websocket gauge and returns the matching decrement.
func (m *Metrics) ConnectionOpened() func() {
	if m == nil {
		return func() {}
	}
	m.ActiveConnections.Inc()
	return m.ActiveConnections.Dec
}
