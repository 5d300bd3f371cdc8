package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAnswer(true)
	m.ObserveAnswer(true)
	m.ObserveAnswer(false)
	m.ObserveRemoteFailure("record_answer")
	m.ObserveCompletion("local")
	m.ObserveQuestionsLoaded("test", 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.AnswersSubmitted.WithLabelValues("correct")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AnswersSubmitted.WithLabelValues("incorrect")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RemoteFailures.WithLabelValues("record_answer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SessionsCompleted.WithLabelValues("local")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.QuestionsLoaded.WithLabelValues("test")))

	done := m.ConnectionOpened()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ActiveConnections))
	done()
	assert.Equal(t, 0.0, testutil.ToFloat64(m.ActiveConnections))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveAnswer(true)
	m.ObserveRemoteFailure("x")
	m.ObserveCompletion("remote")
	m.ObserveQuestionsLoaded("practice", 1)
	m.ConnectionOpened()()
}
