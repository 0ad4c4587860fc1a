package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Transition("finish", nil)
	m.Transition("finish", nil)
	m.Transition("finish", errors.New("tie"))
	m.Advanced(true)
	m.ClientConnected()
	m.ClientConnected()
	m.ClientDisconnected()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("finish", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("finish", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.advancements.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.liveClients))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.Transition("start", nil)
		m.Conflict()
		m.ObserveHTTP("GET", "/", "200", 0.1)
		m.Provisioned(nil)
	})
}
