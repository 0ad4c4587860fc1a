// Package metrics holds the service's prometheus collectors. A nil *Metrics
// is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "bracket"

type Metrics struct {
	transitions     *prometheus.CounterVec
	advancements    *prometheus.CounterVec
	scheduleShifts  prometheus.Counter
	vetoSteps       *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	conflicts       prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	liveClients prometheus.Gauge
	provisions  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		transitions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "match_transitions_total",
			Help:      "Match lifecycle operations by outcome.",
		}, []string{"op", "result"}),
		advancements: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "advancement_writes_total",
			Help:      "Destination slot writes performed by the advancement resolver.",
		}, []string{"changed"}),
		scheduleShifts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "schedule_shifts_total",
			Help:      "Late starts that pushed back the rest of the schedule.",
		}),
		vetoSteps: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "veto_steps_total",
			Help:      "Veto steps recorded by action.",
		}, []string{"action"}),
		publishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "event_publish_failures_total",
			Help:      "Events that could not be published after commit.",
		}, []string{"topic"}),
		conflicts: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "concurrent_update_conflicts_total",
			Help:      "Compare-and-set writes that lost to a concurrent writer.",
		}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		liveClients: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_clients",
			Help:      "Connected websocket clients.",
		}),
		provisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "provision_requests_total",
			Help:      "Game-server provisioning webhook calls by result.",
		}, []string{"result"}),
	}
}

func (m *Metrics) Transition(op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.transitions.WithLabelValues(op, result).Inc()
}

func (m *Metrics) Advanced(changed bool) {
	if m == nil {
		return
	}
	label := "false"
	if changed {
		label = "true"
	}
	m.advancements.WithLabelValues(label).Inc()
}

func (m *Metrics) ScheduleShifted() {
	if m == nil {
		return
	}
	m.scheduleShifts.Inc()
}

func (m *Metrics) VetoStep(action string) {
	if m == nil {
		return
	}
	m.vetoSteps.WithLabelValues(action).Inc()
}

func (m *Metrics) PublishFailed(topic string) {
	if m == nil {
		return
	}
	m.publishFailures.WithLabelValues(topic).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.conflicts.Inc()
}

func (m *Metrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}

func (m *Metrics) ClientConnected() {
	if m == nil {
		return
	}
	m.liveClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	if m == nil {
		return
	}
	m.liveClients.Dec()
}

func (m *Metrics) Provisioned(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.provisions.WithLabelValues(result).Inc()
}
