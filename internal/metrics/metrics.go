// Package metrics provides Prometheus metrics for the control loop and strip state.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/smazurov/stripnode/internal/events"
	"github.com/smazurov/stripnode/internal/strip"
)

const namespace = "stripnode"

// Subscriber is the part of the event bus metrics listens on.
type Subscriber interface {
	Subscribe(handler any) func()
}

// Metrics holds every collector, registered on one registry.
type Metrics struct {
	requests    *prometheus.CounterVec
	ticks       prometheus.Counter
	frameErrors prometheus.Counter
	connections *prometheus.CounterVec
	power       prometheus.Gauge
	mode        *prometheus.GaugeVec

	unsubscribe []func()
}

// New registers the collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Control requests dispatched, by route and status",
		}, []string{"route", "status"}),
		ticks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Animation ticks run",
		}),
		frameErrors: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frame_write_errors_total",
			Help:      "Frames the strip backend failed to write",
		}),
		connections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Control connections finished, by outcome",
		}, []string{"outcome"}),
		power: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "strip",
			Name:      "power",
			Help:      "1 when the strip is powered on",
		}),
		mode: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "strip",
			Name:      "mode",
			Help:      "1 for the active animation mode, 0 for the others",
		}, []string{"mode"}),
	}
}

// ObserveTick counts a tick and its write failure, if any.
func (m *Metrics) ObserveTick(err error) {
	m.ticks.Inc()
	if err != nil {
		m.frameErrors.Inc()
	}
}

// ObserveConnection counts a finished connection.
func (m *Metrics) ObserveConnection(outcome string) {
	m.connections.WithLabelValues(outcome).Inc()
}

// SetState updates the strip gauges.
func (m *Metrics) SetState(s strip.Snapshot) {
	if s.Power {
		m.power.Set(1)
	} else {
		m.power.Set(0)
	}
	for _, k := range strip.Kinds() {
		v := 0.0
		if k == s.Mode.Kind {
			v = 1
		}
		m.mode.WithLabelValues(k.String()).Set(v)
	}
}

// Subscribe feeds request and state events from bus into the collectors.
func (m *Metrics) Subscribe(bus Subscriber) {
	m.unsubscribe = append(m.unsubscribe,
		bus.Subscribe(func(e events.RequestHandledEvent) {
			m.requests.WithLabelValues(e.Route, strconv.Itoa(e.Status)).Inc()
		}),
		bus.Subscribe(func(e events.StateChangedEvent) {
			m.SetState(e.State)
		}),
	)
}

// Stop drops the bus subscriptions.
func (m *Metrics) Stop() {
	for _, unsub := range m.unsubscribe {
		unsub()
	}
	m.unsubscribe = nil
}
