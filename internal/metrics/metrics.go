// Package metrics exposes Prometheus counters for bridge activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/a2y-d5l/flowbridge"
)

const namespace = "flowbridge"

// Tick results recorded by Tick.
const (
	TickOK     = "ok"
	TickMisuse = "misuse"
	TickError  = "error"
)

// Bridge collects counters for one bridge and its source. It implements
// flowbridge.Metrics.
type Bridge struct {
	ticks       *prometheus.CounterVec
	activations *prometheus.CounterVec
	accepted    prometheus.Counter
	dropped     *prometheus.CounterVec
}

var _ flowbridge.Metrics = (*Bridge)(nil)

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) (*Bridge, error) {
	m := &Bridge{
		ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Ticks triggered on the event source, by result.",
		}, []string{"result"}),
		activations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "activations_total",
			Help:      "Bridge activations, by outcome of the registration.",
		}, []string{"outcome"}),
		accepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_accepted_total",
			Help:      "Values accepted by an activation buffer.",
		}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "values_dropped_total",
			Help:      "Values discarded by an activation buffer, by reason.",
		}, []string{"reason"}),
	}

	for _, c := range []prometheus.Collector{m.ticks, m.activations, m.accepted, m.dropped} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Tick records one tick with the given result.
func (m *Bridge) Tick(result string) {
	m.ticks.WithLabelValues(result).Inc()
}

// ActivationStarted implements flowbridge.Metrics.
func (m *Bridge) ActivationStarted() {
	m.activations.WithLabelValues("started").Inc()
}

// ActivationRejected implements flowbridge.Metrics.
func (m *Bridge) ActivationRejected() {
	m.activations.WithLabelValues("rejected").Inc()
}

// ValueAccepted implements flowbridge.Metrics.
func (m *Bridge) ValueAccepted() {
	m.accepted.Inc()
}

// ValueDropped implements flowbridge.Metrics.
func (m *Bridge) ValueDropped(reason string) {
	m.dropped.WithLabelValues(reason).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
