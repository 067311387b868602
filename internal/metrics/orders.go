package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// OrderMetrics records order lifecycle events.
type OrderMetrics struct {
	created     prometheus.Counter
	value       prometheus.Histogram
	transitions *prometheus.CounterVec
	failures    *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "orders_created_total",
		Help: "Orders successfully placed.",
	})
	value := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_total_amount",
		Help:    "Distribution of placed order totals.",
		Buckets: []float64{10, 25, 50, 100, 200, 500, 1000},
	})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_status_transitions_total",
		Help: "Order status changes by source and target status.",
	}, []string{"from", "to"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_operation_failures_total",
		Help: "Rejected or failed order operations.",
	}, []string{"operation", "kind"})
	reg.MustRegister(created, value, transitions, failures)
	return &OrderMetrics{
		created:     created,
		value:       value,
		transitions: transitions,
		failures:    failures,
	}
}

// OrderCreated counts a placed order and observes its total.
func (m *OrderMetrics) OrderCreated(total float64) {
	if m == nil || m.created == nil {
		return
	}
	m.created.Inc()
	m.value.Observe(total)
}

// StatusChanged counts a status transition.
func (m *OrderMetrics) StatusChanged(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

// Failed counts a failed operation by error kind.
func (m *OrderMetrics) Failed(operation, kind string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(operation), normalizeLabel(kind)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
