package metrics

import "github.com/prometheus/client_golang/prometheus"

// OrderMetrics counts order workflow outcomes.
type OrderMetrics struct {
	created      *prometheus.CounterVec
	transitions  *prometheus.CounterVec
	stockFailure prometheus.Counter
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "orders_created_total",
		Help:      "Orders created, by order type and initial status.",
	}, []string{"order_type", "status"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_transitions_total",
		Help:      "Order status transitions, by source and target status.",
	}, []string{"from", "to"})
	stockFailure := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "order_stock_reservation_failures_total",
		Help:      "Order creations rejected because a conditional stock decrement matched no row.",
	})
	reg.MustRegister(created, transitions, stockFailure)
	return &OrderMetrics{
		created:      created,
		transitions:  transitions,
		stockFailure: stockFailure,
	}
}

func (m *OrderMetrics) IncCreated(orderType, status string) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(normalizeLabel(orderType), normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) IncTransition(from, to string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to)).Inc()
}

func (m *OrderMetrics) IncStockReservationFailure() {
	if m == nil || m.stockFailure == nil {
		return
	}
	m.stockFailure.Inc()
}
