package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

const (
	ResultOK    = "ok"
	ResultError = "error"
)

// StorefrontMetrics records basket and checkout activity.
type StorefrontMetrics struct {
	mutations *prometheus.CounterVec
	checkouts *prometheus.CounterVec
	subtotal  prometheus.Histogram
	items     prometheus.Histogram
}

// NewStorefrontMetrics registers the storefront metrics on the provided registerer.
// A nil registerer yields a recorder whose methods are no-ops.
func NewStorefrontMetrics(reg prometheus.Registerer) *StorefrontMetrics {
	if reg == nil {
		return &StorefrontMetrics{}
	}
	mutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "basket_mutations_total",
		Help: "Basket mutations by operation and result.",
	}, []string{"op", "result"})
	checkouts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "checkout_submissions_total",
		Help: "Checkout submissions by outcome code.",
	}, []string{"outcome"})
	subtotal := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_subtotal_kes",
		Help:    "Basket subtotal after each successful mutation.",
		Buckets: []float64{500, 1000, 2500, 5000, 10000, 25000, 50000, 100000},
	})
	items := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "basket_item_count",
		Help:    "Total quantity in the basket after each successful mutation.",
		Buckets: []float64{1, 2, 3, 5, 10, 20, 50},
	})
	reg.MustRegister(mutations, checkouts, subtotal, items)
	return &StorefrontMetrics{
		mutations: mutations,
		checkouts: checkouts,
		subtotal:  subtotal,
		items:     items,
	}
}

// ObserveMutation counts one basket mutation.
func (m *StorefrontMetrics) ObserveMutation(op string, err error) {
	if m == nil || m.mutations == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	m.mutations.WithLabelValues(normalizeLabel(op), result).Inc()
}

// ObserveBasket records the derived totals of a basket snapshot.
func (m *StorefrontMetrics) ObserveBasket(subtotal decimal.Decimal, itemCount int) {
	if m == nil || m.subtotal == nil {
		return
	}
	m.subtotal.Observe(subtotal.InexactFloat64())
	m.items.Observe(float64(itemCount))
}

// ObserveCheckout counts one checkout outcome, e.g. "success" or an error code.
func (m *StorefrontMetrics) ObserveCheckout(outcome string) {
	if m == nil || m.checkouts == nil {
		return
	}
	m.checkouts.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
