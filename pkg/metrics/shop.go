package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShopMetrics records cart and checkout activity per catalog.
type ShopMetrics struct {
	cartMutations   *prometheus.CounterVec
	transitions     *prometheus.CounterVec
	confirmDuration *prometheus.HistogramVec
	evictions       prometheus.Counter
}

// NewShopMetrics registers the shop metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewShopMetrics(reg prometheus.Registerer) *ShopMetrics {
	if reg == nil {
		return &ShopMetrics{}
	}
	cartMutations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_cart_mutations_total",
		Help: "Cart mutations applied, by catalog and operation.",
	}, []string{"catalog", "op"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shop_checkout_transitions_total",
		Help: "Checkout state transitions, by catalog and target state.",
	}, []string{"catalog", "state"})
	confirmDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_checkout_confirm_duration_seconds",
		Help:    "Duration of order confirmation calls in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"catalog", "outcome"})
	evictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shop_workspaces_evicted_total",
		Help: "Idle cart workspaces evicted by the janitor.",
	})
	reg.MustRegister(cartMutations, transitions, confirmDuration, evictions)
	return &ShopMetrics{
		cartMutations:   cartMutations,
		transitions:     transitions,
		confirmDuration: confirmDuration,
		evictions:       evictions,
	}
}

func (m *ShopMetrics) IncCartMutation(catalog, op string) {
	if m == nil || m.cartMutations == nil {
		return
	}
	m.cartMutations.WithLabelValues(normalizeLabel(catalog), normalizeLabel(op)).Inc()
}

func (m *ShopMetrics) IncTransition(catalog, state string) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(catalog), normalizeLabel(state)).Inc()
}

// ObserveConfirm records a confirmation call; outcome is "success" or "failure".
func (m *ShopMetrics) ObserveConfirm(catalog, outcome string, duration time.Duration) {
	if m == nil || m.confirmDuration == nil {
		return
	}
	m.confirmDuration.WithLabelValues(normalizeLabel(catalog), normalizeLabel(outcome)).Observe(duration.Seconds())
}

func (m *ShopMetrics) AddEvictions(n int) {
	if m == nil || m.evictions == nil || n <= 0 {
		return
	}
	m.evictions.Add(float64(n))
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
