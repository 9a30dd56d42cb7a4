package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// CouponApplyTotal counts coupon application attempts by outcome.
	CouponApplyTotal *prometheus.CounterVec
	// CartMutationsTotal counts cart changes by operation.
	CartMutationsTotal *prometheus.CounterVec
	// CheckoutStepTransitionsTotal counts wizard navigation by source step, direction and outcome.
	CheckoutStepTransitionsTotal *prometheus.CounterVec
	// CheckoutOrdersTotal counts order submissions by outcome.
	CheckoutOrdersTotal *prometheus.CounterVec
	// CheckoutSubmitLatency records the time spent in order submission in milliseconds.
	CheckoutSubmitLatency prometheus.Histogram
	// AccountRegistrationsTotal counts registration attempts by outcome.
	AccountRegistrationsTotal *prometheus.CounterVec
	// AuthDecisionsTotal counts role-gate decisions.
	AuthDecisionsTotal *prometheus.CounterVec
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		CouponApplyTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_coupon_apply_total",
			Help:      "Count of coupon application attempts by outcome.",
		}, []string{"result"}))
		CartMutationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_mutations_total",
			Help:      "Count of cart mutations by operation.",
		}, []string{"op"}))
		CheckoutStepTransitionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_step_transitions_total",
			Help:      "Count of checkout wizard transitions.",
		}, []string{"from", "direction", "result"}))
		CheckoutOrdersTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkout_orders_total",
			Help:      "Count of order submissions by outcome.",
		}, []string{"payment_method", "result"}))
		CheckoutSubmitLatency = register[prometheus.Histogram](reg, prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "checkout_submit_duration_ms",
			Help:      "Latency of order submission in milliseconds.",
			Buckets:   []float64{100, 500, 1000, 2000, 2500, 5000},
		}))
		AccountRegistrationsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_registrations_total",
			Help:      "Count of registration attempts by outcome.",
		}, []string{"result"}))
		AuthDecisionsTotal = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "auth_gate_decisions_total",
			Help:      "Count of role gate decisions by outcome.",
		}, []string{"decision"}))
	})
}

// Inc increments the labelled counter when domain metrics are registered.
func Inc(vec *prometheus.CounterVec, labels ...string) {
	if vec == nil {
		return
	}
	vec.WithLabelValues(labels...).Inc()
}
