package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Shop records cart, checkout and HTTP activity. A nil *Shop is valid and
// records nothing.
type Shop struct {
	cartMutations    *prometheus.CounterVec
	checkouts        *prometheus.CounterVec
	checkoutDuration prometheus.Histogram
	checkoutStates   *prometheus.CounterVec
	httpRequests     *prometheus.CounterVec
	httpDuration     *prometheus.HistogramVec
}

// New registers the shop metrics on reg. A nil registerer yields a no-op
// recorder.
func New(reg prometheus.Registerer) *Shop {
	if reg == nil {
		return nil
	}
	s := &Shop{
		cartMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cart_mutations_total",
			Help: "Cart mutations by operation and result code.",
		}, []string{"op", "result"}),
		checkouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkouts_total",
			Help: "Checkout attempts by result code.",
		}, []string{"result"}),
		checkoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "checkout_duration_seconds",
			Help:    "Duration of checkout attempts in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		checkoutStates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "checkout_state_transitions_total",
			Help: "Checkout state machine transitions by target state.",
		}, []string{"to"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(s.cartMutations, s.checkouts, s.checkoutDuration, s.checkoutStates, s.httpRequests, s.httpDuration)
	return s
}

// CartMutation counts one addToCart or deleteFromCart call. result is the
// error code, or "ok".
func (s *Shop) CartMutation(op, result string) {
	if s == nil {
		return
	}
	s.cartMutations.WithLabelValues(normalizeLabel(op), normalizeLabel(result)).Inc()
}

func (s *Shop) Checkout(result string, duration time.Duration) {
	if s == nil {
		return
	}
	s.checkouts.WithLabelValues(normalizeLabel(result)).Inc()
	s.checkoutDuration.Observe(duration.Seconds())
}

func (s *Shop) CheckoutTransition(to string) {
	if s == nil {
		return
	}
	s.checkoutStates.WithLabelValues(normalizeLabel(to)).Inc()
}

func (s *Shop) HTTPRequest(method, route string, status int, duration time.Duration) {
	if s == nil {
		return
	}
	route = normalizeLabel(route)
	s.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	s.httpDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
