package metric

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// result: found / empty / invalid / error
	RateLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "shipping",
		Name:      "rate_lookups_total",
		Help:      "Shipping rate resolutions by operation and result",
	}, []string{"operation", "result"})

	RateTableLoadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "storefront",
		Subsystem: "shipping",
		Name:      "rate_table_load_seconds",
		Help:      "Time spent reading the rate table from storage",
		Buckets:   prometheus.DefBuckets,
	})

	CartMutationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "cart",
		Name:      "mutations_total",
		Help:      "Cart mutations by operation and status",
	}, []string{"operation", "status"})

	// result: redeemed / exhausted / released
	DiscountRedemptionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "discount",
		Name:      "redemptions_total",
		Help:      "Discount use-counter operations",
	}, []string{"result"})

	// status: completed / payment_failed / rejected / error
	CheckoutsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "storefront",
		Subsystem: "checkout",
		Name:      "attempts_total",
		Help:      "Checkout attempts by outcome",
	}, []string{"status"})

	RequestMetrics = promauto.NewSummaryVec(prometheus.SummaryOpts{
		Namespace:  "storefront",
		Subsystem:  "http",
		Name:       "request",
		Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
	}, []string{"status"})
)

func ObserveRequest(t time.Duration, status int) {
	RequestMetrics.WithLabelValues(strconv.Itoa(status)).Observe(t.Seconds())
}
