package metrics

import (
	"press-subscription/internal/domain/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func init() {
	register(
		subscriptionsCreatedTotal,
		subscriptionsCancelledTotal,
		subscriptionRejectionsTotal,
		subscriptionRevenueTotal,
		subscriptionsTotal,
	)
}

var (
	subscriptionsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "Subscriptions opened, by pricing tier.",
		},
		[]string{"tier"}, // 'monthly', 'yearly'
	)

	subscriptionsCancelledTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscriptions_cancelled_total",
			Help: "Subscriptions cancelled by their owners.",
		},
	)

	subscriptionRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_rejections_total",
			Help: "Subscription requests refused, by reason.",
		},
		[]string{"reason"}, // 'invalid', 'not_found', 'forbidden', 'conflict', 'invalid_state'
	)

	subscriptionRevenueTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "subscription_revenue_total",
			Help: "Sum of prices charged for new subscriptions.",
		},
	)

	subscriptionsTotal = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "subscriptions_total",
			Help: "Current number of subscriptions by status.",
		},
		[]string{"status"}, // 'active', 'expired', 'cancelled'
	)
)

func IncSubscriptionCreated(tier model.PricingTier, price decimal.Decimal) {
	subscriptionsCreatedTotal.WithLabelValues(norm(string(tier))).Inc()
	subscriptionRevenueTotal.Add(price.InexactFloat64())
}

func IncSubscriptionCancelled() {
	subscriptionsCancelledTotal.Inc()
}

func IncSubscriptionRejected(reason string) {
	subscriptionRejectionsTotal.WithLabelValues(norm(reason)).Inc()
}

func SetSubscriptionsTotal(counts map[model.SubscriptionStatus]int) {
	statuses := []model.SubscriptionStatus{
		model.SubscriptionStatusActive,
		model.SubscriptionStatusExpired,
		model.SubscriptionStatusCancelled,
	}
	for _, status := range statuses {
		subscriptionsTotal.WithLabelValues(string(status)).Set(float64(counts[status]))
	}
}
