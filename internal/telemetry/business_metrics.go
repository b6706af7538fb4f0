package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for storefront-level observability.
type BusinessMetrics struct {
	// Catalogue
	Searches            prometheus.Counter
	SuggestionFallbacks prometheus.Counter
	FacetsCacheHits     prometheus.Counter
	FacetsCacheMisses   prometheus.Counter
	FacetsDegraded      prometheus.Counter

	// Cart
	CartItemsAdded   prometheus.Counter
	CartItemsRemoved prometheus.Counter
	CartCleared      prometheus.Counter
	CartSize         prometheus.Gauge

	// Checkout funnel
	CheckoutsStarted   prometheus.Counter
	CheckoutsCompleted prometheus.Counter
	PaymentsAttempted  prometheus.Counter
	PaymentsFailed     prometheus.Counter
}

// NewBusinessMetrics creates and registers business metrics on the given
// registerer. Tests pass a fresh registry to avoid duplicate registration.
func NewBusinessMetrics(reg prometheus.Registerer, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "storefront"
	}
	factory := promauto.With(reg)

	return &BusinessMetrics{
		Searches: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_searches_total",
			Help:      "Catalogue query resolutions requested",
		}),
		SuggestionFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_suggestion_fallbacks_total",
			Help:      "Searches recovered through the suggestion fallback",
		}),
		FacetsCacheHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_facets_cache_hits_total",
			Help:      "Facet requests answered from the TTL cache",
		}),
		FacetsCacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_facets_cache_misses_total",
			Help:      "Facet requests that needed a network call",
		}),
		FacetsDegraded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_facets_degraded_total",
			Help:      "Resolutions that derived facet counts locally",
		}),
		CartItemsAdded: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_added_total",
			Help:      "Line item additions to the cart",
		}),
		CartItemsRemoved: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_items_removed_total",
			Help:      "Line item removals from the cart",
		}),
		CartCleared: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cart_cleared_total",
			Help:      "Times the cart was emptied",
		}),
		CartSize: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cart_total_items",
			Help:      "Current total quantity across cart line items",
		}),
		CheckoutsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_started_total",
			Help:      "Checkout confirmations attempted",
		}),
		CheckoutsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_completed_total",
			Help:      "Checkout confirmations fully paid",
		}),
		PaymentsAttempted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_attempted_total",
			Help:      "Payment creations sent to the payments service",
		}),
		PaymentsFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_failed_total",
			Help:      "Payment creations rejected or failed",
		}),
	}
}
