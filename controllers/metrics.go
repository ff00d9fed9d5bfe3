package controllers

import (
	"github.com/prometheus/client_golang/prometheus"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	binderyControllerReconcileTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_controller_reconcile_total",
			Help: "Number of reconciliations by controller.",
		},
		[]string{"controller"},
	)
	binderyControllerReconcileErrorTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_controller_reconcile_error_total",
			Help: "Number of reconciliation errors by controller.",
		},
		[]string{"controller"},
	)

	resolverResolutionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bindery_resolver_resolutions_total",
			Help: "Number of resolution runs by outcome.",
		},
		[]string{"outcome"},
	)
	resolverUnsatisfiedOffers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bindery_resolver_unsatisfied_offers",
			Help: "Number of conditional dependencies left inactive in the last resolution.",
		},
	)
	resolverPasses = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bindery_resolver_closure_passes",
			Help:    "Closure passes needed to reach the fixed point.",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)
	resolverResolutionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bindery_resolver_resolution_duration_seconds",
			Help:    "Time taken to resolve an application.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		binderyControllerReconcileTotal,
		binderyControllerReconcileErrorTotal,
		resolverResolutionsTotal,
		resolverUnsatisfiedOffers,
		resolverPasses,
		resolverResolutionDuration,
	)
}
