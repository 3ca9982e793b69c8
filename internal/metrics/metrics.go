package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	OrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tracking_orders_created_total",
		Help: "Total number of orders successfully created.",
	})

	StatusChangesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_status_changes_total",
		Help: "Total number of order status transitions, labeled by the new status.",
	},
		[]string{"status"},
	)

	TrackingLookupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_lookups_total",
		Help: "Total number of public tracking lookups, labeled by outcome.",
	},
		[]string{"result"},
	)

	ImportedOrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_imported_orders_total",
		Help: "Total number of orders seen by the CSV importer, labeled created or skipped.",
	},
		[]string{"outcome"},
	)

	OperationErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_operation_errors_total",
		Help: "Total number of errors encountered during specific operations.",
	},
		[]string{"operation"},
	)

	TrackingCacheHitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tracking_cache_requests_total",
		Help: "Tracking view cache requests, labeled hit or miss.",
	},
		[]string{"result"},
	)
)
