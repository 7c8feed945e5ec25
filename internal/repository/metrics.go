package repository

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// StoreOperationLatency records document store latency by driver, collection and operation.
var StoreOperationLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "thoughtnet_store_operation_duration_seconds",
	Help:    "Document store operation latency in seconds",
	Buckets: prometheus.DefBuckets,
}, []string{"driver", "collection", "operation"})

// track returns a function that records the latency of one operation when called (e.g. defer).
func track(driver, collection, operation string) func() {
	start := time.Now()
	return func() {
		StoreOperationLatency.WithLabelValues(driver, collection, operation).Observe(time.Since(start).Seconds())
	}
}
