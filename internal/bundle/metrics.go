package bundle

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for support bundles.
type Metrics struct {
	BundlesTotal    *prometheus.CounterVec
	BundleSize      prometheus.Histogram
	RedactionsTotal *prometheus.CounterVec
}

// NewMetrics registers the bundle metrics once per process.
//
// Metrics:
//   - composed_bundles_total{result} - bundle builds by outcome
//   - composed_bundle_size_bytes - size of produced archives
//   - composed_bundle_redactions_total{rule} - secrets redacted from logs
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			BundlesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "composed_bundles_total",
					Help: "Total number of support bundle builds",
				},
				[]string{"result"},
			),
			BundleSize: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "composed_bundle_size_bytes",
					Help:    "Size of support bundle archives in bytes",
					Buckets: prometheus.ExponentialBuckets(1024, 4, 10),
				},
			),
			RedactionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "composed_bundle_redactions_total",
					Help: "Total number of secrets redacted from bundled logs",
				},
				[]string{"rule"},
			),
		}
	})
	return globalMetrics
}
