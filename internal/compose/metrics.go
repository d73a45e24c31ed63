package compose

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the Prometheus gauges updated by every scan.
type Metrics struct {
	Projects prometheus.Gauge
	Skipped  prometheus.Gauge
}

// NewMetrics registers the index gauges once per process.
//
// Metrics:
//   - composed_projects - projects found by the last scan
//   - composed_skipped_compose_files - compose files skipped by the last scan
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			Projects: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "composed_projects",
				Help: "Number of compose projects found by the last scan",
			}),
			Skipped: promauto.NewGauge(prometheus.GaugeOpts{
				Name: "composed_skipped_compose_files",
				Help: "Number of compose files skipped by the last scan",
			}),
		}
	})
	return globalMetrics
}
