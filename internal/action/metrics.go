package action

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds Prometheus metrics for compose actions.
type Metrics struct {
	ActionsTotal   *prometheus.CounterVec
	ActionDuration *prometheus.HistogramVec
}

// NewMetrics registers the action metrics once per process.
//
// Metrics:
//   - composed_actions_total{action,result} - compose invocations by outcome
//   - composed_action_duration_seconds{action} - compose invocation latency
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			ActionsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "composed_actions_total",
					Help: "Total number of compose actions run",
				},
				[]string{"action", "result"}, // result: "success" or "failure"
			),
			ActionDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "composed_action_duration_seconds",
					Help:    "Duration of compose actions in seconds",
					Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
				},
				[]string{"action"},
			),
		}
	})
	return globalMetrics
}
