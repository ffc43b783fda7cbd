package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups all Prometheus instruments used by the service.
type Metrics struct {
	TurnsProcessed *prometheus.CounterVec
	DegradedOps    *prometheus.CounterVec
	Escalations    *prometheus.CounterVec
	SupersededMsgs prometheus.Counter
	TurnLatency    prometheus.Histogram
}

func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		TurnsProcessed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "turns_processed_total",
			Help:      "Completed conversation turns by routed intent.",
		}, []string{"intent"}),
		DegradedOps: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degraded_operations_total",
			Help:      "External operations that exhausted their retry budget, by operation.",
		}, []string{"operation"}),
		Escalations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "escalations_total",
			Help:      "Handoffs to a human agent by trigger reason.",
		}, []string{"reason"}),
		SupersededMsgs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "superseded_messages_total",
			Help:      "Queued messages replaced by a newer one from the same customer.",
		}),
		TurnLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "turn_latency_ms",
			Help:      "End-to-end turn handling latency in milliseconds.",
			Buckets:   []float64{100, 250, 500, 1000, 2000, 3500, 5000, 8000, 12000},
		}),
	}
}

func (m *Metrics) ObserveTurnLatency(d time.Duration) {
	m.TurnLatency.Observe(float64(d.Milliseconds()))
}

func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
