package observability

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// EngineMetrics aggregates the counters shared by the stream and auction
// engines.
type EngineMetrics struct {
	events *prometheus.CounterVec
}

var (
	engineMetricsOnce sync.Once
	engineRegistry    *EngineMetrics
)

// Engine returns the lazily-initialised engine metrics registry.
func Engine() *EngineMetrics {
	engineMetricsOnce.Do(func() {
		engineRegistry = &EngineMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "podfin_engine_events_total",
				Help: "Count of engine events emitted by type.",
			}, []string{"type"}),
		}
		prometheus.MustRegister(engineRegistry.events)
	})
	return engineRegistry
}

// ObserveEvent records one emitted engine event.
func (m *EngineMetrics) ObserveEvent(eventType string) {
	if m == nil {
		return
	}
	if eventType == "" {
		eventType = "unknown"
	}
	m.events.WithLabelValues(eventType).Inc()
}
