package observability

import (
	"log/slog"

	"podfin/core/events"
)

// EmitterHook decorates an events.Emitter with structured logging and
// metrics. Every emitted event is logged at info level and counted before
// being handed to the wrapped emitter.
type EmitterHook struct {
	next    events.Emitter
	logger  *slog.Logger
	metrics *EngineMetrics
}

// NewEmitterHook wires the hook around next. A nil next swallows events after
// observing them; a nil logger falls back to slog.Default().
func NewEmitterHook(next events.Emitter, logger *slog.Logger) *EmitterHook {
	if logger == nil {
		logger = slog.Default()
	}
	return &EmitterHook{next: next, logger: logger, metrics: Engine()}
}

func (h *EmitterHook) Emit(evt events.Event) {
	if h == nil || evt == nil {
		return
	}
	h.metrics.ObserveEvent(evt.EventType())
	h.logger.Info("engine event", slog.String("type", evt.EventType()))
	if h.next != nil {
		h.next.Emit(evt)
	}
}
