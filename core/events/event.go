package events

// Event is a structured state change emitted by a native engine.
type Event interface {
	EventType() string
}

// Emitter broadcasts events to downstream subscribers such as the gateway,
// metrics collectors or indexers.
type Emitter interface {
	Emit(Event)
}

// NoopEmitter satisfies Emitter while discarding everything. Engines default
// to it so event emission is always optional.
type NoopEmitter struct{}

// Emit implements the Emitter interface.
func (NoopEmitter) Emit(Event) {}
