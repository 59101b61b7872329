package types

// Event is a typed record of a state transition, carried as a flat attribute
// map so downstream consumers (indexers, metrics, logs) can decode it without
// knowing the emitting module.
type Event struct {
	Type       string            `json:"type"`
	Attributes map[string]string `json:"attributes"`
}
