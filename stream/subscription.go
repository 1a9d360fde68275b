package stream

import (
	"time"
)

// Subscription records a caller's registered interest in a class of
// inbound events.
type Subscription struct {
	ID      string         `json:"id"`
	Type    string         `json:"type"`
	Params  map[string]any `json:"params,omitempty"`
	Active  bool           `json:"active"`
	Created time.Time      `json:"created"`
}

// Handler receives inbound envelopes for a subscription type or method.
type Handler func(env *Envelope)
