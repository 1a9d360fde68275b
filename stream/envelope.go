package stream

import (
	"encoding/json"
	"time"

	"github.com/rajgottipati/HyperSim-SDK/errors"
)

// Envelope is the wire format exchanged over the persistent connection.
// Outbound envelopes carry method+params; inbound envelopes carry either
// a result or an error, correlated by ID when the server echoes one.
type Envelope struct {
	ID        string          `json:"id,omitempty"`
	Method    string          `json:"method"`
	Params    any             `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *EnvelopeError  `json:"error,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// EnvelopeError is the error object carried by a failed envelope.
type EnvelopeError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// newEnvelope stamps an outbound envelope with the current time.
func newEnvelope(id, method string, params any) *Envelope {
	return &Envelope{
		ID:        id,
		Method:    method,
		Params:    params,
		Timestamp: time.Now().UnixMilli(),
	}
}

// marshal encodes the envelope for the wire.
func (e *Envelope) marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, errors.WrapInvalid(err, "Manager", "marshal", "encode envelope")
	}
	return data, nil
}

// parseEnvelope decodes an inbound frame. Frames without a method are
// rejected so the dispatch loop never sees an unroutable message.
func parseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.WrapInvalid(err, "Manager", "parseEnvelope", "unmarshal frame")
	}
	if env.Method == "" {
		return nil, errors.WrapInvalid(errors.ErrInvalidData, "Manager", "parseEnvelope", "envelope method validation")
	}
	return &env, nil
}
