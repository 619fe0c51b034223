package models

import (
	"encoding/json"
	"time"
)

const (
	EventTypeCommandLogged = "command_logged"
)

// MessageEnvelope is the unit published to and consumed from the broker.
type MessageEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Source    string          `json:"source"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload"`
	Metadata  Metadata        `json:"metadata"`
}

type Metadata struct {
	TraceID string `json:"trace_id,omitempty"`
	Version string `json:"version,omitempty"`
}

// DecodePayload unmarshals the envelope payload into v.
func (e MessageEnvelope) DecodePayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}
