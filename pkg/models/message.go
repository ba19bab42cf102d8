package models

import "time"

// MessageEnvelope is the wire format of every event the service publishes.
type MessageEnvelope struct {
	ID        string                 `json:"id"`
	Source    string                 `json:"source"`
	Timestamp time.Time              `json:"timestamp"`
	Payload   map[string]interface{} `json:"payload"`
	Metadata  Metadata               `json:"metadata"`
}

type Metadata struct {
	TraceID     string                 `json:"trace_id,omitempty"`
	EventType   string                 `json:"event_type,omitempty"`
	ServiceType string                 `json:"service_type,omitempty"`
	Attributes  map[string]interface{} `json:"attributes,omitempty"`
}
