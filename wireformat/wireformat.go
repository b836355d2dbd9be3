// Package wireformat defines the JSON structures the guest sends to the host
// through chicory.log_message. They are shared by both sides and must stay
// backward compatible.
package wireformat

import (
	"time"
)

// ContextWireFormat carries the parts of a guest context.Context the host
// can use to correlate log lines.
type ContextWireFormat struct {
	Deadline  *time.Time `json:"deadline,omitempty"`
	RequestID string     `json:"request_id,omitempty"`
	TimeoutMs int64      `json:"timeout_ms,omitempty"`
	Canceled  bool       `json:"canceled,omitempty"`
}

// LogMessageWire is one slog record shipped from guest to host.
type LogMessageWire struct {
	Timestamp time.Time         `json:"timestamp"`
	Attrs     []LogAttrWire     `json:"attrs,omitempty"`
	Level     string            `json:"level"`
	Message   string            `json:"message"`
	Source    string            `json:"source,omitempty"`
	Context   ContextWireFormat `json:"context"`
}

// LogAttrWire is a single flattened slog attribute. Group members use dotted
// keys.
type LogAttrWire struct {
	Key   string `json:"key"`
	Type  string `json:"type"`  // "string", "int64", "uint64", "bool", "float64", "time", "duration", "error", "json", "any"
	Value string `json:"value"` // String representation of the value
}
