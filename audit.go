package navguard

import (
	"io"

	"github.com/MrEthical07/navGuard/internal/audit"
)

// AuditEvent is one recorded guard decision or auth side effect.
type AuditEvent = audit.Event

// AuditSink receives audit events from the Engine's dispatcher goroutine.
type AuditSink = audit.Sink

// AuditSinkFunc adapts a function to [AuditSink].
type AuditSinkFunc = audit.SinkFunc

// NoOpSink drops every event.
type NoOpSink = audit.NoOpSink

// ChannelSink buffers events into a channel read via Events.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes one JSON object per line.
type JSONWriterSink = audit.JSONWriterSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
