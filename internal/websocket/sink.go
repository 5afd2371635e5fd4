package websocket

import (
	"encoding/json"
	"log/slog"

	"tsprep/internal/operations"
)

// Sink adapts the hub to the operations event interface. Events are
// serialized once and queued; delivery never blocks the worker.
type Sink struct {
	hub    *Hub
	logger *slog.Logger
}

// NewSink creates an event sink backed by the hub.
func NewSink(hub *Hub, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = hub.logger
	}
	return &Sink{hub: hub, logger: logger}
}

// Publish implements operations.EventSink.
func (s *Sink) Publish(event operations.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		s.logger.Error("failed to encode event",
			slog.String("type", event.Type),
			slog.String("error", err.Error()))
		return
	}
	s.hub.Broadcast(data)
}
