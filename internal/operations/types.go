package operations

import "time"

// Step identifiers, in pipeline order.
const (
	StepIDFilter    = "filter"
	StepIDOutliers  = "outliers"
	StepIDNormalize = "normalize"
	StepIDSnap      = "snap"
	StepIDRealign   = "realign"
	StepIDExport    = "export"
)

// Step names.
const (
	StepNameFilter    = "Row Filtering"
	StepNameOutliers  = "Outlier Handling"
	StepNameNormalize = "Normalization"
	StepNameSnap      = "Timestamp Snapping"
	StepNameRealign   = "Timestamp Realignment"
	StepNameExport    = "Export"
)

// Event types pushed to connected clients.
const (
	EventTypeStatus   = "operation:status"
	EventTypeProgress = "operation:progress"
	EventTypeComplete = "operation:complete"
	EventTypeError    = "operation:error"
	EventTypeLog      = "log"
)

// Event is one message on the progress stream.
type Event struct {
	Type        string         `json:"type"`
	OperationID string         `json:"operation_id"`
	StepID      string         `json:"step_id,omitempty"`
	Status      string         `json:"status,omitempty"`
	Message     string         `json:"message,omitempty"`
	Progress    float64        `json:"progress"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// EventSink receives run events. Implementations must be safe to call from
// the worker goroutine; the websocket hub queues events for delivery so
// the worker never touches caller-owned state.
type EventSink interface {
	Publish(event Event)
}

// NopSink discards events. Used by the CLI where progress goes to the log.
type NopSink struct{}

// Publish implements EventSink.
func (NopSink) Publish(Event) {}

// ExportOptions selects the trailing export step of a run.
type ExportOptions struct {
	Enabled    bool   `json:"enabled"`
	OutputPath string `json:"output_path,omitempty"`
	DateFormat string `json:"date_format,omitempty"`
}
