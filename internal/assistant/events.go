package assistant

import (
	"encoding/json"

	"github.com/couchcryptid/city-explorer/internal/domain"
)

// EventKind discriminates the assistant stream events. The SDK's callback
// surface is re-expressed as a single cancellable sequence of these, so
// ordering and cancellation are explicit in one consuming loop.
type EventKind string

const (
	// EventTextDelta carries an incremental chunk of assistant text.
	EventTextDelta EventKind = "delta"
	// EventToolCallRequested is emitted when the model invokes a tool.
	EventToolCallRequested EventKind = "tool"
	// EventToolCallCompleted is emitted after the tool handler ran.
	EventToolCallCompleted EventKind = "tool_result"
	// EventError carries a synthetic assistant message describing a stream
	// failure; the conversation remains usable afterwards.
	EventError EventKind = "error"
	// EventEnd closes a turn.
	EventEnd EventKind = "end"
)

// Event is one element of an assistant response stream.
type Event struct {
	Kind      EventKind            `json:"kind"`
	Text      string               `json:"text,omitempty"`
	ToolName  string               `json:"toolName,omitempty"`
	ToolInput json.RawMessage      `json:"toolInput,omitempty"`
	Location  *domain.LocationInfo `json:"location,omitempty"`
}
