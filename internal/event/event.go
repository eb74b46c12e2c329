// Package event models the wire protocol of the external CLI: one JSON
// object per stdout line, discriminated by a "type" field. The types here
// are a closed tagged union replacing the dynamically shaped wire payloads.
package event

// Event represents one parsed JSON message from the CLI output stream.
// Use type assertion or type switch to determine the concrete type.
type Event interface {
	EventType() string
}

// Compile-time verification that all event types implement Event.
var (
	_ Event = (*SystemEvent)(nil)
	_ Event = (*AssistantEvent)(nil)
	_ Event = (*UserEvent)(nil)
	_ Event = (*ResultEvent)(nil)
	_ Event = (*ErrorEvent)(nil)
)

// SystemEvent carries session bookkeeping, including the session id
// assigned by the CLI on initialization.
type SystemEvent struct {
	Subtype   string
	SessionID string
}

// EventType implements Event.
func (e *SystemEvent) EventType() string { return "system" }

// AssistantEvent carries assistant output: text and tool-use content parts.
type AssistantEvent struct {
	Content []ContentPart
}

// EventType implements Event.
func (e *AssistantEvent) EventType() string { return "assistant" }

// UserEvent carries user-side content. The CLI reports auto-executed tool
// results as user events.
type UserEvent struct {
	Content []ContentPart
}

// EventType implements Event.
func (e *UserEvent) EventType() string { return "user" }

// RawUsage is the token accounting exactly as reported on the wire.
type RawUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
}

// ResultEvent terminates a request with usage, cost, and timing.
type ResultEvent struct {
	Subtype      string
	SessionID    string
	DurationMS   int64
	TotalCostUSD float64
	Usage        RawUsage
	IsError      bool
}

// EventType implements Event.
func (e *ResultEvent) EventType() string { return "result" }

// ErrorEvent is an explicit error reported by the CLI.
type ErrorEvent struct {
	Message string
	Code    string
}

// EventType implements Event.
func (e *ErrorEvent) EventType() string { return "error" }

// ContentPart represents one content block within an assistant or user
// event.
type ContentPart interface {
	ContentType() string
}

// Compile-time verification that all content parts implement ContentPart.
var (
	_ ContentPart = (*TextPart)(nil)
	_ ContentPart = (*ToolUsePart)(nil)
	_ ContentPart = (*ToolResultPart)(nil)
	_ ContentPart = (*ToolErrorPart)(nil)
)

// TextPart contains plain text content.
type TextPart struct {
	Text string
}

// ContentType implements ContentPart.
func (p *TextPart) ContentType() string { return "text" }

// ToolUsePart represents the CLI requesting a tool invocation.
type ToolUsePart struct {
	ID    string
	Name  string
	Input map[string]any
}

// ContentType implements ContentPart.
func (p *ToolUsePart) ContentType() string { return "tool_use" }

// ToolResultPart carries the outcome of an executed tool.
type ToolResultPart struct {
	ToolUseID string
	Name      string
	Content   any
	IsError   bool
}

// ContentType implements ContentPart.
func (p *ToolResultPart) ContentType() string { return "tool_result" }

// ToolErrorPart reports a tool that failed to execute.
type ToolErrorPart struct {
	ToolUseID string
	Name      string
	Message   string
}

// ContentType implements ContentPart.
func (p *ToolErrorPart) ContentType() string { return "tool_error" }
