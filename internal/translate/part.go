// Package translate turns the CLI's event stream into the ordered,
// caller-facing stream of output parts, tracking per-tool-call lifecycle
// state and detecting truncated responses.
package translate

import "github.com/pablof7z/claude-code-provider-go/internal/event"

// Part is one unit of the translated streaming result.
// Use type assertion or type switch to determine the concrete type.
type Part interface {
	PartType() string
}

// Compile-time verification that all part types implement Part.
var (
	_ Part = (*TextStart)(nil)
	_ Part = (*TextDelta)(nil)
	_ Part = (*TextEnd)(nil)
	_ Part = (*ToolInputStart)(nil)
	_ Part = (*ToolInputDelta)(nil)
	_ Part = (*ToolInputEnd)(nil)
	_ Part = (*ToolCall)(nil)
	_ Part = (*ToolResult)(nil)
	_ Part = (*ToolError)(nil)
	_ Part = (*Finish)(nil)
)

// TextStart opens a text span.
type TextStart struct {
	ID string
}

// PartType implements Part.
func (p *TextStart) PartType() string { return "text-start" }

// TextDelta appends text to the open span.
type TextDelta struct {
	ID   string
	Text string
}

// PartType implements Part.
func (p *TextDelta) PartType() string { return "text-delta" }

// TextEnd closes the open text span.
type TextEnd struct {
	ID string
}

// PartType implements Part.
func (p *TextEnd) PartType() string { return "text-end" }

// ToolInputStart announces a tool invocation whose input may still be
// streaming.
type ToolInputStart struct {
	ID   string
	Name string
}

// PartType implements Part.
func (p *ToolInputStart) PartType() string { return "tool-input-start" }

// ToolInputDelta carries an incremental extension of the serialized tool
// input.
type ToolInputDelta struct {
	ID    string
	Delta string
}

// PartType implements Part.
func (p *ToolInputDelta) PartType() string { return "tool-input-delta" }

// ToolInputEnd closes the tool's input stream.
type ToolInputEnd struct {
	ID string
}

// PartType implements Part.
func (p *ToolInputEnd) PartType() string { return "tool-input-end" }

// ToolCall is the complete tool invocation with its full serialized input.
// Emitted at most once per tool id.
type ToolCall struct {
	ID    string
	Name  string
	Input string
}

// PartType implements Part.
func (p *ToolCall) PartType() string { return "tool-call" }

// ToolResult carries one result chunk for an executed tool.
type ToolResult struct {
	ID      string
	Name    string
	Result  any
	IsError bool
}

// PartType implements Part.
func (p *ToolResult) PartType() string { return "tool-result" }

// ToolError reports a tool that failed to execute.
type ToolError struct {
	ID      string
	Name    string
	Message string
}

// PartType implements Part.
func (p *ToolError) PartType() string { return "tool-error" }

// FinishReason is the small enum the result subtype maps onto.
type FinishReason string

const (
	// FinishReasonStop indicates normal completion.
	FinishReasonStop FinishReason = "stop"
	// FinishReasonLength indicates a turn or length limit was hit,
	// including recovered truncation.
	FinishReasonLength FinishReason = "length"
	// FinishReasonError indicates the CLI reported a failure during
	// execution.
	FinishReasonError FinishReason = "error"
)

// Usage is the aggregated token accounting. Input tokens fold the cache
// creation and cache read tokens into the plain input count.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
}

// Warning codes for conditions recovered without failing the request.
const (
	// WarningMalformedEvent marks an event skipped for having an
	// unexpected shape.
	WarningMalformedEvent = "malformed-event"
	// WarningTruncatedResponse marks a response recovered from a
	// truncated final line.
	WarningTruncatedResponse = "truncated-response"
	// WarningJSONExtraction marks structured output whose JSON could not
	// be confidently extracted.
	WarningJSONExtraction = "json-extraction"
	// WarningToolInputSize marks a serialized tool input over the soft
	// size ceiling.
	WarningToolInputSize = "tool-input-size"
	// WarningSchemaValidation marks structured output that failed schema
	// validation.
	WarningSchemaValidation = "schema-validation"
)

// Warning is a recovered, non-fatal condition attached to the result.
type Warning struct {
	Code    string
	Message string
}

// Metadata is the request-level bookkeeping delivered with Finish.
type Metadata struct {
	SessionID  string
	CostUSD    float64
	DurationMS int64
	RawUsage   event.RawUsage
	Warnings   []Warning
}

// Finish terminates the part stream with usage, reason, and metadata.
type Finish struct {
	Usage    Usage
	Reason   FinishReason
	Metadata Metadata
}

// PartType implements Part.
func (p *Finish) PartType() string { return "finish" }
