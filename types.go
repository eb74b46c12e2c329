package claudeprovider

import (
	"github.com/pablof7z/claude-code-provider-go/internal/config"
	"github.com/pablof7z/claude-code-provider-go/internal/event"
	"github.com/pablof7z/claude-code-provider-go/internal/translate"
)

// Re-export types from internal packages

// ===== Options and Requests =====

// ProviderOptions configures the provider. Construct via New's
// functional options rather than directly.
type ProviderOptions = config.Options

// Request describes one generation call. The caller supplies the
// ready-built CLI argument list; the provider never interprets or
// constructs CLI flags.
type Request = config.Request

// Transport defines the interface for CLI communication.
// Custom implementations can be injected via WithTransportFactory.
type Transport = config.Transport

// ===== Output Parts =====

// Part is one unit of the translated streaming result.
// Use type assertion or type switch to determine the concrete type.
type Part = translate.Part

// TextStart opens a text span.
type TextStart = translate.TextStart

// TextDelta appends text to the open span.
type TextDelta = translate.TextDelta

// TextEnd closes the open text span.
type TextEnd = translate.TextEnd

// ToolInputStart announces a tool invocation whose input may still be
// streaming.
type ToolInputStart = translate.ToolInputStart

// ToolInputDelta carries an incremental extension of the serialized tool
// input.
type ToolInputDelta = translate.ToolInputDelta

// ToolInputEnd closes the tool's input stream.
type ToolInputEnd = translate.ToolInputEnd

// ToolCall is the complete tool invocation with its full serialized
// input. Emitted at most once per tool id.
type ToolCall = translate.ToolCall

// ToolResult carries one result chunk for an executed tool.
type ToolResult = translate.ToolResult

// ToolError reports a tool that failed to execute.
type ToolError = translate.ToolError

// Finish terminates the part stream with usage, reason, and metadata.
type Finish = translate.Finish

// ===== Result Metadata =====

// FinishReason explains why generation stopped.
type FinishReason = translate.FinishReason

const (
	// FinishReasonStop indicates normal completion.
	FinishReasonStop = translate.FinishReasonStop
	// FinishReasonLength indicates a turn or length limit was hit,
	// including recovered truncation.
	FinishReasonLength = translate.FinishReasonLength
	// FinishReasonError indicates the CLI reported a failure during
	// execution.
	FinishReasonError = translate.FinishReasonError
)

// Usage is the aggregated token accounting. Cache creation and cache
// read tokens are folded into the input count.
type Usage = translate.Usage

// RawUsage is the CLI's unaggregated token accounting.
type RawUsage = event.RawUsage

// Warning is a recovered, non-fatal condition attached to the result.
type Warning = translate.Warning

// Warning codes attached to result metadata.
const (
	// WarningMalformedEvent marks an event skipped for having an
	// unexpected shape.
	WarningMalformedEvent = translate.WarningMalformedEvent
	// WarningTruncatedResponse marks a response recovered from a
	// truncated final line.
	WarningTruncatedResponse = translate.WarningTruncatedResponse
	// WarningJSONExtraction marks structured output whose JSON could not
	// be confidently extracted.
	WarningJSONExtraction = translate.WarningJSONExtraction
	// WarningToolInputSize marks a serialized tool input over the soft
	// size ceiling.
	WarningToolInputSize = translate.WarningToolInputSize
	// WarningSchemaValidation marks structured output that failed schema
	// validation.
	WarningSchemaValidation = translate.WarningSchemaValidation
)

// Metadata is the request-level bookkeeping delivered with Finish.
type Metadata = translate.Metadata

// Result is the collapsed form of a part stream returned by Generate.
type Result = translate.Result

// ===== Wire Events =====
//
// Custom Transport implementations produce these; most callers never
// touch them.

// Event is one parsed NDJSON object from the CLI's stdout.
type Event = event.Event

// SystemEvent announces session lifecycle changes.
type SystemEvent = event.SystemEvent

// AssistantEvent carries generated content blocks.
type AssistantEvent = event.AssistantEvent

// UserEvent carries tool outcomes echoed back into the conversation.
type UserEvent = event.UserEvent

// ResultEvent terminates the stream with accounting data.
type ResultEvent = event.ResultEvent

// ErrorEvent is an explicit CLI-reported failure.
type ErrorEvent = event.ErrorEvent

// ContentPart is one block inside an assistant or user event.
type ContentPart = event.ContentPart

// TextPart is a text content block.
type TextPart = event.TextPart

// ToolUsePart is a tool invocation content block.
type ToolUsePart = event.ToolUsePart

// ToolResultPart is a tool outcome content block.
type ToolResultPart = event.ToolResultPart

// ToolErrorPart is a failed-tool content block.
type ToolErrorPart = event.ToolErrorPart
