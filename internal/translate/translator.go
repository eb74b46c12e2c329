package translate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/oklog/ulid/v2"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
	"github.com/pablof7z/claude-code-provider-go/internal/event"
)

const (
	// deltaSizeCeiling bounds the serializations considered for
	// incremental tool-input deltas. Larger inputs skip deltas and arrive
	// whole on the tool call.
	deltaSizeCeiling = 10 * 1024
	// softInputCeiling logs a warning for oversized tool inputs.
	softInputCeiling = 100 * 1024
	// hardInputCeiling fails the request for pathological tool inputs.
	hardInputCeiling = 1024 * 1024
	// minTruncationRecoveryLen is the least buffered text that makes a
	// truncation-style parse error recoverable rather than fatal.
	minTruncationRecoveryLen = 512
	// fallbackToolName substitutes for missing tool names so callers
	// never see an empty name.
	fallbackToolName = "unknown_tool"
)

// truncationPhrases are JSON syntax-error fragments that indicate the
// output stream was cut off mid-value rather than genuinely malformed.
var truncationPhrases = []string{
	"unexpected end of",
	"unterminated string",
}

// toolState is the lifecycle position of one tracked tool invocation.
type toolState int

const (
	toolInputStreaming toolState = iota
	toolInputClosed
	toolCalled
)

// toolInvocation is the per-tool-call record in the translator's arena.
type toolInvocation struct {
	id        string
	name      string
	lastInput string // last serialized input
	state     toolState
}

func (inv *toolInvocation) input() string {
	if inv.lastInput == "" {
		return "{}"
	}

	return inv.lastInput
}

// Config controls translation behavior for one request.
type Config struct {
	// StructuredOutput defers text emission to stream end and extracts
	// JSON from the buffered text.
	StructuredOutput bool

	// Schema optionally validates extracted structured output.
	Schema *jsonschema.Schema
}

// Translator consumes one request's ordered event stream and produces the
// ordered part stream. It owns the per-tool-call state for that request;
// instantiate one per request and do not share across requests.
type Translator struct {
	log *slog.Logger
	cfg Config

	textID   string
	textOpen bool
	textBuf  strings.Builder

	tools     map[string]*toolInvocation
	toolOrder []string

	sessionID string
	warnings  []Warning
	finished  bool
}

// New creates a translator for one request.
func New(log *slog.Logger, cfg Config) *Translator {
	return &Translator{
		log:    log.With("component", "translator"),
		cfg:    cfg,
		textID: ulid.Make().String(),
		tools:  make(map[string]*toolInvocation),
	}
}

// Finished reports whether a Finish part has been produced. No further
// events should be pushed afterwards.
func (t *Translator) Finished() bool {
	return t.finished
}

// SessionID returns the freshest session id seen on the stream.
func (t *Translator) SessionID() string {
	return t.sessionID
}

// Push translates one event into zero or more output parts.
// A returned error fails the request; recoverable conditions surface as
// warnings on the eventual Finish part instead.
func (t *Translator) Push(ev event.Event) ([]Part, error) {
	switch e := ev.(type) {
	case *event.SystemEvent:
		t.updateSession(e.SessionID)

		return nil, nil

	case *event.AssistantEvent:
		return t.pushContent(e.Content)

	case *event.UserEvent:
		// Only tool outcomes matter on user events; text there is an
		// echo of the input.
		return t.pushToolOutcomes(e.Content)

	case *event.ResultEvent:
		return t.finish(e)

	case *event.ErrorEvent:
		return nil, errorEventFailure(e)

	default:
		t.log.Debug("Ignoring unhandled event", "event_type", ev.EventType())

		return nil, nil
	}
}

// RecordMalformed attaches a warning for an event that was skipped due to
// an unexpected shape.
func (t *Translator) RecordMalformed(merr *errors.MalformedEventError) {
	t.log.Warn("Skipping malformed event", "reason", merr.Reason)
	t.warn(WarningMalformedEvent, merr.Reason)
}

// HandleDecodeError decides whether a JSON decode failure is a truncated
// response. When the error message looks truncation-shaped and enough
// text has been buffered, the request finishes successfully with reason
// length and a warning; otherwise the error propagates as a genuine
// failure.
func (t *Translator) HandleDecodeError(perr *errors.EventParseError) ([]Part, error) {
	if !looksLikeTruncation(perr.Err) || t.textBuf.Len() < minTruncationRecoveryLen {
		return nil, perr
	}

	t.log.Warn("Recovering truncated response",
		"buffered_len", t.textBuf.Len(),
		"error", perr.Err,
	)
	t.warn(WarningTruncatedResponse,
		fmt.Sprintf("response truncated after %d characters: %v", t.textBuf.Len(), perr.Err))

	return t.finish(&event.ResultEvent{Subtype: "error_max_turns"})
}

func looksLikeTruncation(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, phrase := range truncationPhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}

	return false
}

func (t *Translator) updateSession(id string) {
	if id != "" && id != t.sessionID {
		t.sessionID = id
		t.log.Debug("Session id updated", "session_id", id)
	}
}

func (t *Translator) warn(code, message string) {
	t.warnings = append(t.warnings, Warning{Code: code, Message: message})
}

func (t *Translator) pushContent(content []event.ContentPart) ([]Part, error) {
	var parts []Part

	for _, c := range content {
		switch p := c.(type) {
		case *event.TextPart:
			parts = append(parts, t.pushText(p.Text)...)

		case *event.ToolUsePart:
			toolParts, err := t.pushToolUse(p)
			if err != nil {
				return nil, err
			}

			parts = append(parts, toolParts...)

		case *event.ToolResultPart:
			parts = append(parts, t.pushToolResult(p)...)

		case *event.ToolErrorPart:
			parts = append(parts, t.pushToolError(p)...)
		}
	}

	return parts, nil
}

func (t *Translator) pushToolOutcomes(content []event.ContentPart) ([]Part, error) {
	var parts []Part

	for _, c := range content {
		switch p := c.(type) {
		case *event.ToolResultPart:
			parts = append(parts, t.pushToolResult(p)...)
		case *event.ToolErrorPart:
			parts = append(parts, t.pushToolError(p)...)
		}
	}

	return parts, nil
}

// pushText appends assistant text. Plain mode opens the span lazily on
// the first non-empty chunk and emits deltas immediately; structured mode
// only buffers, deferring emission to finish.
func (t *Translator) pushText(text string) []Part {
	if text == "" {
		return nil
	}

	t.textBuf.WriteString(text)

	if t.cfg.StructuredOutput {
		return nil
	}

	var parts []Part

	if !t.textOpen {
		t.textOpen = true

		parts = append(parts, &TextStart{ID: t.textID})
	}

	return append(parts, &TextDelta{ID: t.textID, Text: text})
}

func (t *Translator) pushToolUse(p *event.ToolUsePart) ([]Part, error) {
	var parts []Part

	inv, ok := t.tools[p.ID]
	if !ok {
		inv = t.track(p.ID, p.Name)
		parts = append(parts, &ToolInputStart{ID: inv.id, Name: inv.name})
	} else if inv.state >= toolInputClosed {
		// Late tool_use for an id whose input already closed: emitting a
		// delta here would order it after the tool call, so drop it.
		t.log.Debug("Ignoring tool_use for closed invocation", "tool_id", p.ID)

		return nil, nil
	}

	serialized, err := serializeInput(p.Input)
	if err != nil {
		t.log.Warn("Failed to serialize tool input", "tool_id", p.ID, "error", err)

		return parts, nil
	}

	if len(serialized) > hardInputCeiling {
		return nil, fmt.Errorf(
			"%w: tool %q input is %d bytes (limit %d)",
			errors.ErrToolInputTooLarge, inv.name, len(serialized), hardInputCeiling,
		)
	}

	if len(serialized) > softInputCeiling {
		t.log.Warn("Tool input exceeds soft size ceiling",
			"tool_id", p.ID,
			"size", len(serialized),
		)
		t.warn(WarningToolInputSize,
			fmt.Sprintf("tool %q input is %d bytes", inv.name, len(serialized)))
	}

	// Only stream a delta when the new serialization strictly extends the
	// previous one and both are modest; anything else arrives whole on
	// the tool call.
	prev := inv.lastInput
	if len(prev) <= deltaSizeCeiling && len(serialized) <= deltaSizeCeiling &&
		len(serialized) > len(prev) && strings.HasPrefix(serialized, prev) {
		parts = append(parts, &ToolInputDelta{ID: inv.id, Delta: serialized[len(prev):]})
	}

	inv.lastInput = serialized

	return parts, nil
}

func serializeInput(input map[string]any) (string, error) {
	if input == nil {
		return "{}", nil
	}

	data, err := json.Marshal(input)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// pushToolResult forwards one result chunk, synthesizing any lifecycle
// parts the wire stream skipped. An orphaned result (no prior tool_use)
// still yields InputStart, InputEnd, and ToolCall before the result so
// downstream ordering holds.
func (t *Translator) pushToolResult(p *event.ToolResultPart) []Part {
	inv, parts := t.ensureCalled(p.ToolUseID, p.Name)

	return append(parts, &ToolResult{
		ID:      inv.id,
		Name:    inv.name,
		Result:  p.Content,
		IsError: p.IsError,
	})
}

func (t *Translator) pushToolError(p *event.ToolErrorPart) []Part {
	inv, parts := t.ensureCalled(p.ToolUseID, p.Name)

	return append(parts, &ToolError{
		ID:      inv.id,
		Name:    inv.name,
		Message: p.Message,
	})
}

// ensureCalled advances the invocation to the called state, emitting the
// missing transitions. ToolCall is emitted at most once per id no matter
// how many result or error chunks arrive.
func (t *Translator) ensureCalled(id, name string) (*toolInvocation, []Part) {
	var parts []Part

	inv, ok := t.tools[id]
	if !ok {
		t.log.Debug("Synthesizing lifecycle for orphaned tool result", "tool_id", id)

		inv = t.track(id, name)
		parts = append(parts, &ToolInputStart{ID: inv.id, Name: inv.name})
	}

	if inv.name == fallbackToolName && name != "" {
		inv.name = name
	}

	if inv.state < toolInputClosed {
		inv.state = toolInputClosed

		parts = append(parts, &ToolInputEnd{ID: inv.id})
	}

	if inv.state < toolCalled {
		inv.state = toolCalled

		parts = append(parts, &ToolCall{ID: inv.id, Name: inv.name, Input: inv.input()})
	}

	return inv, parts
}

func (t *Translator) track(id, name string) *toolInvocation {
	if name == "" {
		name = fallbackToolName
	}

	inv := &toolInvocation{id: id, name: name}
	t.tools[id] = inv
	t.toolOrder = append(t.toolOrder, id)

	return inv
}

// finish closes the stream: emits deferred structured text, closes any
// open span, completes pending tool invocations, and produces the Finish
// part. The tool arena is cleared afterwards.
func (t *Translator) finish(e *event.ResultEvent) ([]Part, error) {
	t.updateSession(e.SessionID)

	var parts []Part

	if t.cfg.StructuredOutput {
		parts = append(parts, t.emitStructuredText()...)
	} else if t.textOpen {
		t.textOpen = false

		parts = append(parts, &TextEnd{ID: t.textID})
	}

	// Tool invocations that never saw a result still owe a ToolCall.
	for _, id := range t.toolOrder {
		inv := t.tools[id]
		if inv.state >= toolCalled {
			continue
		}

		if inv.state < toolInputClosed {
			inv.state = toolInputClosed

			parts = append(parts, &ToolInputEnd{ID: inv.id})
		}

		inv.state = toolCalled

		parts = append(parts, &ToolCall{ID: inv.id, Name: inv.name, Input: inv.input()})
	}

	t.tools = make(map[string]*toolInvocation)
	t.toolOrder = nil

	usage := Usage{
		InputTokens: e.Usage.InputTokens +
			e.Usage.CacheCreationInputTokens +
			e.Usage.CacheReadInputTokens,
		OutputTokens: e.Usage.OutputTokens,
	}
	usage.TotalTokens = usage.InputTokens + usage.OutputTokens

	t.finished = true

	parts = append(parts, &Finish{
		Usage:  usage,
		Reason: finishReason(e.Subtype),
		Metadata: Metadata{
			SessionID:  t.sessionID,
			CostUSD:    e.TotalCostUSD,
			DurationMS: e.DurationMS,
			RawUsage:   e.Usage,
			Warnings:   t.warnings,
		},
	})

	return parts, nil
}

// emitStructuredText releases the buffered text as a single delta after
// JSON extraction. Extraction or parse trouble downgrades to a warning;
// the caller still receives the best text available.
func (t *Translator) emitStructuredText() []Part {
	text := t.textBuf.String()
	if text == "" {
		return nil
	}

	extracted := ExtractJSON(text)

	switch {
	case extracted == text:
		t.warn(WarningJSONExtraction, "could not extract JSON from response text")
	case !json.Valid([]byte(extracted)):
		t.warn(WarningJSONExtraction, "extracted text is not valid JSON")
	default:
		t.validateSchema(extracted)
	}

	return []Part{
		&TextStart{ID: t.textID},
		&TextDelta{ID: t.textID, Text: extracted},
		&TextEnd{ID: t.textID},
	}
}

// validateSchema checks extracted JSON against the configured schema.
// Mismatches warn rather than fail: the text is already committed.
func (t *Translator) validateSchema(extracted string) {
	if t.cfg.Schema == nil {
		return
	}

	resolved, err := t.cfg.Schema.Resolve(nil)
	if err != nil {
		t.log.Warn("Failed to resolve output schema", "error", err)
		t.warn(WarningSchemaValidation, fmt.Sprintf("schema did not resolve: %v", err))

		return
	}

	var value any
	if err := json.Unmarshal([]byte(extracted), &value); err != nil {
		return
	}

	if err := resolved.Validate(value); err != nil {
		t.log.Warn("Structured output failed schema validation", "error", err)
		t.warn(WarningSchemaValidation, err.Error())
	}
}

func finishReason(subtype string) FinishReason {
	switch subtype {
	case "error_max_turns":
		return FinishReasonLength
	case "error_during_execution":
		return FinishReasonError
	default:
		return FinishReasonStop
	}
}

// errorEventFailure maps an explicit error event to a typed failure,
// preferring the authentication type when the message points at
// credentials.
func errorEventFailure(e *event.ErrorEvent) error {
	lowered := strings.ToLower(e.Message)
	if strings.Contains(lowered, "authentication") ||
		strings.Contains(lowered, "api key") ||
		strings.Contains(lowered, "not logged in") {
		return &errors.AuthenticationError{Message: e.Message}
	}

	return &errors.ProtocolError{Code: e.Code, Message: e.Message}
}
