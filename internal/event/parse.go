package event

import (
	"log/slog"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
)

// Parse converts a raw JSON map into a typed Event.
//
// Parsing is defensive: unknown or missing fields are tolerated wherever
// the event remains usable. Unknown event types return
// errors.ErrUnknownEventType and should be skipped. Structurally unusable
// events (for example an assistant event without content) return
// *errors.MalformedEventError and should be skipped with a warning.
func Parse(log *slog.Logger, data map[string]any) (Event, error) {
	eventType, ok := data["type"].(string)
	if !ok {
		log.Debug("Event missing 'type' field")

		return nil, &errors.MalformedEventError{
			Reason: "missing or invalid 'type' field",
			Data:   data,
		}
	}

	log.Debug("Parsing event", "event_type", eventType)

	switch eventType {
	case "system":
		return parseSystemEvent(data), nil
	case "assistant":
		return parseMessageEvent(data, true)
	case "user":
		return parseMessageEvent(data, false)
	case "result":
		return parseResultEvent(data), nil
	case "error":
		return parseErrorEvent(data), nil
	default:
		log.Debug("Skipping unknown event type", "event_type", eventType)

		return nil, errors.ErrUnknownEventType
	}
}

func parseSystemEvent(data map[string]any) *SystemEvent {
	ev := &SystemEvent{}

	if subtype, ok := data["subtype"].(string); ok {
		ev.Subtype = subtype
	}

	if sessionID, ok := data["session_id"].(string); ok {
		ev.SessionID = sessionID
	}

	return ev
}

// parseMessageEvent parses assistant and user events, which share the
// nested message/content wire shape.
func parseMessageEvent(data map[string]any, assistant bool) (Event, error) {
	role := "user"
	if assistant {
		role = "assistant"
	}

	messageData, ok := data["message"].(map[string]any)
	if !ok {
		return nil, &errors.MalformedEventError{
			Reason: role + " event: missing or invalid 'message' field",
			Data:   data,
		}
	}

	contentData, ok := messageData["content"]
	if !ok {
		return nil, &errors.MalformedEventError{
			Reason: role + " event: missing content field",
			Data:   data,
		}
	}

	var parts []ContentPart

	switch content := contentData.(type) {
	case string:
		parts = []ContentPart{&TextPart{Text: content}}
	case []any:
		parts = parseContentParts(content)
	default:
		return nil, &errors.MalformedEventError{
			Reason: role + " event: content is neither string nor array",
			Data:   data,
		}
	}

	if assistant {
		return &AssistantEvent{Content: parts}, nil
	}

	return &UserEvent{Content: parts}, nil
}

// parseContentParts parses the content block array. Individual blocks that
// cannot be understood are dropped rather than failing the whole event.
func parseContentParts(data []any) []ContentPart {
	parts := make([]ContentPart, 0, len(data))

	for _, item := range data {
		blockData, ok := item.(map[string]any)
		if !ok {
			continue
		}

		if part := parseContentPart(blockData); part != nil {
			parts = append(parts, part)
		}
	}

	return parts
}

func parseContentPart(data map[string]any) ContentPart {
	blockType, ok := data["type"].(string)
	if !ok {
		return nil
	}

	switch blockType {
	case "text":
		part := &TextPart{}
		if text, ok := data["text"].(string); ok {
			part.Text = text
		}

		return part

	case "tool_use":
		part := &ToolUsePart{}
		if id, ok := data["id"].(string); ok {
			part.ID = id
		}

		if name, ok := data["name"].(string); ok {
			part.Name = name
		}

		if input, ok := data["input"].(map[string]any); ok {
			part.Input = input
		}

		return part

	case "tool_result":
		part := &ToolResultPart{}
		if id, ok := data["tool_use_id"].(string); ok {
			part.ToolUseID = id
		}

		if name, ok := data["name"].(string); ok {
			part.Name = name
		}

		if isError, ok := data["is_error"].(bool); ok {
			part.IsError = isError
		}

		part.Content = data["content"]

		return part

	case "tool_error":
		part := &ToolErrorPart{}
		if id, ok := data["tool_use_id"].(string); ok {
			part.ToolUseID = id
		} else if id, ok := data["id"].(string); ok {
			part.ToolUseID = id
		}

		if name, ok := data["name"].(string); ok {
			part.Name = name
		}

		if msg, ok := data["error"].(string); ok {
			part.Message = msg
		}

		return part

	default:
		return nil
	}
}

func parseResultEvent(data map[string]any) *ResultEvent {
	ev := &ResultEvent{}

	if subtype, ok := data["subtype"].(string); ok {
		ev.Subtype = subtype
	}

	if sessionID, ok := data["session_id"].(string); ok {
		ev.SessionID = sessionID
	}

	if duration, ok := data["duration_ms"].(float64); ok {
		ev.DurationMS = int64(duration)
	}

	if cost, ok := data["total_cost_usd"].(float64); ok {
		ev.TotalCostUSD = cost
	}

	if isError, ok := data["is_error"].(bool); ok {
		ev.IsError = isError
	}

	if usage, ok := data["usage"].(map[string]any); ok {
		ev.Usage = RawUsage{
			InputTokens:              usageTokens(usage, "input_tokens"),
			OutputTokens:             usageTokens(usage, "output_tokens"),
			CacheCreationInputTokens: usageTokens(usage, "cache_creation_input_tokens"),
			CacheReadInputTokens:     usageTokens(usage, "cache_read_input_tokens"),
		}
	}

	return ev
}

func usageTokens(usage map[string]any, key string) int64 {
	if v, ok := usage[key].(float64); ok {
		return int64(v)
	}

	return 0
}

func parseErrorEvent(data map[string]any) *ErrorEvent {
	ev := &ErrorEvent{}

	if msg, ok := data["message"].(string); ok {
		ev.Message = msg
	} else if msg, ok := data["error"].(string); ok {
		ev.Message = msg
	}

	if code, ok := data["code"].(string); ok {
		ev.Code = code
	}

	return ev
}
