package translate

import (
	"iter"
	"strings"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
)

// Result is the collapsed form of a part stream for non-streaming calls.
type Result struct {
	Text         string
	ToolCalls    []*ToolCall
	ToolResults  []*ToolResult
	ToolErrors   []*ToolError
	Usage        Usage
	FinishReason FinishReason
	Metadata     Metadata
}

// Aggregate folds a part stream into a single result. The stream's error,
// if any, propagates unchanged; a stream that ends without a Finish part
// yields ErrMissingResult.
func Aggregate(parts iter.Seq2[Part, error]) (*Result, error) {
	var (
		text     strings.Builder
		result   Result
		finished bool
	)

	for part, err := range parts {
		if err != nil {
			return nil, err
		}

		switch p := part.(type) {
		case *TextDelta:
			text.WriteString(p.Text)

		case *ToolCall:
			result.ToolCalls = append(result.ToolCalls, p)

		case *ToolResult:
			result.ToolResults = append(result.ToolResults, p)

		case *ToolError:
			result.ToolErrors = append(result.ToolErrors, p)

		case *Finish:
			finished = true
			result.Usage = p.Usage
			result.FinishReason = p.Reason
			result.Metadata = p.Metadata
		}
	}

	if !finished {
		return nil, errors.ErrMissingResult
	}

	result.Text = text.String()

	return &result, nil
}
