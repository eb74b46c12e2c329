package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "bare object",
			input: `{"a": 1}`,
			want:  `{"a": 1}`,
		},
		{
			name:  "fenced with language tag",
			input: "```json\n{\"a\": 1}\n```",
			want:  `{"a": 1}`,
		},
		{
			name:  "fenced without tag",
			input: "```\n[1, 2, 3]\n```",
			want:  `[1, 2, 3]`,
		},
		{
			name:  "missing closing fence",
			input: "```json\n{\"a\": 1}",
			want:  `{"a": 1}`,
		},
		{
			name:  "prose around object",
			input: `Sure, here is the data: {"a": 1} Hope that helps!`,
			want:  `{"a": 1}`,
		},
		{
			name:  "array in prose",
			input: `The list is [1, 2, 3].`,
			want:  `[1, 2, 3]`,
		},
		{
			name:  "nested braces",
			input: `{"outer": {"inner": [1, {"deep": true}]}}`,
			want:  `{"outer": {"inner": [1, {"deep": true}]}}`,
		},
		{
			name:  "braces inside string literal",
			input: `{"text": "look: } and \" escaped"}`,
			want:  `{"text": "look: } and \" escaped"}`,
		},
		{
			name:  "no json returns input unchanged",
			input: "nothing to see here",
			want:  "nothing to see here",
		},
		{
			name:  "unbalanced returns input unchanged",
			input: `{"a": 1`,
			want:  `{"a": 1`,
		},
		{
			name:  "empty string",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.input))
		})
	}
}
