package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePropositionPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    []string
	}{
		{
			name:    "json array",
			payload: `["recíproca", "inversa", "contrarrecíproca"]`,
			want:    []string{"recíproca", "inversa", "contrarrecíproca"},
		},
		{
			name:    "statements object",
			payload: `{"statements": ["a", "b", "c"]}`,
			want:    []string{"a", "b", "c"},
		},
		{
			name:    "numbered plain text",
			payload: "1. first statement\n2. second statement\n3. third statement",
			want:    []string{"first statement", "second statement", "third statement"},
		},
		{
			name:    "blank line separated",
			payload: "first\n\nsecond\n\nthird\n\nfourth",
			want:    []string{"first", "second", "third"},
		},
		{
			name:    "unsplittable text returned whole",
			payload: "just one statement",
			want:    []string{"just one statement"},
		},
		{
			name:    "non string array items are stringified",
			payload: `[1, true, "x"]`,
			want:    []string{"1", "true", "x"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParsePropositionPayload(tt.payload))
		})
	}
}

func TestParseAnalyticalPayload(t *testing.T) {
	assert.Equal(t, "solve it", ParseAnalyticalPayload(`"solve it"`))
	assert.Equal(t, "from object", ParseAnalyticalPayload(`{"exercise": "from object"}`))
	assert.Equal(t, "plain text stays", ParseAnalyticalPayload("plain text stays"))
	assert.Equal(t, `{"other": 1}`, ParseAnalyticalPayload(`{"other": 1}`))
}
