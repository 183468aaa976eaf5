package utils

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// propositionSplit matches the separators models tend to use between
// proposition variants when they ignore the JSON instruction: blank lines,
// dashed rules and numbered list markers.
var propositionSplit = regexp.MustCompile(`\n{2,}|\n-+\n|\n\d+\)|\d+\.\s`)

// ParsePropositionPayload decodes a proposition exercise payload into its
// variant statements. It accepts a JSON array, an object with a
// "statements" array, or falls back to splitting plain text into chunks.
// When no structure can be recovered the whole payload is returned as a
// single statement.
func ParsePropositionPayload(payload string) []string {
	var parsed interface{}
	if err := json.Unmarshal([]byte(payload), &parsed); err == nil {
		switch typed := parsed.(type) {
		case []interface{}:
			return stringifyAll(typed)
		case map[string]interface{}:
			if statements, ok := typed["statements"].([]interface{}); ok {
				return stringifyAll(statements)
			}
		}
	}

	cleaned := []string{}
	for _, chunk := range propositionSplit.Split(strings.ReplaceAll(payload, "\r", ""), -1) {
		chunk = strings.TrimSpace(chunk)
		if chunk != "" {
			cleaned = append(cleaned, chunk)
		}
	}
	if len(cleaned) >= 3 {
		return cleaned[:3]
	}

	return []string{payload}
}

// ParseAnalyticalPayload decodes an analytical exercise payload into its
// prompt text. It accepts a JSON string, an object with an "exercise"
// field, or returns the payload unchanged.
func ParseAnalyticalPayload(payload string) string {
	var parsed interface{}
	if err := json.Unmarshal([]byte(payload), &parsed); err == nil {
		switch typed := parsed.(type) {
		case string:
			return typed
		case map[string]interface{}:
			if exercise, ok := typed["exercise"].(string); ok {
				return exercise
			}
		}
	}
	return payload
}

func stringifyAll(items []interface{}) []string {
	out := make([]string, len(items))
	for i, item := range items {
		if s, ok := item.(string); ok {
			out[i] = s
			continue
		}
		out[i] = fmt.Sprintf("%v", item)
	}
	return out
}
