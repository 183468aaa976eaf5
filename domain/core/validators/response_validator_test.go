package validators

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
)

func feedbackJSON(attemptID string) string {
	return fmt.Sprintf(`{
		"feedback_id": "fb-1",
		"attempt_id": %q,
		"summary": "mostly right",
		"errors": [{"id": "e1", "point": "edge case missed", "counterexample": "x = 0"}],
		"suggestion": "handle zero"
	}`, attemptID)
}

func TestParseFeedback(t *testing.T) {
	attemptID := valueobjects.NewAttemptID()
	meta := FeedbackMeta{Model: "llama-3.3-70b", ExpectedAttemptID: attemptID}

	fb, err := ParseFeedback(feedbackJSON(attemptID.String()), meta)
	require.NoError(t, err)
	assert.Equal(t, "fb-1", fb.FeedbackID.String())
	assert.True(t, fb.AttemptID.Equals(attemptID))
	assert.Equal(t, "mostly right", fb.Summary)
	require.Len(t, fb.Errors, 1)
	assert.Equal(t, "x = 0", fb.Errors[0].Counterexample)
	assert.Equal(t, entities.FeedbackSourceModel, fb.Source)
	assert.Equal(t, 1, fb.SchemaVersion)
	assert.NotEmpty(t, fb.Raw)
}

func TestParseFeedback_Idempotent(t *testing.T) {
	attemptID := valueobjects.NewAttemptID()
	meta := FeedbackMeta{Model: "m", ExpectedAttemptID: attemptID}
	raw := feedbackJSON(attemptID.String())

	first, err := ParseFeedback(raw, meta)
	require.NoError(t, err)
	second, err := ParseFeedback(raw, meta)
	require.NoError(t, err)

	first.CreatedAt = second.CreatedAt
	assert.Equal(t, first, second)
}

func TestParseFeedback_Failures(t *testing.T) {
	attemptID := valueobjects.NewAttemptID()
	otherID := valueobjects.NewAttemptID()
	meta := FeedbackMeta{Model: "m", ExpectedAttemptID: attemptID}

	tests := []struct {
		name string
		raw  string
		code string
	}{
		{"broken json", `{"feedback_id":`, pkgerrors.CodeMalformedPayload},
		{"not an object", `["a", "b"]`, pkgerrors.CodeMalformedPayload},
		{"wrong attempt id", feedbackJSON(otherID.String()), pkgerrors.CodeAttemptMismatch},
		{"missing feedback id", fmt.Sprintf(`{"attempt_id": %q, "summary": "s", "errors": [{"id":"e","point":"p","counterexample":"c"}], "suggestion": "s"}`, attemptID.String()), pkgerrors.CodeSchemaViolation},
		{"empty errors list", fmt.Sprintf(`{"feedback_id": "fb", "attempt_id": %q, "summary": "s", "errors": [], "suggestion": "s"}`, attemptID.String()), pkgerrors.CodeSchemaViolation},
		{"error item missing counterexample", fmt.Sprintf(`{"feedback_id": "fb", "attempt_id": %q, "summary": "s", "errors": [{"id":"e","point":"p"}], "suggestion": "s"}`, attemptID.String()), pkgerrors.CodeSchemaViolation},
		{"blank summary", fmt.Sprintf(`{"feedback_id": "fb", "attempt_id": %q, "summary": "  ", "errors": [{"id":"e","point":"p","counterexample":"c"}], "suggestion": "s"}`, attemptID.String()), pkgerrors.CodeSchemaViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseFeedback(tt.raw, meta)
			require.Error(t, err)
			assert.True(t, pkgerrors.HasCode(err, tt.code), "expected code %s, got %v", tt.code, err)
		})
	}
}

func TestParseExercise(t *testing.T) {
	attemptID := valueobjects.NewAttemptID()
	meta := ExerciseMeta{Model: "m", AttemptID: attemptID}

	raw, _ := json.Marshal(map[string]string{
		"exercise_id": "ex-9",
		"type":        "Analítico",
		"payload":     "prove the converse",
	})
	exercise, err := ParseExercise(string(raw), meta)
	require.NoError(t, err)
	assert.Equal(t, "ex-9", exercise.ExerciseID.String())
	assert.Equal(t, entities.ExerciseTypeAnalytical, exercise.Type)
	assert.Equal(t, "prove the converse", exercise.Payload)
	assert.True(t, exercise.AttemptID.Equals(attemptID))
}

func TestParseExercise_UnknownType(t *testing.T) {
	meta := ExerciseMeta{Model: "m", AttemptID: valueobjects.NewAttemptID()}
	_, err := ParseExercise(`{"exercise_id": "ex", "type": "riddle", "payload": "p"}`, meta)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnknownExerciseType))
}

func TestNormalizeExerciseType(t *testing.T) {
	tests := []struct {
		in   string
		want entities.ExerciseType
	}{
		{"analítico", entities.ExerciseTypeAnalytical},
		{"ANALITICO", entities.ExerciseTypeAnalytical},
		{"Analítica", entities.ExerciseTypeAnalytical},
		{"analytical", entities.ExerciseTypeAnalytical},
		{"proposición", entities.ExerciseTypeProposition},
		{"Proposicion", entities.ExerciseTypeProposition},
		{"PROPOSITION", entities.ExerciseTypeProposition},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeExerciseType(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeExerciseType("proposiciones")
	require.Error(t, err)
}
