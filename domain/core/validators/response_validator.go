// Package validators checks raw model responses against the payload contracts
// before anything reaches the store. All functions are pure: no store access,
// no side effects, deterministic output for a given input.
package validators

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"focusloop/domain/config"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
)

// FeedbackMeta carries the context a feedback payload is validated against
type FeedbackMeta struct {
	Model             string
	ExpectedAttemptID valueobjects.AttemptID
	Source            entities.FeedbackSource
}

// ExerciseMeta carries the context an exercise payload is validated against
type ExerciseMeta struct {
	Model     string
	AttemptID valueobjects.AttemptID
}

// ParseFeedback validates a raw feedback response and builds the domain
// record. Failures are typed: MALFORMED_PAYLOAD for broken JSON,
// SCHEMA_VIOLATION for missing or mistyped fields, ATTEMPT_MISMATCH when the
// embedded attempt id targets a different attempt.
func ParseFeedback(raw string, meta FeedbackMeta) (*entities.AttemptFeedback, error) {
	bag, err := decodeObject(raw, "feedback")
	if err != nil {
		return nil, err
	}

	feedbackID, ok := stringField(bag, "feedback_id")
	if !ok {
		return nil, schemaViolation("feedback is missing 'feedback_id'")
	}
	attemptID, ok := stringField(bag, "attempt_id")
	if !ok {
		return nil, schemaViolation("feedback is missing 'attempt_id'")
	}
	if attemptID != meta.ExpectedAttemptID.String() {
		return nil, pkgerrors.NewResponseValidationError(
			pkgerrors.CodeAttemptMismatch,
			fmt.Sprintf("feedback targets attempt %s, expected %s", attemptID, meta.ExpectedAttemptID.String()),
		)
	}
	summary, ok := stringField(bag, "summary")
	if !ok {
		return nil, schemaViolation("feedback is missing 'summary'")
	}
	rawErrors, ok := bag["errors"].([]interface{})
	if !ok || len(rawErrors) == 0 {
		return nil, schemaViolation("feedback 'errors' must be a non-empty list")
	}
	suggestion, ok := stringField(bag, "suggestion")
	if !ok {
		return nil, schemaViolation("feedback is missing 'suggestion'")
	}

	items := make([]entities.FeedbackError, 0, len(rawErrors))
	for i, rawItem := range rawErrors {
		itemBag, ok := rawItem.(map[string]interface{})
		if !ok {
			return nil, schemaViolation(fmt.Sprintf("feedback error %d is not an object", i+1))
		}
		id, ok := stringField(itemBag, "id")
		if !ok {
			return nil, schemaViolation(fmt.Sprintf("feedback error %d is missing 'id'", i+1))
		}
		point, ok := stringField(itemBag, "point")
		if !ok {
			return nil, schemaViolation(fmt.Sprintf("feedback error %d is missing 'point'", i+1))
		}
		counterexample, ok := stringField(itemBag, "counterexample")
		if !ok {
			return nil, schemaViolation(fmt.Sprintf("feedback error %d is missing 'counterexample'", i+1))
		}
		items = append(items, entities.FeedbackError{
			ID:             id,
			Point:          point,
			Counterexample: counterexample,
		})
	}

	fbID, err := valueobjects.NewFeedbackIDFromString(feedbackID)
	if err != nil {
		return nil, schemaViolation("feedback 'feedback_id' is empty")
	}
	source := meta.Source
	if source == "" {
		source = entities.FeedbackSourceModel
	}

	return &entities.AttemptFeedback{
		FeedbackID:    fbID,
		AttemptID:     meta.ExpectedAttemptID,
		Summary:       summary,
		Errors:        items,
		Suggestion:    suggestion,
		Source:        source,
		Model:         meta.Model,
		Raw:           raw,
		SchemaVersion: config.DefaultDomainConfig().FeedbackSchemaVersion,
		CreatedAt:     time.Now(),
	}, nil
}

// ParseExercise validates a raw exercise response and builds the domain
// record. The type field is matched case and diacritic insensitively, so
// "Analítico", "analitico" and "analytical" all map to the analytical type.
func ParseExercise(raw string, meta ExerciseMeta) (*entities.ExercisePayload, error) {
	bag, err := decodeObject(raw, "exercise")
	if err != nil {
		return nil, err
	}

	exerciseID, ok := stringField(bag, "exercise_id")
	if !ok {
		return nil, schemaViolation("exercise is missing 'exercise_id'")
	}
	rawType, ok := stringField(bag, "type")
	if !ok {
		return nil, schemaViolation("exercise is missing 'type'")
	}
	payload, ok := stringField(bag, "payload")
	if !ok {
		return nil, schemaViolation("exercise is missing 'payload'")
	}

	exerciseType, err := NormalizeExerciseType(rawType)
	if err != nil {
		return nil, err
	}

	exID, err := valueobjects.NewExerciseIDFromString(exerciseID)
	if err != nil {
		return nil, schemaViolation("exercise 'exercise_id' is empty")
	}

	return &entities.ExercisePayload{
		ExerciseID: exID,
		AttemptID:  meta.AttemptID,
		Type:       exerciseType,
		Payload:    payload,
		Model:      meta.Model,
		CreatedAt:  time.Now(),
	}, nil
}

// NormalizeExerciseType folds case and diacritics and resolves the Spanish
// and English labels to a canonical exercise type
func NormalizeExerciseType(value string) (entities.ExerciseType, error) {
	switch normalizeLabel(value) {
	case "analitico", "analitica", "analytical":
		return entities.ExerciseTypeAnalytical, nil
	case "proposicion", "proposition":
		return entities.ExerciseTypeProposition, nil
	default:
		return "", pkgerrors.NewResponseValidationError(
			pkgerrors.CodeUnknownExerciseType,
			fmt.Sprintf("unknown exercise type: %q", value),
		)
	}
}

// normalizeLabel lowercases, strips combining marks and drops everything
// outside a-z
func normalizeLabel(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, strings.ToLower(value))
	if err != nil {
		folded = strings.ToLower(value)
	}
	var b strings.Builder
	for _, r := range folded {
		if r >= 'a' && r <= 'z' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// decodeObject parses raw JSON and requires a top-level object
func decodeObject(raw, kind string) (map[string]interface{}, error) {
	var data interface{}
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, pkgerrors.NewResponseValidationError(
			pkgerrors.CodeMalformedPayload,
			fmt.Sprintf("%s response is not valid JSON", kind),
		)
	}
	bag, ok := data.(map[string]interface{})
	if !ok {
		return nil, pkgerrors.NewResponseValidationError(
			pkgerrors.CodeMalformedPayload,
			fmt.Sprintf("%s response must be a JSON object", kind),
		)
	}
	return bag, nil
}

// stringField reads a non-empty trimmed string field from a decoded object
func stringField(bag map[string]interface{}, key string) (string, bool) {
	value, ok := bag[key].(string)
	if !ok {
		return "", false
	}
	if strings.TrimSpace(value) == "" {
		return "", false
	}
	return value, true
}

func schemaViolation(message string) error {
	return pkgerrors.NewResponseValidationError(pkgerrors.CodeSchemaViolation, message)
}
