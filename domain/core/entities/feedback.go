package entities

import (
	"time"

	"focusloop/domain/core/valueobjects"
)

// FeedbackSource identifies where a feedback payload came from
type FeedbackSource string

const (
	FeedbackSourceModel  FeedbackSource = "model"
	FeedbackSourceManual FeedbackSource = "manual"
)

// FeedbackError is a single identified flaw in the learner's explanation,
// paired with the counterexample that exposes it
type FeedbackError struct {
	ID             string `json:"id"`
	Point          string `json:"point"`
	Counterexample string `json:"counterexample"`
}

// AttemptFeedback is the validated critique attached to an attempt after a
// successful analysis pass
type AttemptFeedback struct {
	FeedbackID    valueobjects.FeedbackID `json:"feedbackId"`
	AttemptID     valueobjects.AttemptID  `json:"attemptId"`
	Summary       string                  `json:"summary"`
	Errors        []FeedbackError         `json:"errors"`
	Suggestion    string                  `json:"suggestion"`
	Source        FeedbackSource          `json:"source"`
	Model         string                  `json:"model"`
	Raw           string                  `json:"raw"`
	SchemaVersion int                     `json:"schemaVersion"`
	CreatedAt     time.Time               `json:"createdAt"`
}

// ExerciseType classifies a follow-up exercise
type ExerciseType string

const (
	ExerciseTypeAnalytical  ExerciseType = "analytical"
	ExerciseTypeProposition ExerciseType = "proposition"
)

// ExercisePayload is a generated follow-up exercise waiting for an answer.
// Payload holds the exercise body as the model produced it: free text for
// analytical exercises, a JSON array of proposition variants for
// proposition exercises.
type ExercisePayload struct {
	ExerciseID valueobjects.ExerciseID `json:"exerciseId"`
	AttemptID  valueobjects.AttemptID  `json:"attemptId"`
	Type       ExerciseType            `json:"type"`
	Payload    string                  `json:"payload"`
	Model      string                  `json:"model"`
	CreatedAt  time.Time               `json:"createdAt"`
}

// DraftStatus tracks the autosave state of a draft buffer
type DraftStatus string

const (
	DraftStatusIdle   DraftStatus = "idle"
	DraftStatusSaving DraftStatus = "saving"
	DraftStatusSaved  DraftStatus = "saved"
	DraftStatusError  DraftStatus = "error"
)

// Draft is an autosaved edit buffer keyed by the surface that owns it
type Draft struct {
	Key       string      `json:"key"`
	Value     string      `json:"value"`
	Status    DraftStatus `json:"status"`
	UpdatedAt time.Time   `json:"updatedAt"`
}
