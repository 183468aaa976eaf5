// Package commands defines the write operations of the learning loop.
// Every command validates itself before a handler sees it.
package commands

import (
	"focusloop/pkg/utils"
)

// SubmitAttemptCommand opens an attempt with the learner's explanation and
// starts the first analysis pass
type SubmitAttemptCommand struct {
	UserID  string `json:"user_id" validate:"required"`
	TopicID string `json:"topic_id" validate:"required,uuid"`
	ThemeID string `json:"theme_id" validate:"required,uuid"`
	Content string `json:"content" validate:"required,max=10000"`
}

// Validate checks the command's fields
func (c SubmitAttemptCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// FetchFeedbackCommand runs the critique model call for an attempt under
// analysis. Retry counts previous calls for the same pass; at most one
// retry is allowed.
type FetchFeedbackCommand struct {
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
	Retry     int    `json:"retry" validate:"min=0"`
}

// Validate checks the command's fields
func (c FetchFeedbackCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ConfirmFeedbackCommand accepts a raw critique (fetched or hand-edited),
// re-validates it and attaches it to the attempt
type ConfirmFeedbackCommand struct {
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
	Raw       string `json:"raw" validate:"required"`
	Model     string `json:"model"`
	Manual    bool   `json:"manual"`
}

// Validate checks the command's fields
func (c ConfirmFeedbackCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// RequestConceptCommand produces the theory refresher for the attempt's
// latest feedback
type RequestConceptCommand struct {
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
}

// Validate checks the command's fields
func (c RequestConceptCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// GenerateExerciseCommand builds a follow-up exercise of the given kind
type GenerateExerciseCommand struct {
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
	Kind      string `json:"kind" validate:"required"`
}

// Validate checks the command's fields
func (c GenerateExerciseCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// SubmitExerciseAnswerCommand records the learner's answer to the pending
// exercise and re-enters analysis
type SubmitExerciseAnswerCommand struct {
	AttemptID string `json:"attempt_id" validate:"required,uuid"`
	Answer    string `json:"answer" validate:"required,max=10000"`
}

// Validate checks the command's fields
func (c SubmitExerciseAnswerCommand) Validate() error {
	return utils.ValidateStruct(c)
}
