package queries

import "errors"

// GetAttemptQuery fetches one attempt with its full version and feedback
// history
type GetAttemptQuery struct {
	UserID    string
	AttemptID string
}

// Validate validates the GetAttemptQuery
func (q GetAttemptQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user ID is required")
	}
	if q.AttemptID == "" {
		return errors.New("attempt ID is required")
	}
	return nil
}

// VersionResult is one content version of an attempt, newest first
type VersionResult struct {
	Version    int    `json:"version"`
	Content    string `json:"content"`
	Type       string `json:"type"`
	ExerciseID string `json:"exerciseId,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// FeedbackErrorResult is one conceptual error inside a critique
type FeedbackErrorResult struct {
	ID             string `json:"id"`
	Point          string `json:"point"`
	Counterexample string `json:"counterexample"`
}

// FeedbackResult is one attached critique
type FeedbackResult struct {
	FeedbackID string                `json:"feedbackId"`
	Summary    string                `json:"summary"`
	Errors     []FeedbackErrorResult `json:"errors"`
	Suggestion string                `json:"suggestion"`
	Source     string                `json:"source"`
	Model      string                `json:"model,omitempty"`
	CreatedAt  string                `json:"createdAt"`
}

// ExerciseResult is the pending exercise, when one exists
type ExerciseResult struct {
	ExerciseID string `json:"exerciseId"`
	Type       string `json:"type"`
	Payload    string `json:"payload"`
	Model      string `json:"model,omitempty"`
	CreatedAt  string `json:"createdAt"`
}

// AttemptResult is the read shape of an attempt
type AttemptResult struct {
	ID              string           `json:"id"`
	TopicID         string           `json:"topicId"`
	ThemeID         string           `json:"themeId"`
	Status          string           `json:"status"`
	Cycles          int              `json:"cycles"`
	LatestVersion   int              `json:"latestVersion"`
	Versions        []VersionResult  `json:"versions"`
	FeedbackHistory []FeedbackResult `json:"feedbackHistory"`
	PendingExercise *ExerciseResult  `json:"pendingExercise,omitempty"`
	CreatedAt       string           `json:"createdAt"`
	UpdatedAt       string           `json:"updatedAt"`
}
