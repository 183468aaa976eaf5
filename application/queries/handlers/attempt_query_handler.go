package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"focusloop/application/ports"
	"focusloop/application/queries"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
	"focusloop/pkg/utils"
)

// AttemptQueryHandler answers attempt reads
type AttemptQueryHandler struct {
	store  ports.EntityStore
	logger *zap.Logger
}

// NewAttemptQueryHandler creates the handler
func NewAttemptQueryHandler(store ports.EntityStore, logger *zap.Logger) *AttemptQueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptQueryHandler{store: store, logger: logger}
}

// HandleGetAttempt executes the attempt read, verifying the attempt's topic
// belongs to the requesting user
func (h *AttemptQueryHandler) HandleGetAttempt(ctx context.Context, query queries.GetAttemptQuery) (*queries.AttemptResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	attemptID, err := valueobjects.NewAttemptIDFromString(query.AttemptID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	attempt, err := h.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}

	topic, err := h.store.GetTopic(ctx, attempt.TopicID())
	if err != nil {
		return nil, err
	}
	if topic.UserID() != query.UserID {
		return nil, pkgerrors.NewNotFoundError(fmt.Sprintf("attempt %s not found", query.AttemptID))
	}

	result := attemptResult(attempt)
	return &result, nil
}

func attemptResult(attempt *entities.Attempt) queries.AttemptResult {
	versions := make([]queries.VersionResult, 0, len(attempt.Versions()))
	for _, version := range attempt.Versions() {
		exerciseID := ""
		if !version.ExerciseID.IsZero() {
			exerciseID = version.ExerciseID.String()
		}
		versions = append(versions, queries.VersionResult{
			Version:    version.Number,
			Content:    version.Content.Text(),
			Type:       string(version.Source),
			ExerciseID: exerciseID,
			CreatedAt:  utils.FormatRFC3339(version.CreatedAt),
		})
	}

	history := make([]queries.FeedbackResult, 0, len(attempt.FeedbackHistory()))
	for _, feedback := range attempt.FeedbackHistory() {
		errs := make([]queries.FeedbackErrorResult, 0, len(feedback.Errors))
		for _, fe := range feedback.Errors {
			errs = append(errs, queries.FeedbackErrorResult{
				ID:             fe.ID,
				Point:          fe.Point,
				Counterexample: fe.Counterexample,
			})
		}
		history = append(history, queries.FeedbackResult{
			FeedbackID: feedback.FeedbackID.String(),
			Summary:    feedback.Summary,
			Errors:     errs,
			Suggestion: feedback.Suggestion,
			Source:     string(feedback.Source),
			Model:      feedback.Model,
			CreatedAt:  utils.FormatRFC3339(feedback.CreatedAt),
		})
	}

	var pending *queries.ExerciseResult
	if exercise := attempt.PendingExercise(); exercise != nil {
		pending = &queries.ExerciseResult{
			ExerciseID: exercise.ExerciseID.String(),
			Type:       string(exercise.Type),
			Payload:    exercise.Payload,
			Model:      exercise.Model,
			CreatedAt:  utils.FormatRFC3339(exercise.CreatedAt),
		}
	}

	return queries.AttemptResult{
		ID:              attempt.ID().String(),
		TopicID:         attempt.TopicID().String(),
		ThemeID:         attempt.ThemeID().String(),
		Status:          string(attempt.Status()),
		Cycles:          attempt.Cycles(),
		LatestVersion:   attempt.LatestVersionNumber(),
		Versions:        versions,
		FeedbackHistory: history,
		PendingExercise: pending,
		CreatedAt:       utils.FormatRFC3339(attempt.CreatedAt()),
		UpdatedAt:       utils.FormatRFC3339(attempt.UpdatedAt()),
	}
}
