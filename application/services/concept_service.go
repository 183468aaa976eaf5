package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"focusloop/application/ports"
	"focusloop/domain/core/entities"
	pkgerrors "focusloop/pkg/errors"
)

// concept completion parameters
const (
	conceptTemperature = 0.4
	conceptMaxTokens   = 900
	conceptCacheTTL    = 3600
)

// ConceptService produces the theory refresher paragraph for a critique.
// Results are cached per (attempt, feedback) pair so revisiting a review
// does not repeat the model call.
type ConceptService struct {
	model  ports.ModelClient
	cache  ports.Cache
	logger *zap.Logger
}

// NewConceptService creates the service
func NewConceptService(model ports.ModelClient, cache ports.Cache, logger *zap.Logger) *ConceptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConceptService{model: model, cache: cache, logger: logger}
}

// ConceptFor returns the refresher text for an attempt's feedback, from
// cache when available
func (s *ConceptService) ConceptFor(
	ctx context.Context,
	attempt *entities.Attempt,
	feedback *entities.AttemptFeedback,
	themeTitle string,
	settings *entities.Settings,
) (string, error) {
	if feedback == nil {
		return "", pkgerrors.NewValidationError("concept generation requires feedback")
	}

	key := conceptCacheKey(attempt, feedback)
	if s.cache != nil {
		if cached, ok := s.cache.Get(ctx, key); ok {
			if text, ok := cached.(string); ok {
				s.logger.Debug("concept served from cache", zap.String("key", key))
				return text, nil
			}
		}
	}

	response, err := s.model.Complete(ctx, ports.ModelRequest{
		Model:        settings.SelectedModel,
		SystemPrompt: SystemPromptConcept,
		Prompt:       BuildConceptPrompt(feedback, themeTitle),
		MaxTokens:    conceptMaxTokens,
		Temperature:  conceptTemperature,
	})
	if err != nil {
		return "", err
	}

	text := strings.TrimSpace(response)
	if text == "" {
		return "", pkgerrors.NewExternalError("model returned an empty concept", nil)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, text, conceptCacheTTL); err != nil {
			s.logger.Warn("concept cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return text, nil
}

func conceptCacheKey(attempt *entities.Attempt, feedback *entities.AttemptFeedback) string {
	return fmt.Sprintf("concept:%s-%s", attempt.ID().String(), feedback.FeedbackID.String())
}
