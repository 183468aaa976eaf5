// Package handlers contains the command handlers. The attempt orchestrator
// drives the learning loop's state machine:
//
//	draft -> submitted -> analyzing -> reviewed -> exercise_generated -> answered -> (analyzing)
//
// Guard checks run before any write, so a rejected operation changes
// nothing. External calls happen outside the store lock; their results pass
// a commit gate that re-checks the attempt still exists.
package handlers

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"focusloop/application/commands"
	"focusloop/application/ports"
	"focusloop/application/services"
	"focusloop/domain/config"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/validators"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
	"focusloop/pkg/observability"
)

// feedback completion parameters
const (
	feedbackTemperature = 0.2
	feedbackMaxTokens   = 1200

	analyticalTemperature = 0.35
	analyticalMaxTokens   = 800
)

// FeedbackResult is what FetchFeedback hands back for review: the raw
// response ready to confirm, already known to validate
type FeedbackResult struct {
	Raw      string
	Model    string
	Feedback *entities.AttemptFeedback
}

// AttemptOrchestrator executes the lifecycle commands against the store and
// the model provider
type AttemptOrchestrator struct {
	store     ports.EntityStore
	model     ports.ModelClient
	chain     *services.PropositionChain
	concepts  *services.ConceptService
	outbox    ports.EventStore
	metrics   *observability.Metrics
	cfg       *config.DomainConfig
	logger    *zap.Logger
}

// NewAttemptOrchestrator creates the orchestrator
func NewAttemptOrchestrator(
	store ports.EntityStore,
	model ports.ModelClient,
	chain *services.PropositionChain,
	concepts *services.ConceptService,
	outbox ports.EventStore,
	metrics *observability.Metrics,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *AttemptOrchestrator {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttemptOrchestrator{
		store:     store,
		model:     model,
		chain:     chain,
		concepts:  concepts,
		outbox:    outbox,
		metrics:   metrics,
		cfg:       cfg,
		logger:    logger,
	}
}

// SubmitAttempt opens an attempt with the explanation as version 1 and
// starts the first analysis pass
func (o *AttemptOrchestrator) SubmitAttempt(ctx context.Context, cmd commands.SubmitAttemptCommand) (*entities.Attempt, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	topicID, err := valueobjects.NewTopicIDFromString(cmd.TopicID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	themeID, err := valueobjects.NewThemeIDFromString(cmd.ThemeID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	content, err := valueobjects.NewAttemptContentWithConfig(cmd.Content, o.cfg)
	if err != nil {
		return nil, err
	}

	attempt, err := o.store.CreateAttempt(ctx, topicID, themeID, content)
	if err != nil {
		return nil, err
	}

	// the first analysis pass starts immediately
	if err := o.store.SetStatus(ctx, attempt.ID(), entities.StatusAnalyzing); err != nil {
		return nil, err
	}
	if err := o.store.IncrementCycle(ctx, attempt.ID()); err != nil {
		return nil, err
	}

	o.metrics.Count(ctx, observability.MetricAttemptsCreated, 1, nil)
	o.logger.Info("attempt submitted",
		zap.String("attempt_id", attempt.ID().String()),
		zap.String("theme_id", themeID.String()),
	)
	o.flushEvents(ctx, attempt.ID().String())

	return o.store.GetAttempt(ctx, attempt.ID())
}

// FetchFeedback runs the critique call for an attempt under analysis. The
// response is validated before anything changes; an invalid response leaves
// the attempt analyzing so the caller may retry once.
func (o *AttemptOrchestrator) FetchFeedback(ctx context.Context, cmd commands.FetchFeedbackCommand) (*FeedbackResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if cmd.Retry > o.cfg.MaxFeedbackRetries {
		return nil, pkgerrors.NewGuardViolation(pkgerrors.CodeRetryLimit, "feedback retry limit reached")
	}

	attemptID, err := valueobjects.NewAttemptIDFromString(cmd.AttemptID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	attempt, err := o.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.Status() != entities.StatusAnalyzing {
		return nil, pkgerrors.NewGuardViolation(pkgerrors.CodeInvalidStatus,
			fmt.Sprintf("attempt is %s, critique requires analyzing", attempt.Status()))
	}

	themeTitle, err := o.themeTitle(ctx, attempt)
	if err != nil {
		return nil, err
	}
	settings, err := o.store.Settings(ctx)
	if err != nil {
		return nil, err
	}

	prompt := services.BuildFeedbackPrompt(themeTitle, attempt.LatestVersion().Content.Text(), attempt.ID().String())
	raw, err := o.complete(ctx, ports.ModelRequest{
		Model:        settings.SelectedModel,
		SystemPrompt: services.SystemPromptFeedback,
		Prompt:       prompt,
		MaxTokens:    feedbackMaxTokens,
		Temperature:  feedbackTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	feedback, err := validators.ParseFeedback(raw, validators.FeedbackMeta{
		Model:             settings.SelectedModel,
		ExpectedAttemptID: attempt.ID(),
		Source:            entities.FeedbackSourceModel,
	})
	if err != nil {
		// attempt stays analyzing; the caller decides whether to retry
		return nil, err
	}

	return &FeedbackResult{Raw: raw, Model: settings.SelectedModel, Feedback: feedback}, nil
}

// ConfirmFeedback re-validates a raw critique and commits it: the raw text
// becomes a feedback-type version and the attempt moves to reviewed.
// Results for attempts deleted mid-flight are dropped without error.
func (o *AttemptOrchestrator) ConfirmFeedback(ctx context.Context, cmd commands.ConfirmFeedbackCommand) (*entities.AttemptFeedback, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	attemptID, err := valueobjects.NewAttemptIDFromString(cmd.AttemptID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	source := entities.FeedbackSourceModel
	if cmd.Manual {
		source = entities.FeedbackSourceManual
	}
	feedback, err := validators.ParseFeedback(cmd.Raw, validators.FeedbackMeta{
		Model:             cmd.Model,
		ExpectedAttemptID: attemptID,
		Source:            source,
	})
	if err != nil {
		return nil, err
	}

	// commit gate: the attempt may have been deleted while under review
	attempt, err := o.store.GetAttempt(ctx, attemptID)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			o.logger.Info("feedback dropped, attempt gone", zap.String("attempt_id", cmd.AttemptID))
			return nil, nil
		}
		return nil, err
	}

	if _, err := o.store.PushVersion(ctx, attempt.ID(), mustRawContent(cmd.Raw), entities.VersionSourceFeedback, valueobjects.ExerciseID{}); err != nil {
		return nil, err
	}
	if err := o.store.AttachFeedback(ctx, attempt.ID(), *feedback); err != nil {
		return nil, err
	}

	o.flushEvents(ctx, attempt.ID().String())
	return feedback, nil
}

// RequestConcept returns the theory refresher for the attempt's latest
// feedback. A concept failure never reverts the reviewed state.
func (o *AttemptOrchestrator) RequestConcept(ctx context.Context, cmd commands.RequestConceptCommand) (string, error) {
	if err := cmd.Validate(); err != nil {
		return "", pkgerrors.NewValidationError(err.Error())
	}

	attemptID, err := valueobjects.NewAttemptIDFromString(cmd.AttemptID)
	if err != nil {
		return "", pkgerrors.NewValidationError(err.Error())
	}
	attempt, err := o.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return "", err
	}
	feedback := attempt.LatestFeedback()
	if feedback == nil {
		return "", pkgerrors.NewValidationError("attempt has no feedback to explain")
	}

	themeTitle, err := o.themeTitle(ctx, attempt)
	if err != nil {
		return "", err
	}
	settings, err := o.store.Settings(ctx)
	if err != nil {
		return "", err
	}

	return o.concepts.ConceptFor(ctx, attempt, feedback, themeTitle, settings)
}

// GenerateExercise builds a follow-up exercise of the requested kind and
// stores it as the pending exercise
func (o *AttemptOrchestrator) GenerateExercise(ctx context.Context, cmd commands.GenerateExerciseCommand) (*entities.ExercisePayload, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	kind, err := validators.NormalizeExerciseType(cmd.Kind)
	if err != nil {
		return nil, err
	}

	attemptID, err := valueobjects.NewAttemptIDFromString(cmd.AttemptID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	attempt, err := o.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.AtCycleLimit(o.cfg) {
		o.metrics.Count(ctx, observability.MetricCycleLimitHits, 1, nil)
		return nil, pkgerrors.NewGuardViolation(pkgerrors.CodeCycleLimit, "attempt reached the cycle limit")
	}
	feedback := attempt.LatestFeedback()
	if feedback == nil {
		return nil, pkgerrors.NewValidationError("attempt has no feedback to build an exercise from")
	}

	settings, err := o.store.Settings(ctx)
	if err != nil {
		return nil, err
	}

	var exercise *entities.ExercisePayload
	switch kind {
	case entities.ExerciseTypeProposition:
		exercise, err = o.chain.Generate(ctx, attempt, feedback, settings)
	default:
		exercise, err = o.generateAnalytical(ctx, attempt, feedback, settings)
	}
	if err != nil {
		return nil, err
	}

	// commit gate: drop the result when the attempt vanished mid-call
	if _, err := o.store.GetAttempt(ctx, attemptID); err != nil {
		if pkgerrors.IsNotFound(err) {
			o.logger.Info("exercise dropped, attempt gone", zap.String("attempt_id", cmd.AttemptID))
			return nil, nil
		}
		return nil, err
	}
	if err := o.store.SetPendingExercise(ctx, attemptID, exercise); err != nil {
		return nil, err
	}

	o.metrics.Count(ctx, observability.MetricExercisesCreated, 1, map[string]string{"kind": string(kind)})
	o.flushEvents(ctx, attemptID.String())
	return exercise, nil
}

// SubmitExerciseAnswer records the answer as an exercise-type version,
// clears the pending slot and re-enters analysis with the post-push content
func (o *AttemptOrchestrator) SubmitExerciseAnswer(ctx context.Context, cmd commands.SubmitExerciseAnswerCommand) (*entities.Attempt, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	attemptID, err := valueobjects.NewAttemptIDFromString(cmd.AttemptID)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	attempt, err := o.store.GetAttempt(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if attempt.AtCycleLimit(o.cfg) {
		o.metrics.Count(ctx, observability.MetricCycleLimitHits, 1, nil)
		return nil, pkgerrors.NewGuardViolation(pkgerrors.CodeCycleLimit, "attempt reached the cycle limit")
	}
	pending := attempt.PendingExercise()
	if pending == nil {
		return nil, pkgerrors.NewValidationError("attempt has no pending exercise to answer")
	}

	content, err := valueobjects.NewAttemptContentWithConfig(cmd.Answer, o.cfg)
	if err != nil {
		return nil, err
	}

	updated, err := o.store.PushVersion(ctx, attemptID, content, entities.VersionSourceExercise, pending.ExerciseID)
	if err != nil {
		return nil, err
	}
	if err := o.store.RecordAnswer(ctx, attemptID); err != nil {
		return nil, err
	}
	if err := o.store.SetStatus(ctx, attemptID, entities.StatusAnalyzing); err != nil {
		return nil, err
	}

	o.logger.Info("exercise answered",
		zap.String("attempt_id", attemptID.String()),
		zap.Int("version", updated.LatestVersionNumber()),
	)
	o.flushEvents(ctx, attemptID.String())

	return o.store.GetAttempt(ctx, attemptID)
}

// generateAnalytical is the single-call exercise path
func (o *AttemptOrchestrator) generateAnalytical(
	ctx context.Context,
	attempt *entities.Attempt,
	feedback *entities.AttemptFeedback,
	settings *entities.Settings,
) (*entities.ExercisePayload, error) {
	conceptText := ""
	if o.concepts != nil {
		themeTitle, err := o.themeTitle(ctx, attempt)
		if err == nil {
			if text, err := o.concepts.ConceptFor(ctx, attempt, feedback, themeTitle, settings); err == nil {
				conceptText = text
			}
		}
	}

	prompt := services.BuildAnalyticalExercisePrompt(feedback, conceptText, attempt.LatestVersionNumber())
	raw, err := o.complete(ctx, ports.ModelRequest{
		Model:        settings.SelectedModel,
		SystemPrompt: services.SystemPromptExercise,
		Prompt:       prompt,
		MaxTokens:    analyticalMaxTokens,
		Temperature:  analyticalTemperature,
		JSONResponse: true,
	})
	if err != nil {
		return nil, err
	}

	return validators.ParseExercise(raw, validators.ExerciseMeta{
		Model:     settings.SelectedModel,
		AttemptID: attempt.ID(),
	})
}

// complete wraps model calls with metrics
func (o *AttemptOrchestrator) complete(ctx context.Context, req ports.ModelRequest) (string, error) {
	start := time.Now()
	raw, err := o.model.Complete(ctx, req)
	o.metrics.Duration(ctx, observability.MetricModelCallLatency, time.Since(start), nil)
	o.metrics.Count(ctx, observability.MetricModelCalls, 1, nil)
	if err != nil {
		o.metrics.Count(ctx, observability.MetricModelCallFailures, 1, nil)
		return "", err
	}
	return raw, nil
}

// themeTitle resolves the attempt's theme title through its topic
func (o *AttemptOrchestrator) themeTitle(ctx context.Context, attempt *entities.Attempt) (string, error) {
	topic, err := o.store.GetTopic(ctx, attempt.TopicID())
	if err != nil {
		return "", err
	}
	theme := topic.Theme(attempt.ThemeID())
	if theme == nil {
		return "", pkgerrors.NewNotFoundError("theme not found for attempt")
	}
	return theme.Title(), nil
}

// flushEvents drains the transitions the aggregate recorded and writes
// them to the outbox, best effort. A write failure is logged and swallowed
// so it never rolls back a commit; the relay publishes what was stored.
func (o *AttemptOrchestrator) flushEvents(ctx context.Context, aggregateID string) {
	drained, err := o.store.DrainEvents(ctx, aggregateID)
	if err != nil || len(drained) == 0 {
		return
	}
	if o.outbox == nil {
		return
	}
	if err := o.outbox.SaveEvents(ctx, drained); err != nil {
		o.logger.Warn("outbox write failed",
			zap.String("aggregate_id", aggregateID),
			zap.Int("event_count", len(drained)),
			zap.Error(err),
		)
	}
}

// mustRawContent wraps already-validated raw text. The raw critique was
// produced by a model call bounded well under the content limit, so the
// value object constructor cannot fail on length.
func mustRawContent(raw string) valueobjects.AttemptContent {
	content, err := valueobjects.NewAttemptContent(raw)
	if err != nil {
		content, _ = valueobjects.NewAttemptContent("{}")
	}
	return content
}
