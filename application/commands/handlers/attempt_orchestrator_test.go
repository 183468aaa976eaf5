package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"focusloop/application/commands"
	"focusloop/application/ports"
	"focusloop/application/services"
	"focusloop/domain/config"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	"focusloop/domain/events"
	"focusloop/infrastructure/persistence/memory"
	pkgerrors "focusloop/pkg/errors"
)

type scriptedModel struct {
	responses []string
	err       error
	errAt     int
	calls     []ports.ModelRequest
}

func (m *scriptedModel) Complete(_ context.Context, req ports.ModelRequest) (string, error) {
	m.calls = append(m.calls, req)
	if m.err != nil && (m.errAt == 0 || len(m.calls) == m.errAt) {
		return "", m.err
	}
	if len(m.responses) == 0 {
		return "", fmt.Errorf("scripted model exhausted after %d calls", len(m.calls))
	}
	next := m.responses[0]
	m.responses = m.responses[1:]
	return next, nil
}

func (m *scriptedModel) ListModels(context.Context) ([]entities.ModelInfo, error) {
	return nil, nil
}

type capturingOutbox struct {
	saved []events.DomainEvent
}

func (o *capturingOutbox) SaveEvents(_ context.Context, batch []events.DomainEvent) error {
	o.saved = append(o.saved, batch...)
	return nil
}

func (o *capturingOutbox) GetEvents(_ context.Context, aggregateID string) ([]events.DomainEvent, error) {
	var out []events.DomainEvent
	for _, event := range o.saved {
		if event.GetAggregateID() == aggregateID {
			out = append(out, event)
		}
	}
	return out, nil
}

func (o *capturingOutbox) DeleteEvents(context.Context, string) error {
	return nil
}

func (o *capturingOutbox) types() []string {
	names := make([]string, len(o.saved))
	for i, event := range o.saved {
		names[i] = event.GetEventType()
	}
	return names
}

type fixture struct {
	orchestrator *AttemptOrchestrator
	store        *memory.Store
	model        *scriptedModel
	outbox       *capturingOutbox
	topicID      valueobjects.TopicID
	themeID      valueobjects.ThemeID
}

func newFixture(t *testing.T, responses ...string) *fixture {
	t.Helper()
	store := memory.NewStore(nil, zap.NewNop())
	model := &scriptedModel{responses: responses}
	outbox := &capturingOutbox{}
	orchestrator := NewAttemptOrchestrator(
		store,
		model,
		services.NewPropositionChain(model, zap.NewNop()),
		services.NewConceptService(model, nil, zap.NewNop()),
		outbox,
		nil,
		config.DefaultDomainConfig(),
		zap.NewNop(),
	)

	ctx := context.Background()
	topic, err := store.UpsertTopic(ctx, "user-1", valueobjects.TopicID{}, "Calculo")
	require.NoError(t, err)
	theme, err := store.AddTheme(ctx, topic.ID(), "Limites laterales")
	require.NoError(t, err)

	return &fixture{
		orchestrator: orchestrator,
		store:        store,
		model:        model,
		outbox:       outbox,
		topicID:      topic.ID(),
		themeID:      theme.ID(),
	}
}

func (f *fixture) submit(t *testing.T) *entities.Attempt {
	t.Helper()
	attempt, err := f.orchestrator.SubmitAttempt(context.Background(), commands.SubmitAttemptCommand{
		UserID:  "user-1",
		TopicID: f.topicID.String(),
		ThemeID: f.themeID.String(),
		Content: "El limite lateral existe cuando ambos lados coinciden.",
	})
	require.NoError(t, err)
	return attempt
}

// driveToCycleLimit raises the attempt's cycle count to the configured
// maximum so guard behavior can be observed
func (f *fixture) driveToCycleLimit(t *testing.T, attemptID valueobjects.AttemptID) {
	t.Helper()
	ctx := context.Background()
	for {
		attempt, err := f.store.GetAttempt(ctx, attemptID)
		require.NoError(t, err)
		if attempt.AtCycleLimit(config.DefaultDomainConfig()) {
			return
		}
		require.NoError(t, f.store.IncrementCycle(ctx, attemptID))
	}
}

func (f *fixture) attachFeedback(t *testing.T, attemptID valueobjects.AttemptID) *entities.AttemptFeedback {
	t.Helper()
	feedback := entities.AttemptFeedback{
		FeedbackID: mustExerciseFeedbackID(t, "fb-1"),
		AttemptID:  attemptID,
		Summary:    "Confunde limite lateral con continuidad.",
		Errors: []entities.FeedbackError{
			{ID: "e1", Point: "Afirma que el limite siempre existe", Counterexample: "f(x)=1/x en 0"},
		},
		Suggestion: "Revisa la definicion con epsilon-delta.",
		Source:     entities.FeedbackSourceModel,
	}
	require.NoError(t, f.store.AttachFeedback(context.Background(), attemptID, feedback))
	return &feedback
}

func mustExerciseFeedbackID(t *testing.T, raw string) valueobjects.FeedbackID {
	t.Helper()
	id, err := valueobjects.NewFeedbackIDFromString(raw)
	require.NoError(t, err)
	return id
}

func validFeedbackJSON(attemptID string) string {
	return fmt.Sprintf(`{
		"feedback_id": "fb-model-1",
		"attempt_id": %q,
		"summary": "La explicacion omite el caso divergente.",
		"errors": [
			{"id": "e1", "point": "Asume convergencia", "counterexample": "la sucesion (-1)^n"}
		],
		"suggestion": "Distingue convergencia de acotacion."
	}`, attemptID)
}

func TestSubmitAttempt(t *testing.T) {
	t.Run("creates attempt and starts first analysis pass", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)

		assert.Equal(t, entities.StatusAnalyzing, attempt.Status())
		assert.Equal(t, 1, attempt.Cycles())
		assert.Equal(t, 1, attempt.LatestVersionNumber())
		assert.Equal(t, entities.VersionSourceInitial, attempt.LatestVersion().Source)

		// the entity's recorded transitions land in the outbox for the relay
		types := f.outbox.types()
		assert.Contains(t, types, "attempt.created")
		assert.Contains(t, types, "attempt.version_pushed")
		assert.Contains(t, types, "attempt.status_changed")
	})

	t.Run("rejects empty content before any write", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.orchestrator.SubmitAttempt(context.Background(), commands.SubmitAttemptCommand{
			UserID:  "user-1",
			TopicID: f.topicID.String(),
			ThemeID: f.themeID.String(),
			Content: "   ",
		})
		require.Error(t, err)
		assert.Empty(t, f.outbox.saved)
	})

	t.Run("rejects unknown theme", func(t *testing.T) {
		f := newFixture(t)
		ghost := valueobjects.NewThemeID()
		_, err := f.orchestrator.SubmitAttempt(context.Background(), commands.SubmitAttemptCommand{
			UserID:  "user-1",
			TopicID: f.topicID.String(),
			ThemeID: ghost.String(),
			Content: "algo",
		})
		require.Error(t, err)
	})
}

func TestFetchFeedback(t *testing.T) {
	t.Run("returns parsed feedback on a valid response", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.model.responses = []string{validFeedbackJSON(attempt.ID().String())}

		result, err := f.orchestrator.FetchFeedback(context.Background(), commands.FetchFeedbackCommand{
			AttemptID: attempt.ID().String(),
		})
		require.NoError(t, err)
		require.NotNil(t, result.Feedback)
		assert.Equal(t, "fb-model-1", result.Feedback.FeedbackID.String())
		assert.Equal(t, entities.FeedbackSourceModel, result.Feedback.Source)

		require.Len(t, f.model.calls, 1)
		call := f.model.calls[0]
		assert.True(t, call.JSONResponse)
		assert.Contains(t, call.Prompt, "Limites laterales")
		assert.Contains(t, call.Prompt, attempt.ID().String())
	})

	t.Run("rejects retries past the limit without calling the model", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)

		_, err := f.orchestrator.FetchFeedback(context.Background(), commands.FetchFeedbackCommand{
			AttemptID: attempt.ID().String(),
			Retry:     2,
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeRetryLimit))
		assert.Empty(t, f.model.calls)
	})

	t.Run("an invalid response leaves the attempt analyzing", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.model.responses = []string{`{"nonsense": true}`}

		_, err := f.orchestrator.FetchFeedback(context.Background(), commands.FetchFeedbackCommand{
			AttemptID: attempt.ID().String(),
		})
		require.Error(t, err)

		reloaded, err := f.store.GetAttempt(context.Background(), attempt.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.StatusAnalyzing, reloaded.Status())
		assert.Equal(t, 1, reloaded.LatestVersionNumber())
	})

	t.Run("refuses an attempt that is not analyzing", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())

		_, err := f.orchestrator.FetchFeedback(context.Background(), commands.FetchFeedbackCommand{
			AttemptID: attempt.ID().String(),
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeInvalidStatus))
		assert.True(t, pkgerrors.IsGuardViolation(err))
		assert.Empty(t, f.model.calls)
	})

	t.Run("a mismatched attempt id is rejected", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.model.responses = []string{validFeedbackJSON(valueobjects.NewAttemptID().String())}

		_, err := f.orchestrator.FetchFeedback(context.Background(), commands.FetchFeedbackCommand{
			AttemptID: attempt.ID().String(),
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeAttemptMismatch))
	})
}

func TestConfirmFeedback(t *testing.T) {
	t.Run("records the raw critique as a feedback version", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		raw := validFeedbackJSON(attempt.ID().String())

		feedback, err := f.orchestrator.ConfirmFeedback(context.Background(), commands.ConfirmFeedbackCommand{
			AttemptID: attempt.ID().String(),
			Raw:       raw,
			Model:     "llama-3.3-70b-versatile",
		})
		require.NoError(t, err)
		require.NotNil(t, feedback)

		reloaded, err := f.store.GetAttempt(context.Background(), attempt.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.StatusReviewed, reloaded.Status())
		assert.Equal(t, 2, reloaded.LatestVersionNumber())
		assert.Equal(t, entities.VersionSourceFeedback, reloaded.LatestVersion().Source)
		require.Len(t, reloaded.FeedbackHistory(), 1)
		assert.Equal(t, "fb-model-1", reloaded.FeedbackHistory()[0].FeedbackID.String())
	})

	t.Run("confirmation reaches the outbox", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.outbox.saved = nil

		_, err := f.orchestrator.ConfirmFeedback(context.Background(), commands.ConfirmFeedbackCommand{
			AttemptID: attempt.ID().String(),
			Raw:       validFeedbackJSON(attempt.ID().String()),
		})
		require.NoError(t, err)

		types := f.outbox.types()
		assert.Contains(t, types, "attempt.feedback_attached")
		assert.Contains(t, types, "attempt.status_changed")

		stored, err := f.outbox.GetEvents(context.Background(), attempt.ID().String())
		require.NoError(t, err)
		assert.NotEmpty(t, stored)
	})

	t.Run("manual confirmations carry the manual source", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)

		feedback, err := f.orchestrator.ConfirmFeedback(context.Background(), commands.ConfirmFeedbackCommand{
			AttemptID: attempt.ID().String(),
			Raw:       validFeedbackJSON(attempt.ID().String()),
			Manual:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, entities.FeedbackSourceManual, feedback.Source)
	})

	t.Run("drops the result when the attempt was deleted", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		raw := validFeedbackJSON(attempt.ID().String())
		require.NoError(t, f.store.DeleteTopic(context.Background(), f.topicID))

		feedback, err := f.orchestrator.ConfirmFeedback(context.Background(), commands.ConfirmFeedbackCommand{
			AttemptID: attempt.ID().String(),
			Raw:       raw,
		})
		require.NoError(t, err)
		assert.Nil(t, feedback)
	})

	t.Run("rejects malformed raw payloads", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)

		_, err := f.orchestrator.ConfirmFeedback(context.Background(), commands.ConfirmFeedbackCommand{
			AttemptID: attempt.ID().String(),
			Raw:       "not json at all",
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeMalformedPayload))
	})
}

func TestRequestConcept(t *testing.T) {
	t.Run("returns the refresher for the latest feedback", func(t *testing.T) {
		f := newFixture(t, "Un limite lateral estudia el acercamiento desde un solo lado.")
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())

		concept, err := f.orchestrator.RequestConcept(context.Background(), commands.RequestConceptCommand{
			AttemptID: attempt.ID().String(),
		})
		require.NoError(t, err)
		assert.Contains(t, concept, "limite lateral")
	})

	t.Run("requires feedback to exist", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)

		_, err := f.orchestrator.RequestConcept(context.Background(), commands.RequestConceptCommand{
			AttemptID: attempt.ID().String(),
		})
		require.Error(t, err)
		assert.Empty(t, f.model.calls)
	})
}

func TestGenerateExercise(t *testing.T) {
	analyticalResponse := `{"exercise_id": "ex-42", "type": "analitico", "payload": "Demuestra que el limite de x^2 en 2 es 4."}`

	t.Run("analytical path stores the pending exercise", func(t *testing.T) {
		f := newFixture(t, "Repaso conceptual.", analyticalResponse)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())

		exercise, err := f.orchestrator.GenerateExercise(context.Background(), commands.GenerateExerciseCommand{
			AttemptID: attempt.ID().String(),
			Kind:      "analitico",
		})
		require.NoError(t, err)
		require.NotNil(t, exercise)
		assert.Equal(t, entities.ExerciseTypeAnalytical, exercise.Type)
		assert.Equal(t, "ex-42", exercise.ExerciseID.String())

		reloaded, err := f.store.GetAttempt(context.Background(), attempt.ID())
		require.NoError(t, err)
		assert.Equal(t, entities.StatusExerciseGenerated, reloaded.Status())
		require.NotNil(t, reloaded.PendingExercise())
		assert.Equal(t, "ex-42", reloaded.PendingExercise().ExerciseID.String())
	})

	t.Run("proposition path runs the four-call chain", func(t *testing.T) {
		f := newFixture(t,
			"Si una funcion es derivable entonces es continua",
			"Si una funcion es continua entonces es derivable",
			"Si una funcion no es derivable entonces no es continua",
			"Si una funcion no es continua entonces no es derivable",
		)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())

		exercise, err := f.orchestrator.GenerateExercise(context.Background(), commands.GenerateExerciseCommand{
			AttemptID: attempt.ID().String(),
			Kind:      "proposicion",
		})
		require.NoError(t, err)
		require.NotNil(t, exercise)
		assert.Equal(t, entities.ExerciseTypeProposition, exercise.Type)
		assert.Len(t, f.model.calls, 4)

		var statements []string
		require.NoError(t, json.Unmarshal([]byte(exercise.Payload), &statements))
		assert.Len(t, statements, 3)
	})

	t.Run("rejects generation at the cycle ceiling", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())
		f.driveToCycleLimit(t, attempt.ID())

		_, err := f.orchestrator.GenerateExercise(context.Background(), commands.GenerateExerciseCommand{
			AttemptID: attempt.ID().String(),
			Kind:      "analytical",
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCycleLimit))
		assert.Empty(t, f.model.calls)

		reloaded, err := f.store.GetAttempt(context.Background(), attempt.ID())
		require.NoError(t, err)
		assert.Nil(t, reloaded.PendingExercise())
	})

	t.Run("rejects unknown exercise kinds", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())

		_, err := f.orchestrator.GenerateExercise(context.Background(), commands.GenerateExerciseCommand{
			AttemptID: attempt.ID().String(),
			Kind:      "proposiciones",
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUnknownExerciseType))
	})
}

func TestSubmitExerciseAnswer(t *testing.T) {
	setPending := func(t *testing.T, f *fixture, attemptID valueobjects.AttemptID) *entities.ExercisePayload {
		t.Helper()
		exerciseID, err := valueobjects.NewExerciseIDFromString("ex-42")
		require.NoError(t, err)
		exercise := &entities.ExercisePayload{
			ExerciseID: exerciseID,
			AttemptID:  attemptID,
			Type:       entities.ExerciseTypeAnalytical,
			Payload:    "Demuestra la unicidad del limite.",
		}
		require.NoError(t, f.store.SetPendingExercise(context.Background(), attemptID, exercise))
		return exercise
	}

	t.Run("answer becomes an exercise version and analysis restarts", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())
		setPending(t, f, attempt.ID())

		updated, err := f.orchestrator.SubmitExerciseAnswer(context.Background(), commands.SubmitExerciseAnswerCommand{
			AttemptID: attempt.ID().String(),
			Answer:    "Supongamos dos limites distintos L1 y L2 y tomemos epsilon igual a su distancia media.",
		})
		require.NoError(t, err)

		assert.Equal(t, entities.StatusAnalyzing, updated.Status())
		assert.Equal(t, 2, updated.Cycles())
		assert.Equal(t, 2, updated.LatestVersionNumber())
		assert.Equal(t, entities.VersionSourceExercise, updated.LatestVersion().Source)
		assert.Equal(t, "ex-42", updated.LatestVersion().ExerciseID.String())
		assert.Nil(t, updated.PendingExercise())
	})

	t.Run("the cycle guard runs before any write", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)
		f.attachFeedback(t, attempt.ID())
		setPending(t, f, attempt.ID())
		f.driveToCycleLimit(t, attempt.ID())

		_, err := f.orchestrator.SubmitExerciseAnswer(context.Background(), commands.SubmitExerciseAnswerCommand{
			AttemptID: attempt.ID().String(),
			Answer:    "una respuesta",
		})
		require.Error(t, err)
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeCycleLimit))

		reloaded, err := f.store.GetAttempt(context.Background(), attempt.ID())
		require.NoError(t, err)
		assert.Equal(t, 1, reloaded.LatestVersionNumber())
		assert.NotNil(t, reloaded.PendingExercise())
	})

	t.Run("requires a pending exercise", func(t *testing.T) {
		f := newFixture(t)
		attempt := f.submit(t)

		_, err := f.orchestrator.SubmitExerciseAnswer(context.Background(), commands.SubmitExerciseAnswerCommand{
			AttemptID: attempt.ID().String(),
			Answer:    "una respuesta",
		})
		require.Error(t, err)
	})
}
