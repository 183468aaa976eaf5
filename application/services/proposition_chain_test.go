package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"focusloop/application/ports"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
	"focusloop/pkg/utils"
)

// scriptedModel replays canned responses and records the prompts it saw
type scriptedModel struct {
	responses []string
	err       error
	errAt     int
	calls     int
	prompts   []string
}

func (m *scriptedModel) Complete(ctx context.Context, req ports.ModelRequest) (string, error) {
	m.prompts = append(m.prompts, req.Prompt)
	idx := m.calls
	m.calls++
	if m.err != nil && idx == m.errAt {
		return "", m.err
	}
	if idx < len(m.responses) {
		return m.responses[idx], nil
	}
	return "", nil
}

func (m *scriptedModel) ListModels(ctx context.Context) ([]entities.ModelInfo, error) {
	return nil, nil
}

func chainFixtures(t *testing.T) (*entities.Attempt, *entities.AttemptFeedback, *entities.Settings) {
	t.Helper()
	content, err := valueobjects.NewAttemptContent("my explanation")
	require.NoError(t, err)
	attempt, err := entities.NewAttempt(valueobjects.NewTopicID(), valueobjects.NewThemeID(), content)
	require.NoError(t, err)

	feedbackID, err := valueobjects.NewFeedbackIDFromString("fb-1")
	require.NoError(t, err)
	feedback := &entities.AttemptFeedback{
		FeedbackID: feedbackID,
		AttemptID:  attempt.ID(),
		Summary:    "resumen",
		Suggestion: "sugerencia",
		Errors:     []entities.FeedbackError{{ID: "e1", Point: "punto", Counterexample: "contra"}},
	}

	settings := entities.DefaultSettings()
	settings.SelectedModel = "llama-3.3-70b-versatile"
	return attempt, feedback, settings
}

func TestPropositionChain_Generate(t *testing.T) {
	attempt, feedback, settings := chainFixtures(t)
	model := &scriptedModel{responses: []string{" base ", " recip ", " inv ", " contra "}}

	exercise, err := NewPropositionChain(model, nil).Generate(context.Background(), attempt, feedback, settings)
	require.NoError(t, err)

	assert.Equal(t, 4, model.calls)
	assert.Equal(t, entities.ExerciseTypeProposition, exercise.Type)
	assert.True(t, exercise.AttemptID.Equals(attempt.ID()))
	assert.False(t, exercise.ExerciseID.IsZero())
	assert.Equal(t, "llama-3.3-70b-versatile", exercise.Model)

	// trimmed variants in chain order, base excluded
	assert.Equal(t, []string{"recip", "inv", "contra"}, utils.ParsePropositionPayload(exercise.Payload))

	// the first prompt embeds the critique, the rest embed the base
	assert.Contains(t, model.prompts[0], "Resumen: resumen")
	for _, prompt := range model.prompts[1:] {
		assert.Contains(t, prompt, "base")
	}
}

func TestPropositionChain_EmptyBaseProposition(t *testing.T) {
	attempt, feedback, settings := chainFixtures(t)
	model := &scriptedModel{responses: []string{"   "}}

	_, err := NewPropositionChain(model, nil).Generate(context.Background(), attempt, feedback, settings)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyBaseProposition))
	assert.Equal(t, 1, model.calls, "the chain stops at the first failure")
}

func TestPropositionChain_EmptyVariantAborts(t *testing.T) {
	attempt, feedback, settings := chainFixtures(t)
	// third variant comes back blank
	model := &scriptedModel{responses: []string{"base", "recip", "inv", ""}}

	_, err := NewPropositionChain(model, nil).Generate(context.Background(), attempt, feedback, settings)
	require.Error(t, err)
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeEmptyVariant))
	assert.Contains(t, err.Error(), "contra-reciproco")
	assert.Equal(t, 4, model.calls)
}

func TestPropositionChain_ModelFailurePropagates(t *testing.T) {
	attempt, feedback, settings := chainFixtures(t)
	model := &scriptedModel{
		responses: []string{"base", "recip"},
		err:       pkgerrors.NewExternalError("model call failed", nil),
		errAt:     2,
	}

	_, err := NewPropositionChain(model, nil).Generate(context.Background(), attempt, feedback, settings)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsExternal(err))
}

func TestPropositionChain_CustomTemplate(t *testing.T) {
	attempt, feedback, settings := chainFixtures(t)
	require.NoError(t, settings.SetPrompt(entities.PromptReciprocal, "Invierte esto: {{condicion}}"))
	model := &scriptedModel{responses: []string{"p -> q", "q -> p", "~p -> ~q", "~q -> ~p"}}

	_, err := NewPropositionChain(model, nil).Generate(context.Background(), attempt, feedback, settings)
	require.NoError(t, err)
	assert.Equal(t, "Invierte esto: p -> q", model.prompts[1])
}
