package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"focusloop/application/ports"
	"focusloop/application/sagas"
	"focusloop/domain/core/entities"
	"focusloop/domain/core/valueobjects"
	pkgerrors "focusloop/pkg/errors"
)

// chain completion parameters
const (
	propositionTemperature = 0.3
	propositionMaxTokens   = 400
)

// propositionVariant pairs a prompt template kind with the label used in
// error messages
type propositionVariant struct {
	kind  entities.PropositionPromptKind
	label string
}

var propositionVariants = []propositionVariant{
	{kind: entities.PromptReciprocal, label: "reciproco"},
	{kind: entities.PromptInverse, label: "inverso"},
	{kind: entities.PromptContraReciprocal, label: "contra-reciproco"},
}

// PropositionChain runs the four-call sequence that turns a critique into a
// proposition exercise: one call derives a base proposition from the
// critique, three more derive its unlabeled variants. The chain performs no
// store writes; a failed step leaves nothing behind.
type PropositionChain struct {
	model  ports.ModelClient
	logger *zap.Logger
}

// NewPropositionChain creates the chain builder
func NewPropositionChain(model ports.ModelClient, logger *zap.Logger) *PropositionChain {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropositionChain{model: model, logger: logger}
}

// Generate builds a proposition exercise for an attempt from its latest
// feedback. The returned payload decodes to the three variant statements in
// reciprocal, inverse, contra-reciprocal order.
func (c *PropositionChain) Generate(
	ctx context.Context,
	attempt *entities.Attempt,
	feedback *entities.AttemptFeedback,
	settings *entities.Settings,
) (*entities.ExercisePayload, error) {
	if feedback == nil {
		return nil, pkgerrors.NewValidationError("proposition chain requires feedback to build from")
	}

	critique := BuildCritiqueText(feedback)
	statements := make([]string, 0, len(propositionVariants))

	chain := sagas.New("proposition-chain", c.logger)
	chain.AddStep(sagas.Step{
		Name: "base-proposition",
		Execute: func(ctx context.Context, _ interface{}) (interface{}, error) {
			base, err := c.complete(ctx, settings, entities.PromptInitial, critique)
			if err != nil {
				return nil, err
			}
			if base == "" {
				return nil, pkgerrors.NewGuardViolation(
					pkgerrors.CodeEmptyBaseProposition,
					"the model returned an empty base proposition",
				)
			}
			return base, nil
		},
	})

	for _, variant := range propositionVariants {
		variant := variant
		chain.AddStep(sagas.Step{
			Name: variant.label,
			Execute: func(ctx context.Context, data interface{}) (interface{}, error) {
				base := data.(string)
				statement, err := c.complete(ctx, settings, variant.kind, base)
				if err != nil {
					return nil, err
				}
				if statement == "" {
					err := pkgerrors.NewGuardViolation(
						pkgerrors.CodeEmptyVariant,
						fmt.Sprintf("the model returned an empty %s variant", variant.label),
					)
					err.Details = map[string]interface{}{"variant": variant.label}
					return nil, err
				}
				statements = append(statements, statement)
				return base, nil
			},
		})
	}

	if _, err := chain.Execute(ctx, nil); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(statements)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "failed to encode proposition statements")
	}

	exerciseID, err := valueobjects.NewExerciseIDFromString(uuid.New().String())
	if err != nil {
		return nil, err
	}

	c.logger.Info("proposition chain completed",
		zap.String("attempt_id", attempt.ID().String()),
		zap.Int("statements", len(statements)),
	)

	return &entities.ExercisePayload{
		ExerciseID: exerciseID,
		AttemptID:  attempt.ID(),
		Type:       entities.ExerciseTypeProposition,
		Payload:    string(payload),
		Model:      settings.SelectedModel,
		CreatedAt:  time.Now(),
	}, nil
}

// complete runs one plain-text completion against a chain template
func (c *PropositionChain) complete(
	ctx context.Context,
	settings *entities.Settings,
	kind entities.PropositionPromptKind,
	condition string,
) (string, error) {
	prompt := ReplaceConditionPlaceholder(settings.PromptFor(kind), condition)
	response, err := c.model.Complete(ctx, ports.ModelRequest{
		Model:        settings.SelectedModel,
		SystemPrompt: SystemPromptProposition,
		Prompt:       prompt,
		MaxTokens:    propositionMaxTokens,
		Temperature:  propositionTemperature,
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(response), nil
}
