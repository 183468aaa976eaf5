package handlers

import (
	"context"

	"go.uber.org/zap"

	"focusloop/application/commands"
	"focusloop/application/ports"
	"focusloop/domain/core/entities"
	pkgerrors "focusloop/pkg/errors"
)

// SettingsHandler executes the draft and settings commands
type SettingsHandler struct {
	store  ports.EntityStore
	model  ports.ModelClient
	logger *zap.Logger
}

// NewSettingsHandler creates the handler
func NewSettingsHandler(store ports.EntityStore, model ports.ModelClient, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{store: store, model: model, logger: logger}
}

// SaveDraft writes the autosave buffer and marks it saved
func (h *SettingsHandler) SaveDraft(ctx context.Context, cmd commands.SaveDraftCommand) (*entities.Draft, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	draft, err := h.store.SetDraftValue(ctx, cmd.Key, cmd.Value)
	if err != nil {
		return nil, err
	}
	if err := h.store.SetDraftStatus(ctx, cmd.Key, entities.DraftStatusSaved); err != nil {
		return nil, err
	}
	draft.Status = entities.DraftStatusSaved
	return draft, nil
}

// ClearDraft discards the buffer. Clearing an absent key is fine.
func (h *SettingsHandler) ClearDraft(ctx context.Context, cmd commands.ClearDraftCommand) error {
	if err := cmd.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.store.ClearDraft(ctx, cmd.Key)
}

// SelectModel changes the model completions are sent to
func (h *SettingsHandler) SelectModel(ctx context.Context, cmd commands.SelectModelCommand) error {
	if err := cmd.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	if err := h.store.SetSelectedModel(ctx, cmd.Model); err != nil {
		return err
	}
	h.logger.Info("model selected", zap.String("model", cmd.Model))
	return nil
}

// UpdatePrompt replaces one proposition chain template
func (h *SettingsHandler) UpdatePrompt(ctx context.Context, cmd commands.UpdatePromptCommand) error {
	if err := cmd.Validate(); err != nil {
		return pkgerrors.NewValidationError(err.Error())
	}
	return h.store.SetPropositionPrompt(ctx, entities.PropositionPromptKind(cmd.Kind), cmd.Template)
}

// RefreshModels reloads the provider's catalog into settings
func (h *SettingsHandler) RefreshModels(ctx context.Context, cmd commands.RefreshModelsCommand) ([]entities.ModelInfo, error) {
	if err := cmd.Validate(); err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	catalog, err := h.model.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.SetAvailableModels(ctx, catalog); err != nil {
		return nil, err
	}
	h.logger.Info("model catalog refreshed", zap.Int("models", len(catalog)))
	return catalog, nil
}
