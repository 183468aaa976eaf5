package handlers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"focusloop/application/ports"
	"focusloop/application/queries"
	pkgerrors "focusloop/pkg/errors"
	"focusloop/pkg/utils"
)

// SettingsQueryHandler answers settings, draft and model catalog reads
type SettingsQueryHandler struct {
	store  ports.EntityStore
	model  ports.ModelClient
	logger *zap.Logger
}

// NewSettingsQueryHandler creates the handler
func NewSettingsQueryHandler(store ports.EntityStore, model ports.ModelClient, logger *zap.Logger) *SettingsQueryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsQueryHandler{store: store, model: model, logger: logger}
}

// HandleGetSettings executes the settings read
func (h *SettingsQueryHandler) HandleGetSettings(ctx context.Context, query queries.GetSettingsQuery) (*queries.SettingsResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	settings, err := h.store.Settings(ctx)
	if err != nil {
		return nil, err
	}

	models := make([]queries.ModelResult, 0, len(settings.AvailableModels))
	for _, model := range settings.AvailableModels {
		models = append(models, queries.ModelResult{
			ID:            model.ID,
			ContextLength: model.ContextLength,
			Description:   model.Description,
		})
	}
	prompts := make(map[string]string, len(settings.PropositionPrompts))
	for kind, template := range settings.PropositionPrompts {
		prompts[string(kind)] = template
	}

	return &queries.SettingsResult{
		SelectedModel:      settings.SelectedModel,
		AvailableModels:    models,
		PropositionPrompts: prompts,
	}, nil
}

// HandleGetDraft executes the draft read. A missing draft is not an error;
// the result is nil so the editor starts empty.
func (h *SettingsQueryHandler) HandleGetDraft(ctx context.Context, query queries.GetDraftQuery) (*queries.DraftResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	draft, err := h.store.Draft(ctx, query.Key)
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return &queries.DraftResult{
		Key:       draft.Key,
		Value:     draft.Value,
		Status:    string(draft.Status),
		UpdatedAt: utils.FormatRFC3339(draft.UpdatedAt),
	}, nil
}

// HandleListModels fetches the provider catalog and caches it in settings
func (h *SettingsQueryHandler) HandleListModels(ctx context.Context, query queries.ListModelsQuery) ([]queries.ModelResult, error) {
	if err := query.Validate(); err != nil {
		return nil, fmt.Errorf("invalid query: %w", err)
	}

	catalog, err := h.model.ListModels(ctx)
	if err != nil {
		return nil, err
	}
	if err := h.store.SetAvailableModels(ctx, catalog); err != nil {
		h.logger.Warn("model catalog cache failed", zap.Error(err))
	}

	results := make([]queries.ModelResult, 0, len(catalog))
	for _, model := range catalog {
		results = append(results, queries.ModelResult{
			ID:            model.ID,
			ContextLength: model.ContextLength,
			Description:   model.Description,
		})
	}
	return results, nil
}
