package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"focusloop/application/commands"
	cmdbus "focusloop/application/commands/bus"
	apphandlers "focusloop/application/commands/handlers"
	"focusloop/application/queries"
	querybus "focusloop/application/queries/bus"
	"focusloop/pkg/common"
	"focusloop/pkg/utils"
)

// SettingsHandler serves the model selection, prompt template and draft
// routes.
type SettingsHandler struct {
	settings   *apphandlers.SettingsHandler
	commandBus *cmdbus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewSettingsHandler creates a settings handler
func NewSettingsHandler(
	settings *apphandlers.SettingsHandler,
	commandBus *cmdbus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *SettingsHandler {
	return &SettingsHandler{
		settings:   settings,
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// SelectModelRequest is the body for switching the completion model
type SelectModelRequest struct {
	Model string `json:"model" validate:"required"`
}

// UpdatePromptRequest is the body for replacing a chain template
type UpdatePromptRequest struct {
	Template string `json:"template" validate:"required"`
}

// SaveDraftRequest is the body for writing an autosave buffer
type SaveDraftRequest struct {
	Value string `json:"value"`
}

// DraftResponse is the write-side view of a draft
type DraftResponse struct {
	Key    string `json:"key"`
	Value  string `json:"value"`
	Status string `json:"status"`
}

// GetSettings handles GET /settings
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetSettingsQuery{})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ListModels handles GET /models
func (h *SettingsHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListModelsQuery{})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// RefreshModels handles POST /settings/models/refresh
func (h *SettingsHandler) RefreshModels(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.settings.RefreshModels(r.Context(), commands.RefreshModelsCommand{})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, catalog)
}

// SelectModel handles PUT /settings/model
func (h *SettingsHandler) SelectModel(w http.ResponseWriter, r *http.Request) {
	var req SelectModelRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	if err := h.commandBus.Send(r.Context(), commands.SelectModelCommand{Model: req.Model}); err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpdatePrompt handles PUT /settings/prompts/{kind}
func (h *SettingsHandler) UpdatePrompt(w http.ResponseWriter, r *http.Request) {
	var req UpdatePromptRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	err := h.commandBus.Send(r.Context(), commands.UpdatePromptCommand{
		Kind:     chi.URLParam(r, "kind"),
		Template: req.Template,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SaveDraft handles PUT /drafts/{draftID}
func (h *SettingsHandler) SaveDraft(w http.ResponseWriter, r *http.Request) {
	var req SaveDraftRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}

	draft, err := h.settings.SaveDraft(r.Context(), commands.SaveDraftCommand{
		Key:   chi.URLParam(r, "draftID"),
		Value: req.Value,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, DraftResponse{
		Key:    draft.Key,
		Value:  draft.Value,
		Status: string(draft.Status),
	})
}

// GetDraft handles GET /drafts/{draftID}
func (h *SettingsHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetDraftQuery{
		Key: chi.URLParam(r, "draftID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	draft, _ := result.(*queries.DraftResult)
	if draft == nil {
		common.RespondError(w, http.StatusNotFound, common.StandardErrorCodes.NotFound, "draft not found")
		return
	}
	common.RespondJSON(w, http.StatusOK, draft)
}

// DeleteDraft handles DELETE /drafts/{draftID}
func (h *SettingsHandler) DeleteDraft(w http.ResponseWriter, r *http.Request) {
	err := h.commandBus.Send(r.Context(), commands.ClearDraftCommand{
		Key: chi.URLParam(r, "draftID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
