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
	"focusloop/domain/core/entities"
	"focusloop/pkg/auth"
	"focusloop/pkg/common"
	"focusloop/pkg/utils"
)

// TopicHandler serves the topic and theme routes. Mutations that return a
// projection go straight to the application handler; void mutations go
// through the command bus, reads through the query bus.
type TopicHandler struct {
	topics     *apphandlers.TopicHandler
	commandBus *cmdbus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewTopicHandler creates a topic handler
func NewTopicHandler(
	topics *apphandlers.TopicHandler,
	commandBus *cmdbus.CommandBus,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *TopicHandler {
	return &TopicHandler{
		topics:     topics,
		commandBus: commandBus,
		queryBus:   queryBus,
		logger:     logger,
	}
}

// UpsertTopicRequest is the body for creating or renaming a topic
type UpsertTopicRequest struct {
	Subject string `json:"subject" validate:"required,max=200"`
}

// AddThemeRequest is the body for adding a theme
type AddThemeRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// UpdateThemeRequest is the body for renaming a theme
type UpdateThemeRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

// ThemeResponse is the write-side view of a theme
type ThemeResponse struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// TopicResponse is the write-side view of a topic
type TopicResponse struct {
	ID      string          `json:"id"`
	Subject string          `json:"subject"`
	Themes  []ThemeResponse `json:"themes"`
}

// CreateTopic handles POST /topics
func (h *TopicHandler) CreateTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	var req UpsertTopicRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	topic, err := h.topics.UpsertTopic(r.Context(), commands.UpsertTopicCommand{
		UserID:  userID,
		Subject: req.Subject,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, topicResponse(topic))
}

// UpdateTopic handles PUT /topics/{topicID}
func (h *TopicHandler) UpdateTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	var req UpsertTopicRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	topic, err := h.topics.UpsertTopic(r.Context(), commands.UpsertTopicCommand{
		UserID:  userID,
		TopicID: chi.URLParam(r, "topicID"),
		Subject: req.Subject,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, topicResponse(topic))
}

// DeleteTopic handles DELETE /topics/{topicID}
func (h *TopicHandler) DeleteTopic(w http.ResponseWriter, r *http.Request) {
	err := h.commandBus.Send(r.Context(), commands.DeleteTopicCommand{
		TopicID: chi.URLParam(r, "topicID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddTheme handles POST /topics/{topicID}/themes
func (h *TopicHandler) AddTheme(w http.ResponseWriter, r *http.Request) {
	var req AddThemeRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	theme, err := h.topics.AddTheme(r.Context(), commands.AddThemeCommand{
		TopicID: chi.URLParam(r, "topicID"),
		Title:   req.Title,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusCreated, ThemeResponse{
		ID:    theme.ID().String(),
		Title: theme.Title(),
	})
}

// UpdateTheme handles PUT /topics/{topicID}/themes/{themeID}
func (h *TopicHandler) UpdateTheme(w http.ResponseWriter, r *http.Request) {
	var req UpdateThemeRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	err := h.commandBus.Send(r.Context(), commands.UpdateThemeTitleCommand{
		ThemeID: chi.URLParam(r, "themeID"),
		Title:   req.Title,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RemoveTheme handles DELETE /topics/{topicID}/themes/{themeID}
func (h *TopicHandler) RemoveTheme(w http.ResponseWriter, r *http.Request) {
	err := h.commandBus.Send(r.Context(), commands.RemoveThemeCommand{
		ThemeID: chi.URLParam(r, "themeID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTopic handles GET /topics/{topicID}
func (h *TopicHandler) GetTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetTopicQuery{
		UserID:  userID,
		TopicID: chi.URLParam(r, "topicID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

// ListTopics handles GET /topics
func (h *TopicHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ListTopicsQuery{UserID: userID})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	list, ok := result.(*queries.ListTopicsResult)
	if !ok || list == nil {
		common.RespondJSON(w, http.StatusOK, result)
		return
	}

	params := common.ExtractPaginationParams(r)
	lo, hi := params.Bounds(len(list.Topics))
	page := queries.ListTopicsResult{Topics: list.Topics[lo:hi], Total: list.Total}
	common.RespondWithMeta(w, http.StatusOK, page, &common.MetaInfo{
		RequestID:  common.ExtractRequestID(r),
		Timestamp:  utils.NowRFC3339(),
		Pagination: common.BuildPaginationMeta(params.Page, params.PageSize, list.Total),
	})
}

// ExportTopic handles GET /topics/{topicID}/export
func (h *TopicHandler) ExportTopic(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.ExportTopicQuery{
		UserID:  userID,
		TopicID: chi.URLParam(r, "topicID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result)
}

func topicResponse(topic *entities.Topic) TopicResponse {
	themes := make([]ThemeResponse, 0, len(topic.Themes()))
	for _, theme := range topic.Themes() {
		themes = append(themes, ThemeResponse{
			ID:    theme.ID().String(),
			Title: theme.Title(),
		})
	}
	return TopicResponse{
		ID:      topic.ID().String(),
		Subject: topic.Subject(),
		Themes:  themes,
	}
}
