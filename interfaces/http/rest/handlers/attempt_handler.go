package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"focusloop/application/commands"
	apphandlers "focusloop/application/commands/handlers"
	"focusloop/application/queries"
	querybus "focusloop/application/queries/bus"
	"focusloop/domain/core/entities"
	"focusloop/pkg/auth"
	"focusloop/pkg/common"
	"focusloop/pkg/utils"
)

// AttemptHandler serves the attempt lifecycle routes. Lifecycle commands
// return projections, so they call the orchestrator directly; reads go
// through the query bus.
type AttemptHandler struct {
	orchestrator *apphandlers.AttemptOrchestrator
	queryBus     *querybus.QueryBus
	logger       *zap.Logger
}

// NewAttemptHandler creates an attempt handler
func NewAttemptHandler(
	orchestrator *apphandlers.AttemptOrchestrator,
	queryBus *querybus.QueryBus,
	logger *zap.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		orchestrator: orchestrator,
		queryBus:     queryBus,
		logger:       logger,
	}
}

// SubmitAttemptRequest is the body for opening an attempt
type SubmitAttemptRequest struct {
	TopicID string `json:"topicId" validate:"required,uuid"`
	ThemeID string `json:"themeId" validate:"required,uuid"`
	Content string `json:"content" validate:"required,max=10000"`
}

// FetchFeedbackRequest is the body for running a critique call
type FetchFeedbackRequest struct {
	Retry int `json:"retry" validate:"min=0"`
}

// ConfirmFeedbackRequest is the body for attaching a critique
type ConfirmFeedbackRequest struct {
	Raw    string `json:"raw" validate:"required"`
	Model  string `json:"model"`
	Manual bool   `json:"manual"`
}

// GenerateExerciseRequest is the body for building a follow-up exercise
type GenerateExerciseRequest struct {
	Kind string `json:"kind" validate:"required"`
}

// SubmitAnswerRequest is the body for answering the pending exercise
type SubmitAnswerRequest struct {
	Answer string `json:"answer" validate:"required,max=10000"`
}

// FeedbackFetchResponse carries an unconfirmed critique back to the client
type FeedbackFetchResponse struct {
	Raw      string                    `json:"raw"`
	Model    string                    `json:"model,omitempty"`
	Feedback *entities.AttemptFeedback `json:"feedback"`
}

// ConceptResponse carries a theory refresher
type ConceptResponse struct {
	Concept string `json:"concept"`
}

// SubmitAttempt handles POST /attempts
func (h *AttemptHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	var req SubmitAttemptRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	attempt, err := h.orchestrator.SubmitAttempt(r.Context(), commands.SubmitAttemptCommand{
		UserID:  userID,
		TopicID: req.TopicID,
		ThemeID: req.ThemeID,
		Content: req.Content,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	h.respondAttempt(w, r, http.StatusCreated, userID, attempt.ID().String())
}

// GetAttempt handles GET /attempts/{attemptID}
func (h *AttemptHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}
	h.respondAttempt(w, r, http.StatusOK, userID, chi.URLParam(r, "attemptID"))
}

// FetchFeedback handles POST /attempts/{attemptID}/feedback/fetch
func (h *AttemptHandler) FetchFeedback(w http.ResponseWriter, r *http.Request) {
	var req FetchFeedbackRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}

	result, err := h.orchestrator.FetchFeedback(r.Context(), commands.FetchFeedbackCommand{
		AttemptID: chi.URLParam(r, "attemptID"),
		Retry:     req.Retry,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, FeedbackFetchResponse{
		Raw:      result.Raw,
		Model:    result.Model,
		Feedback: result.Feedback,
	})
}

// ConfirmFeedback handles POST /attempts/{attemptID}/feedback/confirm
func (h *AttemptHandler) ConfirmFeedback(w http.ResponseWriter, r *http.Request) {
	var req ConfirmFeedbackRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	feedback, err := h.orchestrator.ConfirmFeedback(r.Context(), commands.ConfirmFeedbackCommand{
		AttemptID: chi.URLParam(r, "attemptID"),
		Raw:       req.Raw,
		Model:     req.Model,
		Manual:    req.Manual,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if feedback == nil {
		// The attempt disappeared while the critique was in flight.
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.RespondJSON(w, http.StatusOK, feedback)
}

// RequestConcept handles POST /attempts/{attemptID}/concept
func (h *AttemptHandler) RequestConcept(w http.ResponseWriter, r *http.Request) {
	concept, err := h.orchestrator.RequestConcept(r.Context(), commands.RequestConceptCommand{
		AttemptID: chi.URLParam(r, "attemptID"),
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, ConceptResponse{Concept: concept})
}

// GenerateExercise handles POST /attempts/{attemptID}/exercise
func (h *AttemptHandler) GenerateExercise(w http.ResponseWriter, r *http.Request) {
	var req GenerateExerciseRequest
	if err := common.ParseJSONBody(r, &req, 1<<16); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	exercise, err := h.orchestrator.GenerateExercise(r.Context(), commands.GenerateExerciseCommand{
		AttemptID: chi.URLParam(r, "attemptID"),
		Kind:      req.Kind,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	if exercise == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	common.RespondJSON(w, http.StatusOK, exercise)
}

// SubmitAnswer handles POST /attempts/{attemptID}/answer
func (h *AttemptHandler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.GetUserID(r.Context())
	if !ok {
		common.RespondError(w, http.StatusUnauthorized, common.StandardErrorCodes.Unauthorized, "unauthorized")
		return
	}

	var req SubmitAnswerRequest
	if err := common.ParseJSONBody(r, &req, 1<<20); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.BadRequest, "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	attempt, err := h.orchestrator.SubmitExerciseAnswer(r.Context(), commands.SubmitExerciseAnswerCommand{
		AttemptID: chi.URLParam(r, "attemptID"),
		Answer:    req.Answer,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	h.respondAttempt(w, r, http.StatusOK, userID, attempt.ID().String())
}

// respondAttempt answers with the canonical read shape of an attempt
func (h *AttemptHandler) respondAttempt(w http.ResponseWriter, r *http.Request, status int, userID, attemptID string) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetAttemptQuery{
		UserID:    userID,
		AttemptID: attemptID,
	})
	if err != nil {
		respondAppError(w, h.logger, err)
		return
	}
	common.RespondJSON(w, status, result)
}
