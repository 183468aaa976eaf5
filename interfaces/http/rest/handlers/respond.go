// Package handlers exposes the learning loop over REST.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"focusloop/pkg/common"
	pkgerrors "focusloop/pkg/errors"
)

// respondAppError maps an application error onto the response envelope.
// Typed errors carry their own HTTP status; anything else is a 500.
func respondAppError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *pkgerrors.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = string(appErr.Type)
		}
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", zap.String("code", code), zap.Error(err))
		}
		if len(appErr.Details) > 0 {
			common.RespondErrorWithDetails(w, status, code, appErr.Message, appErr.Details)
			return
		}
		common.RespondError(w, status, code, appErr.Message)
		return
	}

	// The buses wrap command and query validation failures in plain errors.
	if strings.Contains(err.Error(), "validation failed") || strings.Contains(err.Error(), "invalid query") {
		common.RespondError(w, http.StatusBadRequest, common.StandardErrorCodes.ValidationError, err.Error())
		return
	}

	logger.Error("request failed", zap.Error(err))
	common.RespondError(w, http.StatusInternalServerError, common.StandardErrorCodes.InternalError, "internal error")
}
