package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dmitrijs2005/taskflow/internal/common"
	"github.com/go-chi/chi/v5/middleware"
)

type errorResponse struct {
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps service errors onto HTTP statuses. Anything unrecognised
// becomes a 500 whose details only go to the log.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *common.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: verr.Message, Field: verr.Field})
	case errors.Is(err, common.ErrorValidation):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: err.Error()})
	case errors.Is(err, common.ErrorInvalidOTP):
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid or expired OTP"})
	case errors.Is(err, common.ErrorInvalidCreds):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Invalid credentials"})
	case errors.Is(err, common.ErrorUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Unauthorized"})
	case errors.Is(err, common.ErrorForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Message: "Forbidden"})
	case errors.Is(err, common.ErrorNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Message: "Task not found"})
	case errors.Is(err, common.ErrorRateLimited):
		writeJSON(w, http.StatusTooManyRequests, errorResponse{Message: "Too many requests"})
	default:
		h.logger.Error(r.Context(), "request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Message: "internal error"})
	}
}
