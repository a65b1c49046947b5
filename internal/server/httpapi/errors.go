package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dmitrijs2005/gophcoach/internal/common"
)

type errorResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// errorStatus maps a service error to the status code and the text shown to
// the client. Internal detail never reaches the client.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrConflict):
		return http.StatusBadRequest, "Email already registered"
	case errors.Is(err, common.ErrValidation):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		// one body for every auth failure; the cause is only logged
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many requests"
	case errors.Is(err, common.ErrUpstream):
		return http.StatusBadGateway, "The assistant is unavailable, please try again"
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}

// validationMessage keeps the part of a validation error after the sentinel
// text, e.g. "a valid email is required".
func validationMessage(err error) string {
	msg := err.Error()
	prefix := common.ErrValidation.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 {
		msg = msg[i+len(prefix):]
	}
	if msg == "" || msg == common.ErrValidation.Error() {
		return "Invalid request"
	}
	return msg
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	} else {
		h.logger.Debug(r.Context(), "request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, errorResponse{Message: msg})
}
