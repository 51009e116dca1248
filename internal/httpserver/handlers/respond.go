package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"mt5panel/internal/apperr"
)

func respondJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

type errorBody struct {
	Kind           string `json:"kind"`
	Message        string `json:"message"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
}

// respondError maps the error taxonomy to status codes in one place.
// Decryption failures and internal errors are logged server-side and
// returned as a generic failure; no internals reach the caller.
func respondError(w http.ResponseWriter, lg *zap.SugaredLogger, err error) {
	var upstream *apperr.UpstreamError
	var status int
	body := errorBody{}
	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		status, body.Kind, body.Message = http.StatusUnauthorized, "unauthenticated", "authentication required"
	case errors.Is(err, apperr.ErrForbidden):
		status, body.Kind, body.Message = http.StatusForbidden, "forbidden", "not allowed"
	case errors.Is(err, apperr.ErrNoLinkedAccount):
		status, body.Kind, body.Message = http.StatusNotFound, "not_found", "no linked account"
	case errors.Is(err, apperr.ErrNotFound):
		status, body.Kind, body.Message = http.StatusNotFound, "not_found", "resource not found"
	case errors.Is(err, apperr.ErrValidation):
		status, body.Kind, body.Message = http.StatusUnprocessableEntity, "validation_failed", err.Error()
	case errors.Is(err, apperr.ErrAlreadyAssigned):
		status, body.Kind, body.Message = http.StatusConflict, "already_assigned", "assignment already exists"
	case errors.Is(err, apperr.ErrDuplicate):
		status, body.Kind, body.Message = http.StatusConflict, "duplicate_key", err.Error()
	case errors.Is(err, apperr.ErrDecryptFailed), errors.Is(err, apperr.ErrMalformedEnvelope):
		lg.Errorw("credential decryption failed", "error", err)
		status, body.Kind, body.Message = http.StatusInternalServerError, "internal", "request failed"
	case errors.As(err, &upstream):
		lg.Warnw("bridge call failed", "op", upstream.Op, "status", upstream.Status)
		body.Kind, body.Message = "upstream_unavailable", "bridge unavailable"
		if upstream.Status != 0 {
			status = http.StatusBadGateway
			body.UpstreamStatus = upstream.Status
		} else {
			status = http.StatusServiceUnavailable
		}
	default:
		lg.Errorw("unexpected error", "error", err)
		status, body.Kind, body.Message = http.StatusInternalServerError, "internal", "internal error"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(map[string]errorBody{"error": body})
}
