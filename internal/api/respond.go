package api

import (
	"database/sql"
	"errors"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/wangkuke/MapConnect/internal/auth"
	"github.com/wangkuke/MapConnect/internal/logging"
	"github.com/wangkuke/MapConnect/internal/marker"
	"github.com/wangkuke/MapConnect/repository"
)

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, code, msg string) {
	respondJSON(w, status, errorBody{Error: msg, Code: code})
}

// writeError maps the core error taxonomy to HTTP responses. Each kind gets
// a stable machine-readable code; storage failures stay opaque to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *marker.ValidationError
	switch {
	case errors.As(err, &ve):
		respondError(w, http.StatusBadRequest, "validation_error", ve.Error())
	case errors.Is(err, marker.ErrInvalidStatus):
		respondError(w, http.StatusBadRequest, "invalid_status", "status must be 'active' or 'inactive'")
	case errors.Is(err, marker.ErrQuotaExceeded):
		respondError(w, http.StatusForbidden, "quota_exceeded",
			"you have reached the maximum limit of active markers")
	case errors.Is(err, marker.ErrForbidden), errors.Is(err, auth.ErrNotAdmin):
		respondError(w, http.StatusForbidden, "forbidden", "you are not allowed to perform this action")
	case errors.Is(err, marker.ErrNotFound), errors.Is(err, sql.ErrNoRows):
		respondError(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.Is(err, repository.ErrDuplicate):
		respondError(w, http.StatusConflict, "duplicate", "username or email already exists")
	case errors.Is(err, auth.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "authentication required")
	default:
		log := logging.L()
		log.Error().Err(err).
			Str("request_id", logging.RequestIDFromContext(r.Context())).
			Str("path", r.URL.Path).Msg("internal error")
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func decodeBody(r *http.Request, v any) error {
	defer func() { _ = r.Body.Close() }()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}
