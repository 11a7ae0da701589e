package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/atinyakov/GophNotes/internal/models"
	"go.uber.org/zap"
)

// Stable error details returned to clients.
const (
	detailBadBody         = "invalid request body"
	detailEmailTaken      = "email already registered"
	detailBadToken        = "could not validate credentials"
	detailBadCredentials  = "incorrect email or password"
	detailNoteNotFound    = "note not found"
	detailInternal        = "internal server error"
	maxRequestBodyBytes   = 1 << 20
	bearerChallengeScheme = "Bearer"
)

type errorResponse struct {
	Detail string `json:"detail"`
	Field  string `json:"field,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeUnauthorized(w http.ResponseWriter, detail string) {
	w.Header().Set("WWW-Authenticate", bearerChallengeScheme)
	writeDetail(w, http.StatusUnauthorized, detail)
}

// writeError maps a service error onto its HTTP status and stable detail.
// Internal failures are logged and never echoed.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var ve *models.ValidationError
	switch {
	case errors.As(err, &ve):
		writeJSON(w, http.StatusBadRequest, errorResponse{Detail: ve.Error(), Field: ve.Field})
	case errors.Is(err, models.ErrConflict):
		writeDetail(w, http.StatusBadRequest, detailEmailTaken)
	case errors.Is(err, models.ErrUnauthorized):
		writeUnauthorized(w, detailBadToken)
	case errors.Is(err, models.ErrNotFound):
		writeDetail(w, http.StatusNotFound, detailNoteNotFound)
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		writeDetail(w, http.StatusInternalServerError, detailInternal)
	}
}

// decodeBody reads a JSON request body into dst.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeDetail(w, http.StatusBadRequest, detailBadBody)
		return false
	}
	return true
}

// Welcome handles GET /.
func Welcome(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome to GophNotes API"})
}

// Health handles GET /api/health.
func Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
