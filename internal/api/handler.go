// Package api provides HTTP handlers for the AppForge API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/config"
	"github.com/appforge-labs/appforge/internal/domain"
	"github.com/appforge-labs/appforge/internal/encode"
	"github.com/appforge-labs/appforge/internal/genai"
	"github.com/appforge-labs/appforge/internal/orchestrator"
	"github.com/appforge-labs/appforge/internal/store"
)

// Handler provides common handler dependencies and utilities.
type Handler struct {
	store *store.Store
	orch  *orchestrator.Orchestrator
	cfg   *config.Config
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(st *store.Store, orch *orchestrator.Orchestrator, cfg *config.Config) *Handler {
	return &Handler{
		store: st,
		orch:  orch,
		cfg:   cfg,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// statusForError maps the error taxonomy to an HTTP status plus the
// locale-appropriate notice shown to the user.
func statusForError(err error, locale domain.Locale) (int, string) {
	var encErr *encode.EncodingError
	var genErr *genai.GenerationError
	var valErr *codec.ValidationError

	switch {
	case errors.Is(err, orchestrator.ErrGenerationInFlight):
		return http.StatusConflict, "generation_in_progress"
	case errors.Is(err, orchestrator.ErrUnknownCreation):
		return http.StatusNotFound, "creation not found"
	case errors.As(err, &encErr):
		return http.StatusBadRequest, orchestrator.FailureNotice(locale, err)
	case errors.As(err, &valErr):
		return http.StatusUnprocessableEntity, orchestrator.FailureNotice(locale, err)
	case errors.As(err, &genErr):
		return http.StatusBadGateway, orchestrator.FailureNotice(locale, err)
	case errors.Is(err, orchestrator.ErrInvalidTransition):
		return http.StatusConflict, err.Error()
	default:
		return http.StatusInternalServerError, orchestrator.FailureNotice(locale, err)
	}
}
