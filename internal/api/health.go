package api

import (
	"net/http"

	"github.com/appforge-labs/appforge/internal/config"
	"github.com/appforge-labs/appforge/internal/store"
	"github.com/go-chi/chi/v5"
)

// HealthHandler reports service health.
type HealthHandler struct {
	store *store.Store
	cfg   *config.Config
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(st *store.Store, cfg *config.Config) *HealthHandler {
	return &HealthHandler{store: st, cfg: cfg}
}

// RegisterHealth registers the health route.
func (h *HealthHandler) RegisterHealth(r chi.Router) {
	r.Get("/api/health", h.GetHealth)
}

// GetHealth reports service and archive status. An unreachable archive
// degrades the report but does not fail it: persistence is best-effort and
// the in-memory collection keeps serving.
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	archive := "ok"
	if err := h.store.Ping(r.Context()); err != nil {
		archive = "unreachable"
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"archive":   archive,
		"creations": h.store.Len(),
	})
}
