package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/domain"
	"github.com/appforge-labs/appforge/internal/orchestrator"
	"github.com/go-chi/chi/v5"
)

const maxImportBytes = 8 << 20

// CreationHandler handles the creation collection and generation endpoints.
type CreationHandler struct {
	*Handler
}

// NewCreationHandler creates a new creation handler.
func NewCreationHandler(base *Handler) *CreationHandler {
	return &CreationHandler{Handler: base}
}

// RegisterRoutes registers creation routes.
func (h *CreationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/state", h.GetState)
		r.Get("/creations", h.ListCreations)
		r.Get("/creations/{id}", h.GetCreation)
		r.Get("/creations/{id}/export", h.ExportCreation)
		r.Post("/creations/{id}/select", h.SelectCreation)
		r.Post("/generate", h.Generate)
		r.Post("/import", h.Import)
		r.Post("/reset", h.Reset)
	})
}

// creationSummary is the list representation, without the document body.
type creationSummary struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	HasSourceImage bool      `json:"has_source_image"`
	CreatedAt      time.Time `json:"created_at"`
}

// GetState returns the current machine state.
func (h *CreationHandler) GetState(w http.ResponseWriter, r *http.Request) {
	s := h.orch.CurrentState()
	resp := map[string]interface{}{"phase": s.Phase}
	if s.Active != nil {
		resp["active"] = creationSummary{
			ID:             s.Active.ID,
			Name:           s.Active.Name,
			HasSourceImage: s.Active.SourceImage != nil,
			CreatedAt:      s.Active.CreatedAt,
		}
	}
	JSON(w, http.StatusOK, resp)
}

// ListCreations returns the collection, most recent first.
func (h *CreationHandler) ListCreations(w http.ResponseWriter, r *http.Request) {
	creations := h.store.List()
	summaries := make([]creationSummary, len(creations))
	for i, c := range creations {
		summaries[i] = creationSummary{
			ID:             c.ID,
			Name:           c.Name,
			HasSourceImage: c.SourceImage != nil,
			CreatedAt:      c.CreatedAt,
		}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"creations": summaries})
}

// GetCreation returns one full creation, document included.
func (h *CreationHandler) GetCreation(w http.ResponseWriter, r *http.Request) {
	creation := h.store.Get(chi.URLParam(r, "id"))
	if creation == nil {
		Error(w, http.StatusNotFound, "creation not found")
		return
	}
	JSON(w, http.StatusOK, creation)
}

// ExportCreation serves a creation as a downloadable portable document.
func (h *CreationHandler) ExportCreation(w http.ResponseWriter, r *http.Request) {
	creation := h.store.Get(chi.URLParam(r, "id"))
	if creation == nil {
		Error(w, http.StatusNotFound, "creation not found")
		return
	}

	data, err := codec.Export(creation)
	if err != nil {
		slog.Error("Failed to export creation", "id", creation.ID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to export creation")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFileName(creation.Name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		slog.Debug("Export write failed", "id", creation.ID, "error", err)
	}
}

// SelectCreation switches the displayed creation without mutating the store.
func (h *CreationHandler) SelectCreation(w http.ResponseWriter, r *http.Request) {
	creation, err := h.orch.Select(chi.URLParam(r, "id"))
	if err != nil {
		status, notice := statusForError(err, localeFromRequest(r))
		Error(w, status, notice)
		return
	}
	JSON(w, http.StatusOK, creation)
}

// generateRequest is the JSON body for text-only generation.
type generateRequest struct {
	Prompt string `json:"prompt"`
	Locale string `json:"locale"`
}

// Generate runs one generation attempt. Accepts either a JSON body or a
// multipart form with an optional file part.
func (h *CreationHandler) Generate(w http.ResponseWriter, r *http.Request) {
	var req orchestrator.SubmitRequest

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
			Error(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		req.Prompt = r.FormValue("prompt")
		req.Locale = domain.ParseLocale(r.FormValue("locale"))

		file, header, err := r.FormFile("file")
		switch {
		case err == nil:
			defer func() {
				_ = file.Close()
			}()
			req.File = file
			req.FileName = header.Filename
		case errors.Is(err, http.ErrMissingFile):
			// Text-only multipart submit.
		default:
			Error(w, http.StatusBadRequest, "invalid file upload")
			return
		}
	} else {
		var body generateRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			Error(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Prompt = body.Prompt
		req.Locale = domain.ParseLocale(body.Locale)
	}

	slog.Info("Generation submitted",
		"prompt_bytes", len(req.Prompt),
		"has_file", req.File != nil,
		"locale", req.Locale)

	creation, err := h.orch.Submit(r.Context(), req)
	if err != nil {
		status, notice := statusForError(err, req.Locale)
		Error(w, status, notice)
		return
	}
	JSON(w, http.StatusOK, creation)
}

// Import accepts a portable creation document, bypassing generation.
func (h *CreationHandler) Import(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxImportBytes))
	if err != nil {
		Error(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	creation, err := h.orch.Import(r.Context(), raw)
	if err != nil {
		status, notice := statusForError(err, localeFromRequest(r))
		Error(w, status, notice)
		return
	}
	JSON(w, http.StatusCreated, creation)
}

// Reset clears the displayed creation.
func (h *CreationHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Reset(); err != nil {
		status, notice := statusForError(err, localeFromRequest(r))
		Error(w, status, notice)
		return
	}
	JSON(w, http.StatusOK, map[string]string{"phase": string(orchestrator.PhaseIdle)})
}

func localeFromRequest(r *http.Request) domain.Locale {
	return domain.ParseLocale(r.URL.Query().Get("locale"))
}

// exportFileName builds a safe download filename from a creation name.
func exportFileName(name string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('-')
		}
	}
	stem := strings.Trim(b.String(), "-")
	if stem == "" {
		stem = "creation"
	}
	return stem + ".json"
}
