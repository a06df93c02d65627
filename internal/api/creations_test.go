package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/appforge-labs/appforge/internal/config"
	"github.com/appforge-labs/appforge/internal/encode"
	"github.com/appforge-labs/appforge/internal/genai"
	"github.com/appforge-labs/appforge/internal/orchestrator"
	"github.com/appforge-labs/appforge/internal/store"
	"github.com/go-chi/chi/v5"
)

// fakeGenerator returns a canned document or error.
type fakeGenerator struct {
	document string
	err      error
	lastReq  genai.Request
}

func (g *fakeGenerator) Generate(_ context.Context, req genai.Request) (string, error) {
	g.lastReq = req
	if g.err != nil {
		return "", g.err
	}
	return g.document, nil
}

func (g *fakeGenerator) Close() {}

func testConfig() *config.Config {
	return &config.Config{
		Port:           "8080",
		ArchiveBackend: config.ArchiveSQLite,
		DBPath:         "unused",
		MaxUploadBytes: 1 << 20,
	}
}

func newTestRouter(t *testing.T, gen genai.Generator) (chi.Router, *store.Store) {
	t.Helper()

	st := store.New(store.NewMemArchive(), nil, slog.Default())
	if err := st.Load(context.Background()); err != nil {
		t.Fatalf("store load failed: %v", err)
	}

	cfg := testConfig()
	orch := orchestrator.New(st, gen, encode.NewEncoder(cfg.MaxUploadBytes), nil, slog.Default())

	r := chi.NewRouter()
	base := NewHandler(st, orch, cfg)
	NewCreationHandler(base).RegisterRoutes(r)
	NewHealthHandler(st, cfg).RegisterHealth(r)
	return r, st
}

func doJSON(t *testing.T, r chi.Router, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("Response is not valid JSON: %v", err)
	}
	return out
}

func TestGenerateJSON(t *testing.T) {
	gen := &fakeGenerator{document: "<html><body>tick</body></html>"}
	r, st := newTestRouter(t, gen)

	w := doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"a chess clock","locale":"en"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	if body["name"] != "a chess clock" {
		t.Errorf("Expected name from prompt, got %v", body["name"])
	}
	if body["document"] != gen.document {
		t.Errorf("Expected backend document, got %v", body["document"])
	}
	if st.Len() != 1 {
		t.Errorf("Expected 1 stored creation, got %d", st.Len())
	}
}

func TestGenerateMultipartWithFile(t *testing.T) {
	gen := &fakeGenerator{document: "<html></html>"}
	r, _ := newTestRouter(t, gen)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("prompt", "find hidden wifi"); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}
	part, err := mw.CreateFormFile("file", "screenshot.png")
	if err != nil {
		t.Fatalf("CreateFormFile failed: %v", err)
	}
	if _, err := part.Write([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0}); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if body["name"] != "screenshot" {
		t.Errorf("Expected name from file, got %v", body["name"])
	}
	if gen.lastReq.Inline == nil {
		t.Error("Expected inline data forwarded to backend")
	}
}

func TestGenerateMultipartTextOnly(t *testing.T) {
	gen := &fakeGenerator{document: "<html></html>"}
	r, _ := newTestRouter(t, gen)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("prompt", "a pomodoro timer"); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/generate", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for text-only multipart, got %d: %s", w.Code, w.Body.String())
	}
	if gen.lastReq.Inline != nil {
		t.Error("Expected no inline data without a file part")
	}
}

func TestGenerateBackendFailure(t *testing.T) {
	gen := &fakeGenerator{err: &genai.GenerationError{Err: errors.New("backend down")}}
	r, st := newTestRouter(t, gen)

	w := doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"anything"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["error"] == "" {
		t.Error("Expected a user-facing error notice")
	}
	if st.Len() != 0 {
		t.Error("Expected no creation stored after backend failure")
	}
}

func TestGenerateInvalidBody(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGenerator{document: "<html></html>"})

	w := doJSON(t, r, http.MethodPost, "/api/generate", `not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", w.Code)
	}
}

func TestListAndGetCreations(t *testing.T) {
	gen := &fakeGenerator{document: "<html></html>"}
	r, _ := newTestRouter(t, gen)

	first := decodeBody(t, doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"first"}`))
	second := decodeBody(t, doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"second"}`))

	w := doJSON(t, r, http.MethodGet, "/api/creations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}

	var listResp struct {
		Creations []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Document string `json:"document"`
		} `json:"creations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listResp); err != nil {
		t.Fatalf("Failed to decode list: %v", err)
	}
	if len(listResp.Creations) != 2 {
		t.Fatalf("Expected 2 creations, got %d", len(listResp.Creations))
	}
	if listResp.Creations[0].ID != second["id"] {
		t.Error("Expected most recent creation first")
	}
	if listResp.Creations[0].Document != "" {
		t.Error("Expected list entries to omit the document body")
	}

	w = doJSON(t, r, http.MethodGet, "/api/creations/"+first["id"].(string), "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	full := decodeBody(t, w)
	if full["document"] != gen.document {
		t.Error("Expected full document in single-creation response")
	}

	if w := doJSON(t, r, http.MethodGet, "/api/creations/missing", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown creation, got %d", w.Code)
	}
}

func TestExportCreation(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGenerator{document: "<html></html>"})

	created := decodeBody(t, doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"a chess clock"}`))
	id := created["id"].(string)

	w := doJSON(t, r, http.MethodGet, "/api/creations/"+id+"/export", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	disposition := w.Header().Get("Content-Disposition")
	if !strings.Contains(disposition, "attachment") || !strings.Contains(disposition, ".json") {
		t.Errorf("Expected attachment disposition, got %q", disposition)
	}

	exported := decodeBody(t, w)
	if exported["id"] != id || exported["document"] != "<html></html>" {
		t.Errorf("Unexpected export payload: %v", exported)
	}
}

func TestImportEndpoint(t *testing.T) {
	r, st := newTestRouter(t, &fakeGenerator{})

	w := doJSON(t, r, http.MethodPost, "/api/import", `{"name":"shared","document":"<html></html>"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", w.Code, w.Body.String())
	}
	body := decodeBody(t, w)
	if st.Get(body["id"].(string)) == nil {
		t.Error("Expected imported creation stored")
	}

	w = doJSON(t, r, http.MethodPost, "/api/import", `{"name":"broken"}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("Expected 422 for invalid document, got %d", w.Code)
	}
}

func TestSelectAndResetEndpoints(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGenerator{document: "<html></html>"})

	created := decodeBody(t, doJSON(t, r, http.MethodPost, "/api/generate", `{"prompt":"first"}`))
	id := created["id"].(string)

	if w := doJSON(t, r, http.MethodPost, "/api/reset", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for reset, got %d", w.Code)
	}

	state := decodeBody(t, doJSON(t, r, http.MethodGet, "/api/state", ""))
	if state["phase"] != "idle" {
		t.Errorf("Expected idle after reset, got %v", state["phase"])
	}

	if w := doJSON(t, r, http.MethodPost, "/api/creations/"+id+"/select", ""); w.Code != http.StatusOK {
		t.Fatalf("Expected 200 for select, got %d", w.Code)
	}

	state = decodeBody(t, doJSON(t, r, http.MethodGet, "/api/state", ""))
	if state["phase"] != "active" {
		t.Errorf("Expected active after select, got %v", state["phase"])
	}
	active, ok := state["active"].(map[string]interface{})
	if !ok || active["id"] != id {
		t.Errorf("Expected selected creation in state, got %v", state["active"])
	}

	if w := doJSON(t, r, http.MethodPost, "/api/creations/missing/select", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown select, got %d", w.Code)
	}
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := newTestRouter(t, &fakeGenerator{})

	w := doJSON(t, r, http.MethodGet, "/api/health", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", w.Code)
	}
	body := decodeBody(t, w)
	if body["status"] != "ok" || body["archive"] != "ok" {
		t.Errorf("Unexpected health payload: %v", body)
	}
}

func TestExportFileName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain name", "chess clock", "chess-clock.json"},
		{"punctuation stripped", "wifi?! (v2)", "wifi-v2.json"},
		{"arabic falls back", "إبداع بدون عنوان", "creation.json"},
		{"empty falls back", "   ", "creation.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exportFileName(tt.in); got != tt.want {
				t.Errorf("exportFileName(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
