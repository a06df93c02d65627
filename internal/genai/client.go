package genai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// systemInstruction fixes the output contract for every request: one
// self-contained interactive document, no external assets, no fences.
const systemInstruction = `You produce exactly one self-contained interactive HTML document.
Rules:
- Everything lives in a single HTML file: markup, styling and behavior are all inline.
- Never reference external images or assets. Build every visual from CSS, inline SVG or emoji.
- The result must be interactive, with working controls. Never produce a static page.
- Return raw HTML only. No markdown, no code fences, no commentary around the document.`

const (
	defaultTemperature = 0.5
	maxResponseBytes   = 16 << 20
)

// HTTPClientConfig holds configuration for the generation backend client.
type HTTPClientConfig struct {
	BaseURL        string
	APIKey         string
	Model          string
	RequestTimeout time.Duration
}

// DefaultHTTPClientConfig returns default configuration.
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		BaseURL:        "https://generativelanguage.googleapis.com",
		Model:          "gemini-2.5-flash",
		RequestTimeout: 120 * time.Second,
	}
}

// HTTPClient talks JSON over HTTP to a generateContent-style backend.
type HTTPClient struct {
	cfg    HTTPClientConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPClient creates a generation backend client. Zero-valued config
// fields fall back to defaults.
func NewHTTPClient(cfg HTTPClientConfig, logger *slog.Logger) *HTTPClient {
	if logger == nil {
		logger = slog.Default()
	}
	defaults := DefaultHTTPClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaults.RequestTimeout
	}

	return &HTTPClient{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: logger,
	}
}

// Wire types for the generateContent request/response shape.
type wirePart struct {
	Text       string          `json:"text,omitempty"`
	InlineData *wireInlineData `json:"inline_data,omitempty"`
}

type wireInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type wireContent struct {
	Role  string     `json:"role,omitempty"`
	Parts []wirePart `json:"parts"`
}

type wireGenerationConfig struct {
	Temperature float64 `json:"temperature"`
}

type wireRequest struct {
	Contents          []wireContent        `json:"contents"`
	SystemInstruction *wireContent         `json:"system_instruction,omitempty"`
	GenerationConfig  wireGenerationConfig `json:"generation_config"`
}

type wireResponse struct {
	Candidates []struct {
		Content wireContent `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// Generate issues one synthesis request and returns the sanitized document.
func (c *HTTPClient) Generate(ctx context.Context, req Request) (string, error) {
	parts := []wirePart{{Text: req.Prompt}}
	if req.Inline != nil {
		parts = append(parts, wirePart{InlineData: &wireInlineData{
			MIMEType: req.Inline.MIMEType,
			Data:     req.Inline.Data,
		}})
	}

	body := wireRequest{
		Contents:          []wireContent{{Role: "user", Parts: parts}},
		SystemInstruction: &wireContent{Parts: []wirePart{{Text: systemInstruction}}},
		GenerationConfig:  wireGenerationConfig{Temperature: defaultTemperature},
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/v1beta/models/%s:generateContent",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("x-goog-api-key", c.cfg.APIKey)
	}

	c.logger.Debug("Dispatching generation request",
		"model", c.cfg.Model,
		"prompt_bytes", len(req.Prompt),
		"has_inline_data", req.Inline != nil)

	start := time.Now()
	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("call backend: %w", err)}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("failed to close generation response body", "error", closeErr)
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &GenerationError{Err: fmt.Errorf("read response: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &GenerationError{Err: fmt.Errorf("backend returned status %d: %s", resp.StatusCode, truncateForLog(raw))}
	}

	var decoded wireResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", &GenerationError{Err: fmt.Errorf("decode response: %w", err)}
	}
	if decoded.Error != nil {
		return "", &GenerationError{Err: fmt.Errorf("backend error %d: %s", decoded.Error.Code, decoded.Error.Message)}
	}

	var b strings.Builder
	if len(decoded.Candidates) > 0 {
		// Only the first candidate is used.
		for _, part := range decoded.Candidates[0].Content.Parts {
			b.WriteString(part.Text)
		}
	}

	document := StripFences(b.String())
	if strings.TrimSpace(document) == "" {
		return "", &GenerationError{Err: errors.New("backend returned an empty document")}
	}

	c.logger.Info("Generation complete",
		"model", c.cfg.Model,
		"duration_ms", time.Since(start).Milliseconds(),
		"document_bytes", len(document))
	return document, nil
}

// Close releases idle connections held by the underlying HTTP client.
func (c *HTTPClient) Close() {
	c.client.CloseIdleConnections()
}

func truncateForLog(raw []byte) string {
	const limit = 200
	s := strings.TrimSpace(string(raw))
	if len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
