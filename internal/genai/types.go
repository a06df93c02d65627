// Package genai implements the client for the remote generation backend.
package genai

import (
	"github.com/appforge-labs/appforge/internal/domain"
)

// InlineData carries an encoded binary artifact attached to a request.
type InlineData struct {
	MIMEType string
	Data     string // base64 payload
}

// Request describes one synthesis attempt. The composed prompt always forms
// the first content part; inline data follows only when a file was supplied.
type Request struct {
	Prompt string
	Inline *InlineData
	Locale domain.Locale
}

// GenerationError wraps a transport or model failure, including an empty
// result. The caller never retries automatically; retry is a manual
// re-submit by the user.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return "generation failed: " + e.Err.Error()
}

func (e *GenerationError) Unwrap() error { return e.Err }
