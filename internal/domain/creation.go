// Package domain contains core domain types for the AppForge application.
package domain

import (
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// SourceImage is the original uploaded artifact re-encoded as a displayable
// embedded resource.
type SourceImage struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64 payload
}

// Creation pairs a generated interactive document with its originating input
// and metadata. A creation is immutable after construction; replacing one
// means removing and re-inserting, never mutating in place.
type Creation struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Document    string       `json:"document"`
	SourceImage *SourceImage `json:"sourceImage,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
}

// NewID mints an opaque unique creation identifier.
func NewID() string {
	return uuid.NewString()
}

const (
	nameMaxWords = 5
	nameMaxRunes = 40
)

// NameFromPrompt derives a creation name from the first words of a free-text
// prompt, bounded with an ellipsis marker when truncated.
func NameFromPrompt(prompt string, locale Locale) string {
	words := strings.Fields(prompt)
	if len(words) == 0 {
		return DefaultName(locale)
	}

	truncated := false
	if len(words) > nameMaxWords {
		words = words[:nameMaxWords]
		truncated = true
	}

	name := strings.Join(words, " ")
	if utf8.RuneCountInString(name) > nameMaxRunes {
		name = strings.TrimRight(string([]rune(name)[:nameMaxRunes]), " ")
		truncated = true
	}

	if truncated {
		name += "…"
	}
	return name
}

// NameFromFile derives a creation name from an uploaded file name by
// stripping its extension.
func NameFromFile(filename string, locale Locale) string {
	base := filepath.Base(filename)
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem == "" || stem == "." || stem == string(filepath.Separator) {
		return DefaultName(locale)
	}
	return stem
}
