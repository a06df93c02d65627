// Package codec serializes creations to and from their portable document
// form. The same record shape backs the persisted archive, the export file,
// and the remote example seeds.
package codec

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/appforge-labs/appforge/internal/domain"
)

// PortableCreation is the serialized representation of a creation.
// CreatedAt travels as an RFC 3339 string and is rebuilt into a genuine
// timestamp on the way back in.
type PortableCreation struct {
	ID          string              `json:"id,omitempty"`
	Name        string              `json:"name"`
	Document    string              `json:"document"`
	SourceImage *domain.SourceImage `json:"sourceImage,omitempty"`
	CreatedAt   string              `json:"createdAt,omitempty"`
}

// ValidationError reports a malformed portable document.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid portable creation: " + e.Reason
}

// FromCreation converts a domain creation into its portable form.
func FromCreation(c *domain.Creation) PortableCreation {
	return PortableCreation{
		ID:          c.ID,
		Name:        c.Name,
		Document:    c.Document,
		SourceImage: c.SourceImage,
		CreatedAt:   c.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToCreation converts a portable record back into a domain creation.
// Import is strict on the two mandatory fields (document, name) and lenient
// on the optional ones: a missing id or timestamp is backfilled rather than
// rejected.
func ToCreation(p PortableCreation) (*domain.Creation, error) {
	if strings.TrimSpace(p.Document) == "" {
		return nil, &ValidationError{Reason: "missing document"}
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, &ValidationError{Reason: "missing name"}
	}

	id := p.ID
	if id == "" {
		id = domain.NewID()
	}

	createdAt := time.Now()
	if p.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, p.CreatedAt); err == nil {
			createdAt = ts
		}
	}

	return &domain.Creation{
		ID:          id,
		Name:        p.Name,
		Document:    p.Document,
		SourceImage: p.SourceImage,
		CreatedAt:   createdAt,
	}, nil
}

// Export renders a creation as a stable pretty-printed portable document.
// Field order is fixed by the struct, which keeps exports diffable.
func Export(c *domain.Creation) ([]byte, error) {
	data, err := json.MarshalIndent(FromCreation(c), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export creation: %w", err)
	}
	return append(data, '\n'), nil
}

// Import parses a portable document, requiring document and name.
func Import(raw []byte) (*domain.Creation, error) {
	var p PortableCreation
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, &ValidationError{Reason: fmt.Sprintf("parse: %v", err)}
	}
	return ToCreation(p)
}
