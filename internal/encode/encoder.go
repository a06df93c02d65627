// Package encode converts user-supplied binary artifacts into transport-safe
// payloads for the generation backend.
package encode

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes bounds artifact size when no explicit limit is configured.
const DefaultMaxBytes = 20 << 20 // 20 MiB

var (
	errEmptyArtifact = errors.New("empty file")
	errTooLarge      = errors.New("file exceeds the size limit")
)

// Artifact is a user-supplied file re-encoded for transport.
type Artifact struct {
	Name     string
	MIMEType string
	Data     string // base64 payload
}

// EncodingError reports a failed artifact encode. Encoding is
// all-or-nothing: no partial artifact is ever produced.
type EncodingError struct {
	Name string
	Err  error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode artifact %q: %v", e.Name, e.Err)
}

func (e *EncodingError) Unwrap() error { return e.Err }

// Encoder re-encodes uploaded files as base64 payloads with a sniffed
// media type.
type Encoder struct {
	maxBytes int64
}

// NewEncoder creates an encoder enforcing the given size limit.
// A non-positive limit falls back to DefaultMaxBytes.
func NewEncoder(maxBytes int64) *Encoder {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Encoder{maxBytes: maxBytes}
}

// EncodeFile reads the whole file and returns its base64 payload together
// with the detected media type. The media type is sniffed from content, not
// trusted from the file name.
func (e *Encoder) EncodeFile(name string, r io.Reader) (*Artifact, error) {
	data, err := io.ReadAll(io.LimitReader(r, e.maxBytes+1))
	if err != nil {
		return nil, &EncodingError{Name: name, Err: err}
	}
	if int64(len(data)) > e.maxBytes {
		return nil, &EncodingError{Name: name, Err: errTooLarge}
	}
	if len(data) == 0 {
		return nil, &EncodingError{Name: name, Err: errEmptyArtifact}
	}

	return &Artifact{
		Name:     name,
		MIMEType: detectMediaType(name, data),
		Data:     base64.StdEncoding.EncodeToString(data),
	}, nil
}

// detectMediaType sniffs the media type from content. When sniffing yields
// nothing more specific than a byte stream, the file extension breaks the tie.
func detectMediaType(name string, data []byte) string {
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	mediaType = strings.TrimSpace(mediaType)
	if mediaType != "application/octet-stream" {
		return mediaType
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		if fallback, _, _ := strings.Cut(byExt, ";"); fallback != "" {
			return strings.TrimSpace(fallback)
		}
	}
	return mediaType
}
