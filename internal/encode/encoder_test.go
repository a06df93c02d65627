package encode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
)

// pngHeader is the 8-byte PNG signature plus enough trailing bytes for
// content sniffing.
var pngHeader = append([]byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}, make([]byte, 16)...)

func TestEncodeFilePNG(t *testing.T) {
	enc := NewEncoder(0)

	artifact, err := enc.EncodeFile("sketch.png", bytes.NewReader(pngHeader))
	if err != nil {
		t.Fatalf("EncodeFile failed: %v", err)
	}

	if artifact.Name != "sketch.png" {
		t.Errorf("Expected name sketch.png, got %q", artifact.Name)
	}
	if artifact.MIMEType != "image/png" {
		t.Errorf("Expected image/png, got %q", artifact.MIMEType)
	}

	decoded, err := base64.StdEncoding.DecodeString(artifact.Data)
	if err != nil {
		t.Fatalf("Payload is not valid base64: %v", err)
	}
	if !bytes.Equal(decoded, pngHeader) {
		t.Error("Decoded payload does not match the input bytes")
	}
}

func TestEncodeFileSniffsContentNotName(t *testing.T) {
	enc := NewEncoder(0)

	// PDF bytes behind a misleading extension.
	artifact, err := enc.EncodeFile("notes.png", strings.NewReader("%PDF-1.4\n%fake"))
	if err != nil {
		t.Fatalf("EncodeFile failed: %v", err)
	}
	if artifact.MIMEType != "application/pdf" {
		t.Errorf("Expected application/pdf, got %q", artifact.MIMEType)
	}
}

func TestEncodeFileExtensionFallback(t *testing.T) {
	enc := NewEncoder(0)

	// Unsniffable bytes: the extension breaks the tie.
	artifact, err := enc.EncodeFile("frame.png", bytes.NewReader([]byte{0x00, 0x01, 0x02, 0x03}))
	if err != nil {
		t.Fatalf("EncodeFile failed: %v", err)
	}
	if artifact.MIMEType != "image/png" {
		t.Errorf("Expected extension fallback to image/png, got %q", artifact.MIMEType)
	}
}

func TestEncodeFileEmpty(t *testing.T) {
	enc := NewEncoder(0)

	_, err := enc.EncodeFile("empty.txt", strings.NewReader(""))
	if err == nil {
		t.Fatal("Expected error for empty file")
	}

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected *EncodingError, got %T", err)
	}
	if encErr.Name != "empty.txt" {
		t.Errorf("Expected artifact name in error, got %q", encErr.Name)
	}
}

func TestEncodeFileTooLarge(t *testing.T) {
	enc := NewEncoder(8)

	_, err := enc.EncodeFile("big.bin", strings.NewReader("123456789"))
	if err == nil {
		t.Fatal("Expected error for oversized file")
	}

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected *EncodingError, got %T", err)
	}
	if !errors.Is(err, errTooLarge) {
		t.Errorf("Expected size-limit cause, got %v", encErr.Err)
	}
}

func TestEncodeFileAtLimit(t *testing.T) {
	enc := NewEncoder(8)

	artifact, err := enc.EncodeFile("fits.bin", strings.NewReader("12345678"))
	if err != nil {
		t.Fatalf("EncodeFile failed at exact limit: %v", err)
	}
	if artifact.Data == "" {
		t.Error("Expected non-empty payload")
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk read failed")
}

func TestEncodeFileReadError(t *testing.T) {
	enc := NewEncoder(0)

	_, err := enc.EncodeFile("broken.png", failingReader{})
	if err == nil {
		t.Fatal("Expected error for failing reader")
	}

	var encErr *EncodingError
	if !errors.As(err, &encErr) {
		t.Fatalf("Expected *EncodingError, got %T", err)
	}
}
