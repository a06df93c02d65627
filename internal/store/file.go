package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/appforge-labs/appforge/internal/codec"
)

// FileArchive persists the collection as a pretty-printed JSON array on
// disk, the same portable shape used for import and export.
type FileArchive struct {
	path string
}

// NewFileArchive creates a file-backed archive at the given path, creating
// parent directories as needed.
func NewFileArchive(path string) (*FileArchive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive directory: %w", err)
	}
	return &FileArchive{path: path}, nil
}

// Read loads and parses the archive file.
func (a *FileArchive) Read(_ context.Context) ([]codec.PortableCreation, error) {
	data, err := os.ReadFile(a.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoArchive
	}
	if err != nil {
		return nil, fmt.Errorf("read archive: %w", err)
	}

	var records []codec.PortableCreation
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse archive: %w", err)
	}
	return records, nil
}

// Write replaces the archive file. The write goes through a temp file and a
// rename so a quota failure mid-write never corrupts the previous archive.
func (a *FileArchive) Write(_ context.Context, records []codec.PortableCreation) error {
	if records == nil {
		records = []codec.PortableCreation{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("serialize archive: %w", err)
	}

	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write archive: %w", err)
	}
	if err := os.Rename(tmp, a.path); err != nil {
		return fmt.Errorf("replace archive: %w", err)
	}
	return nil
}

// Ping verifies the archive directory is reachable.
func (a *FileArchive) Ping(_ context.Context) error {
	if _, err := os.Stat(filepath.Dir(a.path)); err != nil {
		return fmt.Errorf("stat archive directory: %w", err)
	}
	return nil
}

// Close is a no-op for the file archive.
func (a *FileArchive) Close() error { return nil }
