package store

import (
	"context"
	"sync"

	"github.com/appforge-labs/appforge/internal/codec"
)

// MemArchive is an in-memory Archive used in tests and as a degraded
// fallback when no durable backend is available.
type MemArchive struct {
	mu      sync.Mutex
	records []codec.PortableCreation
	written bool
}

// NewMemArchive creates an empty in-memory archive.
func NewMemArchive() *MemArchive {
	return &MemArchive{}
}

// Read returns the stored records, or ErrNoArchive before the first Write.
func (a *MemArchive) Read(_ context.Context) ([]codec.PortableCreation, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.written {
		return nil, ErrNoArchive
	}
	out := make([]codec.PortableCreation, len(a.records))
	copy(out, a.records)
	return out, nil
}

// Write replaces the stored records.
func (a *MemArchive) Write(_ context.Context, records []codec.PortableCreation) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = make([]codec.PortableCreation, len(records))
	copy(a.records, records)
	a.written = true
	return nil
}

// Seed pre-populates the archive as if a previous run had persisted it.
func (a *MemArchive) Seed(records []codec.PortableCreation) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.records = make([]codec.PortableCreation, len(records))
	copy(a.records, records)
	a.written = true
}

// Ping always succeeds for the in-memory archive.
func (a *MemArchive) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory archive.
func (a *MemArchive) Close() error { return nil }
