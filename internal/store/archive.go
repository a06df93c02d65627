// Package store owns the persisted creation collection.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/appforge-labs/appforge/internal/codec"
)

// ErrNoArchive indicates that no collection has ever been persisted.
var ErrNoArchive = errors.New("no persisted archive")

// Archive is the persistence port for the creation collection. The store
// reads it once on load and rewrites the full ordered collection after every
// mutation. Tests substitute the in-memory implementation.
type Archive interface {
	// Read returns the persisted records in collection order.
	// Returns ErrNoArchive when nothing has been persisted yet.
	Read(ctx context.Context) ([]codec.PortableCreation, error)

	// Write replaces the persisted collection.
	Write(ctx context.Context, records []codec.PortableCreation) error

	// Ping verifies the archive backend is reachable.
	Ping(ctx context.Context) error

	// Close releases archive resources.
	Close() error
}

// PersistenceError reports a failed persistence attempt. It is always
// non-fatal: the store logs it and keeps the in-memory collection intact.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist collection (%s): %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
