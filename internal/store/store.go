package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/domain"
	"github.com/appforge-labs/appforge/internal/shared"
)

// Store owns the in-memory ordered collection of creations and its persisted
// representation. The collection is ordered most-recent-first and ids are
// unique at all times.
type Store struct {
	mu        sync.Mutex
	creations []*domain.Creation
	loaded    bool

	archive Archive
	seeder  *Seeder
	logger  *slog.Logger
}

// New creates a store backed by the given archive. The seeder may be nil to
// disable first-run example seeding.
func New(archive Archive, seeder *Seeder, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		archive: archive,
		seeder:  seeder,
		logger:  logger,
	}
}

// Load reads the persisted collection, falling back to the remote example
// set when nothing usable has been persisted. Persisted state that parses
// always wins over examples, even when empty after filtering invalid
// records. Load is idempotent.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}

	records, err := s.archive.Read(ctx)
	switch {
	case err == nil:
		creations, dropped := decodeRecords(records)
		if dropped > 0 {
			s.logger.Warn("Skipped invalid records in persisted archive", "dropped", dropped)
		}
		s.creations = creations
		s.loaded = true
		s.logger.Info("Creation archive loaded", "count", len(creations))
		return nil
	case errors.Is(err, ErrNoArchive):
		s.logger.Info("No persisted archive, seeding from examples")
	default:
		// A corrupt archive falls back to the example set rather than
		// silently starting with an empty history.
		s.logger.Warn("Persisted archive unusable, seeding from examples", "error", err)
	}

	if s.seeder != nil {
		s.creations = s.seeder.Fetch(ctx)
	}
	s.loaded = true
	s.logger.Info("Collection seeded from examples", "count", len(s.creations))

	// Persist the seeded set so the next run loads it directly. An empty
	// seed result is not persisted, leaving seeding eligible to retry.
	if len(s.creations) > 0 {
		s.persistLocked(ctx)
	}
	return nil
}

// List returns the collection, most recent first.
func (s *Store) List() []*domain.Creation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.Creation, len(s.creations))
	copy(out, s.creations)
	return out
}

// Get returns the creation with the given id, or nil when absent.
func (s *Store) Get(id string) *domain.Creation {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.creations {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// Len returns the collection size.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.creations)
}

// Insert prepends a creation and triggers persistence. Inserting an id that
// already exists is a no-op: the existing entry is kept, never overwritten.
func (s *Store) Insert(ctx context.Context, c *domain.Creation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.creations {
		if existing.ID == c.ID {
			s.logger.Warn("Ignoring duplicate creation insert", "id", c.ID)
			return
		}
	}

	s.creations = append([]*domain.Creation{c}, s.creations...)
	s.persistLocked(ctx)
}

// Ping verifies the archive backend is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.archive.Ping(ctx)
}

// Close releases the archive.
func (s *Store) Close() error {
	return s.archive.Close()
}

// persistLocked writes the full ordered collection through the archive port.
// Persistence is best-effort: failures are logged and swallowed so they
// never interrupt the active session or corrupt in-memory state.
func (s *Store) persistLocked(ctx context.Context) {
	records := make([]codec.PortableCreation, len(s.creations))
	for i, c := range s.creations {
		records[i] = codec.FromCreation(c)
	}

	if err := s.archive.Write(ctx, records); err != nil {
		perr := &PersistenceError{Op: "write", Err: err}
		if shared.IsStorageFullError(err) {
			s.logger.Warn("Archive write hit storage quota, keeping in-memory collection", "error", perr)
			return
		}
		s.logger.Warn("Archive write failed, keeping in-memory collection", "error", perr)
	}
}

func decodeRecords(records []codec.PortableCreation) ([]*domain.Creation, int) {
	creations := make([]*domain.Creation, 0, len(records))
	dropped := 0
	for _, rec := range records {
		c, err := codec.ToCreation(rec)
		if err != nil {
			dropped++
			continue
		}
		creations = append(creations, c)
	}
	return creations, dropped
}
