package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/appforge-labs/appforge/internal/codec"
	"github.com/appforge-labs/appforge/internal/domain"
	"github.com/appforge-labs/appforge/internal/shared"
	_ "modernc.org/sqlite"
)

// SQLiteArchive implements Archive using SQLite. One row per creation;
// the primary key mirrors the collection's id uniqueness invariant.
type SQLiteArchive struct {
	db      *sql.DB
	writeMu sync.Mutex // serialize rewrites to prevent SQLITE_BUSY
}

// NewSQLiteArchive creates a SQLite-backed archive at the given path.
func NewSQLiteArchive(dbPath string) (*SQLiteArchive, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	archive := &SQLiteArchive{db: db}
	if err := archive.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return archive, nil
}

func (a *SQLiteArchive) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS creations (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		document TEXT NOT NULL,
		source_mime TEXT,
		source_data TEXT,
		created_at TEXT NOT NULL,
		position INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_creations_position ON creations(position);

	CREATE TABLE IF NOT EXISTS archive_meta (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	if _, err := a.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Read returns the persisted records in collection order. A present but
// empty collection is distinguished from a never-written one through the
// archive_meta marker, since an empty persisted collection still takes
// precedence over example seeding.
func (a *SQLiteArchive) Read(ctx context.Context) ([]codec.PortableCreation, error) {
	var marker string
	err := a.db.QueryRowContext(ctx,
		`SELECT value FROM archive_meta WHERE key = 'written'`).Scan(&marker)
	if err == sql.ErrNoRows {
		return nil, ErrNoArchive
	}
	if err != nil {
		return nil, fmt.Errorf("read archive marker: %w", err)
	}

	rows, err := a.db.QueryContext(ctx, `
		SELECT id, name, document, source_mime, source_data, created_at
		FROM creations ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("query creations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close creations rows", "error", closeErr)
		}
	}()

	records := []codec.PortableCreation{}
	for rows.Next() {
		var rec codec.PortableCreation
		var sourceMime, sourceData sql.NullString

		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Document,
			&sourceMime, &sourceData, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan creation row: %w", err)
		}
		if sourceMime.Valid && sourceData.Valid {
			rec.SourceImage = &domain.SourceImage{
				MIMEType: sourceMime.String,
				Data:     sourceData.String,
			}
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate creations: %w", err)
	}

	return records, nil
}

// Write replaces the persisted collection in a single transaction.
// A busy database gets exactly one retry before the error surfaces.
func (a *SQLiteArchive) Write(ctx context.Context, records []codec.PortableCreation) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()

	err := a.writeOnce(ctx, records)
	if shared.IsSQLiteConflictError(err) {
		time.Sleep(100 * time.Millisecond)
		err = a.writeOnce(ctx, records)
	}
	return err
}

func (a *SQLiteArchive) writeOnce(ctx context.Context, records []codec.PortableCreation) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin archive write: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM creations`); err != nil {
		return fmt.Errorf("clear creations: %w", err)
	}

	insert := `
	INSERT INTO creations (id, name, document, source_mime, source_data, created_at, position)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO NOTHING`
	for i, rec := range records {
		var sourceMime, sourceData interface{}
		if rec.SourceImage != nil {
			sourceMime = rec.SourceImage.MIMEType
			sourceData = rec.SourceImage.Data
		}
		if _, err := tx.ExecContext(ctx, insert,
			rec.ID, rec.Name, rec.Document, sourceMime, sourceData, rec.CreatedAt, i); err != nil {
			return fmt.Errorf("insert creation %s: %w", rec.ID, err)
		}
	}

	marker := `
	INSERT INTO archive_meta (key, value) VALUES ('written', ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	if _, err := tx.ExecContext(ctx, marker, time.Now().UTC().Format(time.RFC3339)); err != nil {
		return fmt.Errorf("update archive marker: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit archive write: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (a *SQLiteArchive) Ping(ctx context.Context) error {
	return a.db.PingContext(ctx)
}

// Close closes the database connection.
func (a *SQLiteArchive) Close() error {
	if err := a.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
