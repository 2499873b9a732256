// internal/storage/storage.go
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"guestbook/internal/model"
)

var ErrUnsupportedDriver = errors.New("unsupported database driver")

// Storage keeps guestbook entries in a SQL database.
type Storage struct {
	DB      *sql.DB
	dialect dialect
	now     func() time.Time
}

func NewStorage(driver, dsn string) (*Storage, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to db: %w", err)
	}
	if driver == "sqlite3" {
		// one writer at a time
		db.SetMaxOpenConns(1)
	}

	return &Storage{DB: db, dialect: d, now: time.Now}, nil
}

// SetClock replaces the clock used to stamp new entries.
func (s *Storage) SetClock(now func() time.Time) {
	s.now = now
}

// EnsureSchema creates the entries table and its ordering index if missing.
func (s *Storage) EnsureSchema(ctx context.Context) error {
	for _, stmt := range s.dialect.schema {
		if _, err := s.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

// InsertEntry stores a new entry; created_at is stamped here, never by the caller.
func (s *Storage) InsertEntry(ctx context.Context, name, message string) (model.Entry, error) {
	e := model.Entry{
		ID:        uuid.New(),
		Name:      name,
		Message:   message,
		CreatedAt: stamp(s.now()),
	}
	_, err := s.DB.ExecContext(ctx, s.dialect.insert, e.ID, e.Name, e.Message, e.CreatedAt)
	if err != nil {
		return model.Entry{}, fmt.Errorf("insert failed: %w", err)
	}
	return e, nil
}

// stamp rounds up to the microsecond the database keeps, so an entry is never
// dated before the call that created it.
func stamp(now time.Time) time.Time {
	now = now.UTC()
	ts := now.Truncate(time.Microsecond)
	if ts.Before(now) {
		ts = ts.Add(time.Microsecond)
	}
	return ts
}

// ListEntries returns every entry, newest first.
func (s *Storage) ListEntries(ctx context.Context) ([]model.Entry, error) {
	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, name, message, created_at
		FROM guestbook_entries
		ORDER BY created_at DESC, seq DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}
	defer rows.Close()

	entries := []model.Entry{}
	for rows.Next() {
		var e model.Entry
		if err := rows.Scan(&e.ID, &e.Name, &e.Message, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan failed: %w", err)
		}
		e.CreatedAt = e.CreatedAt.UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate failed: %w", err)
	}
	return entries, nil
}

func (s *Storage) CountEntries(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM guestbook_entries`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count failed: %w", err)
	}
	return n, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.DB.Close()
}
