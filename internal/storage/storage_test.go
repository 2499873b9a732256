package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"guestbook/internal/model"
)

// entryStore is the method set both stores share.
type entryStore interface {
	InsertEntry(ctx context.Context, name, message string) (model.Entry, error)
	ListEntries(ctx context.Context) ([]model.Entry, error)
	CountEntries(ctx context.Context) (int, error)
	SetClock(now func() time.Time)
}

func newSQLite(t *testing.T) *Storage {
	t.Helper()
	s, err := NewStorage("sqlite3", filepath.Join(t.TempDir(), "guestbook.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.EnsureSchema(context.Background()))
	return s
}

func stores(t *testing.T) map[string]entryStore {
	return map[string]entryStore{
		"sqlite3": newSQLite(t),
		"memory":  NewMemory(),
	}
}

func TestListEntries_Empty(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			entries, err := s.ListEntries(context.Background())
			require.NoError(t, err)
			require.NotNil(t, entries)
			require.Empty(t, entries)
		})
	}
}

func TestListEntries_NewestFirst(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
			tick := 0
			s.SetClock(func() time.Time {
				tick++
				return base.Add(time.Duration(tick) * time.Second)
			})

			for _, msg := range []string{"one", "two", "three"} {
				_, err := s.InsertEntry(ctx, "Ana", msg)
				require.NoError(t, err)
			}

			entries, err := s.ListEntries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 3)
			require.Equal(t, []string{"three", "two", "one"}, messages(entries))
			for i := 1; i < len(entries); i++ {
				require.True(t, entries[i-1].CreatedAt.After(entries[i].CreatedAt))
			}
		})
	}
}

func TestListEntries_TiesKeepLaterInsertFirst(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			frozen := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
			s.SetClock(func() time.Time { return frozen })

			_, err := s.InsertEntry(ctx, "Ana", "first")
			require.NoError(t, err)
			_, err = s.InsertEntry(ctx, "Ana", "second")
			require.NoError(t, err)

			entries, err := s.ListEntries(ctx)
			require.NoError(t, err)
			require.Equal(t, []string{"second", "first"}, messages(entries))
		})
	}
}

func TestInsertEntry_RoundTrip(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			issued := time.Now()

			created, err := s.InsertEntry(ctx, "Ana", "hi")
			require.NoError(t, err)

			entries, err := s.ListEntries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			got := entries[0]
			require.Equal(t, "Ana", got.Name)
			require.Equal(t, "hi", got.Message)
			require.Equal(t, created.ID, got.ID)
			require.False(t, got.CreatedAt.Before(issued))
			require.True(t, created.CreatedAt.Equal(got.CreatedAt))

			n, err := s.CountEntries(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, n)
		})
	}
}

func TestInsertEntry_DuplicatesAllowed(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 2; i++ {
				_, err := s.InsertEntry(ctx, "Ana", "same")
				require.NoError(t, err)
			}
			n, err := s.CountEntries(ctx)
			require.NoError(t, err)
			require.Equal(t, 2, n)
		})
	}
}

func TestNewStorage_UnsupportedDriver(t *testing.T) {
	_, err := NewStorage("mongo", "mongodb://localhost")
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestEnsureSchema_Idempotent(t *testing.T) {
	s := newSQLite(t)
	require.NoError(t, s.EnsureSchema(context.Background()))
}

func messages(entries []model.Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Message)
	}
	return out
}

func TestInsertEntry_NeverBeforeIssueTime(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i := 0; i < 500; i++ {
				issued := time.Now()
				e, err := s.InsertEntry(ctx, "Ana", "hi")
				require.NoError(t, err)
				require.False(t, e.CreatedAt.Before(issued), "entry %d stamped %s before %s", i, e.CreatedAt, issued)
			}

			entries, err := s.ListEntries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 500)
		})
	}
}

func TestStamp_RoundsUp(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	require.Equal(t, base.Add(time.Microsecond), stamp(base.Add(1)))
	require.Equal(t, base.Add(time.Microsecond), stamp(base.Add(999)))
	require.Equal(t, base.Add(time.Microsecond), stamp(base.Add(time.Microsecond)))
	require.Equal(t, base, stamp(base))
	require.Equal(t, time.UTC, stamp(base.In(time.FixedZone("X", 3600)).Add(1)).Location())
}
