// internal/storage/memory.go
package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"guestbook/internal/model"
)

// Memory is a process-local store with the same contract as Storage.
type Memory struct {
	mu      sync.RWMutex
	entries []model.Entry
	now     func() time.Time
}

func NewMemory() *Memory {
	return &Memory{now: time.Now}
}

func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	m.now = now
	m.mu.Unlock()
}

func (m *Memory) InsertEntry(_ context.Context, name, message string) (model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := model.Entry{
		ID:        uuid.New(),
		Name:      name,
		Message:   message,
		CreatedAt: m.now().UTC(),
	}
	m.entries = append(m.entries, e)
	return e, nil
}

func (m *Memory) ListEntries(_ context.Context) ([]model.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// reverse insertion order first so a stable sort keeps later inserts ahead on ties
	out := make([]model.Entry, 0, len(m.entries))
	for i := len(m.entries) - 1; i >= 0; i-- {
		out = append(out, m.entries[i])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *Memory) CountEntries(_ context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }
