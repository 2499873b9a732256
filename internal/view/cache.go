package view

import (
	"context"
	"errors"
	"sync"

	"guestbook/internal/model"
)

// ErrRefreshSuperseded is returned by a refresh whose result was discarded
// because the cache was cancelled, overwritten or refreshed again meanwhile.
var ErrRefreshSuperseded = errors.New("refresh superseded")

type State int

const (
	StatePending State = iota
	StateReady
)

type Fetcher func(ctx context.Context) ([]model.Entry, error)

// Cache holds the displayed entry list. A refresh only lands if nothing touched
// the cache after it started; CancelRefresh and Set both move the generation on,
// so a slow read can never clobber a value written later.
type Cache struct {
	fetch Fetcher

	mu       sync.Mutex
	data     []model.Entry
	loaded   bool
	stale    bool
	gen      uint64
	inflight context.CancelFunc
	err      error
}

func NewCache(fetch Fetcher) *Cache {
	return &Cache{fetch: fetch}
}

// Refresh fetches the authoritative list and stores it.
func (c *Cache) Refresh(ctx context.Context) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.inflight != nil {
		c.inflight()
	}
	ctx, cancel := context.WithCancel(ctx)
	c.inflight = cancel
	c.mu.Unlock()
	defer cancel()

	entries, err := c.fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return ErrRefreshSuperseded
	}
	c.inflight = nil
	if err != nil {
		c.err = err
		return err
	}
	if entries == nil {
		entries = []model.Entry{}
	}
	c.data = entries
	c.loaded = true
	c.stale = false
	c.err = nil
	return nil
}

// CancelRefresh aborts any in-flight refresh and guarantees its result is ignored.
func (c *Cache) CancelRefresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	if c.inflight != nil {
		c.inflight()
		c.inflight = nil
	}
}

// Snapshot returns a copy of the current value and whether one was ever loaded.
func (c *Cache) Snapshot() ([]model.Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		return nil, false
	}
	out := make([]model.Entry, len(c.data))
	copy(out, c.data)
	return out, true
}

// Set replaces the displayed value.
func (c *Cache) Set(entries []model.Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.data = append([]model.Entry(nil), entries...)
	c.loaded = true
}

// Invalidate marks the value stale and refetches it.
func (c *Cache) Invalidate(ctx context.Context) error {
	c.mu.Lock()
	c.stale = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

func (c *Cache) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return StateReady
	}
	return StatePending
}

func (c *Cache) Stale() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stale
}

// Err is the last refresh failure, cleared by the next successful refresh.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}
