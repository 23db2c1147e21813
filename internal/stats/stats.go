// Package stats keeps the process-wide registration/verification counters.
// The original system kept these in a lazily created singleton database
// document; here the counter is an explicit state object injected into the
// handlers, optionally write-through persisted by the storage backend.
package stats

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Snapshot is a read-only view of the counters.
type Snapshot struct {
	TotalRegistrations int64
	TotalVerifications int64
	LastUpdated        time.Time
}

// Store persists the singleton counter row. Load returns nil when no row
// exists yet; the counter then starts from zero.
type Store interface {
	LoadCounters(ctx context.Context) (*Snapshot, error)
	SaveCounters(ctx context.Context, snap Snapshot) error
}

// Counter serializes all counter mutations behind one mutex so concurrent
// requests never lose an increment. State loads lazily on first access.
type Counter struct {
	mu     sync.Mutex
	loaded bool
	snap   Snapshot
	store  Store // nil for the in-memory backend
}

// NewCounter creates a counter. A nil store keeps totals in-process only.
func NewCounter(store Store) *Counter {
	return &Counter{store: store}
}

// ensureLoaded pulls persisted state on first access. Callers hold c.mu.
func (c *Counter) ensureLoaded(ctx context.Context) error {
	if c.loaded {
		return nil
	}
	if c.store != nil {
		persisted, err := c.store.LoadCounters(ctx)
		if err != nil {
			return fmt.Errorf("loading counters: %w", err)
		}
		if persisted != nil {
			c.snap = *persisted
		}
	}
	c.loaded = true
	return nil
}

// save writes the current state through the store. Callers hold c.mu.
func (c *Counter) save(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	if err := c.store.SaveCounters(ctx, c.snap); err != nil {
		return fmt.Errorf("saving counters: %w", err)
	}
	return nil
}

// IncrementRegistrations adds one registration and stamps LastUpdated.
func (c *Counter) IncrementRegistrations(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	c.snap.TotalRegistrations++
	c.snap.LastUpdated = time.Now()
	return c.save(ctx)
}

// IncrementVerifications adds one verification and stamps LastUpdated.
func (c *Counter) IncrementVerifications(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return err
	}
	c.snap.TotalVerifications++
	c.snap.LastUpdated = time.Now()
	return c.save(ctx)
}

// Reset zeroes both counters. Always explicit, never implicit.
func (c *Counter) Reset(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return Snapshot{}, err
	}
	c.snap = Snapshot{LastUpdated: time.Now()}
	if err := c.save(ctx); err != nil {
		return Snapshot{}, err
	}
	return c.snap, nil
}

// Snapshot returns the current totals.
func (c *Counter) Snapshot(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensureLoaded(ctx); err != nil {
		return Snapshot{}, err
	}
	return c.snap, nil
}
