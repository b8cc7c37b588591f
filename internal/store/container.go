// Package store holds per-domain state containers: the last-known-good
// result of a fetch plus its request lifecycle state, consumed by the view
// layer to decide between spinner, error banner and content.
package store

import (
	"context"
	"sync"
)

// State is the request lifecycle of a container.
type State int

const (
	Idle State = iota
	Loading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// FetchFunc produces the container's value, typically by calling a domain
// service. It must honor ctx cancellation.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Container caches the last-fetched value of one domain. Overlapping
// fetches are resolved deterministically: each fetch gets a monotonic
// sequence number, a newer fetch cancels the context of the one it
// supersedes, and a response that is no longer the latest issued is
// discarded instead of clobbering fresher data.
type Container[T any] struct {
	mu     sync.Mutex
	state  State
	value  T
	err    error
	seq    uint64
	cancel context.CancelFunc
}

// New creates an idle container.
func New[T any]() *Container[T] {
	return &Container[T]{state: Idle}
}

// Fetch runs fn and records its result, unless a newer fetch was issued in
// the meantime. The caller always receives fn's own result either way; only
// the container state is guarded against stale writes. On failure the
// previous value is kept so views can stay stale-but-visible.
func (c *Container[T]) Fetch(ctx context.Context, fn FetchFunc[T]) (T, error) {
	c.mu.Lock()
	c.seq++
	mySeq := c.seq
	if c.cancel != nil {
		c.cancel() // supersede the in-flight fetch
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.state = Loading
	c.mu.Unlock()

	value, err := fn(fetchCtx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if mySeq != c.seq {
		// A newer fetch owns the container now; this result is only
		// returned to its own caller.
		cancel()
		return value, err
	}

	c.cancel = nil
	cancel()
	if err != nil {
		c.state = Failed
		c.err = err
		return value, err
	}
	c.state = Succeeded
	c.value = value
	c.err = nil
	return value, nil
}

// Get returns the cached value together with the lifecycle state and the
// last error, if any.
func (c *Container[T]) Get() (T, State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.state, c.err
}

// Value returns the cached value and whether a successful fetch has ever
// populated it.
func (c *Container[T]) Value() (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value, c.state == Succeeded
}

// State returns the current lifecycle state.
func (c *Container[T]) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}
