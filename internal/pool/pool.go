// Package pool bounds how many CLI subprocesses may run concurrently.
//
// The pool is the sole suspension point of the provider: requests acquire
// a slot before spawning and release it exactly once when done. Excess
// requests wait in FIFO order; a waiter whose context is cancelled is
// removed from the queue without ever being granted a slot, and a context
// that is already cancelled at acquire time fails immediately even when a
// slot is free.
package pool

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/semaphore"

	"github.com/pablof7z/claude-code-provider-go/internal/errors"
)

const (
	// MinConcurrency is the smallest allowed concurrency ceiling.
	MinConcurrency = 1
	// MaxConcurrency is the largest allowed concurrency ceiling.
	MaxConcurrency = 100
	// DefaultConcurrency is used when no ceiling is configured.
	DefaultConcurrency = 4
)

// Pool is a bounded-resource semaphore over subprocess slots.
type Pool struct {
	log  *slog.Logger
	sem  *semaphore.Weighted
	size int
}

// New creates a pool with the given concurrency ceiling.
// A size of 0 selects DefaultConcurrency; anything outside
// [MinConcurrency, MaxConcurrency] is rejected.
func New(log *slog.Logger, size int) (*Pool, error) {
	if size == 0 {
		size = DefaultConcurrency
	}

	if size < MinConcurrency || size > MaxConcurrency {
		return nil, fmt.Errorf(
			"max concurrency must be between %d and %d, got %d",
			MinConcurrency, MaxConcurrency, size,
		)
	}

	return &Pool{
		log:  log.With("component", "process_pool"),
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}, nil
}

// Size returns the concurrency ceiling.
func (p *Pool) Size() int {
	return p.size
}

// Acquire obtains a subprocess slot, blocking in FIFO order when the pool
// is at capacity. Cancellation takes priority over availability: a context
// that is already done fails immediately even if a slot is free, and a
// waiter cancelled while queued is discarded without consuming a slot.
// The returned error is always an *errors.AbortError wrapping the original
// cancellation cause.
func (p *Pool) Acquire(ctx context.Context) (*Slot, error) {
	if err := ctx.Err(); err != nil {
		p.log.Debug("Acquire rejected, context already cancelled")

		return nil, &errors.AbortError{Err: context.Cause(ctx)}
	}

	queued := false

	if !p.sem.TryAcquire(1) {
		queued = true

		p.log.Debug("Pool at capacity, waiting for a slot")

		if err := p.sem.Acquire(ctx, 1); err != nil {
			p.log.Debug("Cancelled while queued for a slot")

			return nil, &errors.AbortError{Err: context.Cause(ctx), WhileQueued: true}
		}
	}

	slot := &Slot{
		id:   ulid.Make().String(),
		pool: p,
	}

	p.log.Debug("Slot acquired", "slot_id", slot.id, "queued", queued)

	return slot, nil
}

// Slot is one unit of subprocess concurrency. Release it exactly once;
// repeated calls are no-ops.
type Slot struct {
	id   string
	pool *Pool
	once sync.Once
}

// ID returns the slot's unique identifier.
func (s *Slot) ID() string {
	return s.id
}

// Release returns the slot to the pool. Safe to call more than once.
func (s *Slot) Release() {
	s.once.Do(func() {
		s.pool.sem.Release(1)
		s.pool.log.Debug("Slot released", "slot_id", s.id)
	})
}
