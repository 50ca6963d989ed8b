// Package semaphore provides an adapter that mimics golang.org/x/sync/semaphore
// semantics using the local permits implementation. It enables incremental
// migration without changing call sites that expect the Weighted contract.
package semaphore

import (
	"context"
	"errors"

	"github.com/NetPo4ki/go-permits/permits"
)

// Weighted is a semaphore.Weighted-like wrapper over permits.Pool.
type Weighted struct {
	pool *permits.Pool
}

// NewWeighted creates a Weighted with the given maximum combined weight.
func NewWeighted(n int64) *Weighted {
	return &Weighted{pool: permits.New(n)}
}

// Acquire obtains n permits, blocking until they are free or ctx is done.
// Matching the x/sync contract, a request that can never be satisfied does
// not fail synchronously: it blocks until ctx is cancelled and then returns
// ctx.Err().
func (w *Weighted) Acquire(ctx context.Context, n int64) error {
	err := w.pool.Acquire(ctx, n)
	if errors.Is(err, permits.ErrInvalidRequest) {
		<-ctx.Done()
		return ctx.Err()
	}
	return err
}

// TryAcquire obtains n permits without blocking. It reports whether they
// were acquired.
func (w *Weighted) TryAcquire(n int64) bool {
	return w.pool.TryAcquire(n)
}

// Release returns n permits to the semaphore.
func (w *Weighted) Release(n int64) {
	w.pool.Release(n)
}
