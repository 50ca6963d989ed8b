package permits

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// ErrInvalidRequest reports an acquisition that no sequence of releases can
// ever satisfy. Acquire wraps it with the offending figures; match it with
// errors.Is.
var ErrInvalidRequest = errors.New("permits: invalid permit request")

type waiter struct {
	n     int64
	ready chan struct{} // closed once the permits have been transferred
}

// Pool is a fixed-capacity permit pool. The check that enough permits are
// free and the decrement that takes them happen as one step under the pool's
// lock, so concurrent acquirers racing for the last permits never both
// succeed. All methods are safe for concurrent use.
//
// The zero value is not usable; construct with New.
type Pool struct {
	capacity int64

	mu        sync.Mutex
	available int64
	waiters   list.List

	opts Options
	obs  Observer
}

// New creates a Pool with all capacity permits free.
// It panics if capacity is not positive.
func New(capacity int64, optFns ...Option) *Pool {
	if capacity <= 0 {
		panic(fmt.Sprintf("permits: capacity %d is not positive", capacity))
	}
	p := &Pool{capacity: capacity, available: capacity, opts: defaultOptions()}
	for _, fn := range optFns {
		fn(&p.opts)
	}
	p.obs = p.opts.Observer
	if p.obs != nil {
		p.obs.PoolCreated(capacity)
	}
	return p
}

// Acquire blocks until n permits are free, then takes all of them at once.
//
// It fails fast with an error wrapping ErrInvalidRequest when n is negative
// or exceeds the pool's capacity, and returns ctx.Err() when ctx ends before
// the permits are granted. In both failure cases the pool is left untouched.
// A nil return means the caller holds exactly n permits and must pair them
// with Release(n); Do handles that pairing automatically.
func (p *Pool) Acquire(ctx context.Context, n int64) error {
	if n < 0 || n > p.capacity {
		var err error
		if n < 0 {
			err = fmt.Errorf("%w: negative acquire(%d)", ErrInvalidRequest, n)
		} else {
			err = fmt.Errorf("%w: acquire(%d) exceeds capacity %d", ErrInvalidRequest, n, p.capacity)
		}
		if p.obs != nil {
			p.obs.Aborted(ctx, n, err)
		}
		return err
	}

	done := ctx.Done()
	select {
	case <-done:
		// The caller no longer wants the permits; don't take any.
		if p.obs != nil {
			p.obs.Aborted(ctx, n, ctx.Err())
		}
		return ctx.Err()
	default:
	}

	if n == 0 {
		if p.obs != nil {
			p.obs.Acquired(ctx, 0, 0)
		}
		return nil
	}

	p.mu.Lock()
	if p.available >= n && p.waiters.Len() == 0 {
		p.available -= n
		p.mu.Unlock()
		if p.obs != nil {
			p.obs.Acquired(ctx, n, 0)
		}
		return nil
	}

	w := waiter{n: n, ready: make(chan struct{})}
	elem := p.waiters.PushBack(w)
	p.mu.Unlock()

	var start time.Time
	if p.obs != nil {
		start = time.Now()
		p.obs.Blocked(ctx, n)
	}

	select {
	case <-done:
		p.mu.Lock()
		select {
		case <-w.ready:
			// The grant won the race. Undo it so the cancelled acquire
			// stays a net no-op on the pool.
			p.available += n
			p.grantWaiters()
		default:
			front := p.waiters.Front() == elem
			p.waiters.Remove(elem)
			// A large request leaving the head may unblock smaller ones.
			if front && p.available > 0 {
				p.grantWaiters()
			}
		}
		p.mu.Unlock()
		if p.obs != nil {
			p.obs.Aborted(ctx, n, ctx.Err())
		}
		return ctx.Err()

	case <-w.ready:
		// Granted, but prefer the cancellation if it arrived by now.
		select {
		case <-done:
			p.putBack(n)
			if p.obs != nil {
				p.obs.Aborted(ctx, n, ctx.Err())
			}
			return ctx.Err()
		default:
		}
		if p.obs != nil {
			p.obs.Acquired(ctx, n, time.Since(start))
		}
		return nil
	}
}

// TryAcquire takes n permits without blocking and reports whether it
// succeeded. It does not jump the queue: while acquirers are waiting it
// fails even if enough permits are free. An invalid n reports false.
func (p *Pool) TryAcquire(n int64) bool {
	if n < 0 || n > p.capacity {
		return false
	}
	p.mu.Lock()
	ok := p.available >= n && p.waiters.Len() == 0
	if ok {
		p.available -= n
	}
	p.mu.Unlock()
	if ok && p.obs != nil {
		p.obs.Acquired(context.Background(), n, 0)
	}
	return ok
}

// Release returns n permits to the pool and never blocks. It panics if n is
// negative or if the release would leave more permits free than the pool's
// capacity, which means permits were released that were never acquired.
func (p *Pool) Release(n int64) {
	if n < 0 {
		panic(fmt.Sprintf("permits: release of negative count %d", n))
	}
	p.mu.Lock()
	p.available += n
	if p.available > p.capacity {
		p.mu.Unlock()
		panic("permits: released more than held")
	}
	p.grantWaiters()
	p.mu.Unlock()
	if p.obs != nil {
		p.obs.Released(n)
	}
}

// Do runs fn while holding n permits and releases them when fn returns or
// panics. The error from Acquire is returned as-is, so a cancelled or
// invalid acquisition never runs fn.
func (p *Pool) Do(ctx context.Context, n int64, fn func(context.Context) error) error {
	if err := p.Acquire(ctx, n); err != nil {
		return err
	}
	defer p.Release(n)
	return fn(ctx)
}

// Available reports how many permits are currently free. The value is read
// under the pool's lock, never torn.
func (p *Pool) Available() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.available
}

// InUse reports how many permits are currently held by acquirers.
func (p *Pool) InUse() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.capacity - p.available
}

// Capacity returns the fixed capacity the pool was created with.
func (p *Pool) Capacity() int64 { return p.capacity }

// Name returns the label set with WithName.
func (p *Pool) Name() string { return p.opts.Name }

// grantWaiters transfers permits to queued acquirers in order, stopping at
// the first one that cannot be satisfied so large requests are not starved
// by a stream of small ones. Callers must hold p.mu.
func (p *Pool) grantWaiters() {
	for {
		next := p.waiters.Front()
		if next == nil {
			break
		}
		w := next.Value.(waiter)
		if p.available < w.n {
			break
		}
		p.available -= w.n
		p.waiters.Remove(next)
		close(w.ready)
	}
}

// putBack undoes a grant that lost the race against cancellation. Unlike
// Release it reports nothing to the observer: the permits were never owned
// by the caller.
func (p *Pool) putBack(n int64) {
	p.mu.Lock()
	p.available += n
	p.grantWaiters()
	p.mu.Unlock()
}
