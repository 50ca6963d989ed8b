package permits

import (
	"context"
	"time"
)

type Option func(*Options)

type Options struct {
	Name     string
	Observer Observer
}

func defaultOptions() Options { return Options{Name: "permits"} }

// WithName labels the pool for observers and exported metrics.
func WithName(name string) Option { return func(o *Options) { o.Name = name } }

// WithObserver attaches an Observer to the pool.
func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

// Observer receives pool activity events. Hooks are invoked outside the
// pool's lock and must be safe for concurrent use. The ctx is the
// acquirer's; TryAcquire reports with context.Background().
type Observer interface {
	PoolCreated(capacity int64)
	// Blocked fires once when an acquire queues behind insufficient permits.
	Blocked(ctx context.Context, n int64)
	// Acquired fires for every successful acquire; wait is zero when the
	// permits were free on arrival.
	Acquired(ctx context.Context, n int64, wait time.Duration)
	// Aborted fires when an acquire returns without permits, either because
	// the request was invalid or because ctx ended first.
	Aborted(ctx context.Context, n int64, err error)
	Released(n int64)
}
