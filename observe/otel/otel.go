package otel

import (
	"context"
	"time"
)

// Nop is a no-op implementation of the permits.Observer interface.
// It serves as a placeholder for an OpenTelemetry-backed observer without adding dependencies.
type Nop struct{}

// NewNop returns a no-op observer.
func NewNop() *Nop { return &Nop{} }

func (*Nop) PoolCreated(int64)                              {}
func (*Nop) Blocked(context.Context, int64)                 {}
func (*Nop) Acquired(context.Context, int64, time.Duration) {}
func (*Nop) Aborted(context.Context, int64, error)          {}
func (*Nop) Released(int64)                                 {}
