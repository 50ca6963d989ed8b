package semaphore

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/goleak"
	xsemaphore "golang.org/x/sync/semaphore"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestAcquireReleaseRoundTrip(t *testing.T) {
	t.Parallel()
	w := NewWeighted(3)
	if err := w.Acquire(context.Background(), 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if w.TryAcquire(2) {
		t.Fatal("TryAcquire(2) succeeded with only 1 permit free")
	}
	w.Release(2)
	if !w.TryAcquire(3) {
		t.Fatal("TryAcquire(3) failed on an idle semaphore")
	}
	w.Release(3)
}

func TestDoomedAcquireBlocksUntilCancel(t *testing.T) {
	t.Parallel()
	w := NewWeighted(3)
	ctx, cancel := context.WithCancel(context.Background())
	ret := make(chan error, 1)
	go func() { ret <- w.Acquire(ctx, 4) }()

	select {
	case err := <-ret:
		t.Fatalf("oversized Acquire returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	cancel()
	select {
	case err := <-ret:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(250 * time.Millisecond):
		t.Fatal("oversized Acquire did not return after cancel")
	}

	// The doomed request must not have consumed anything.
	if !w.TryAcquire(3) {
		t.Fatal("semaphore lost permits to a cancelled oversized request")
	}
	w.Release(3)
}

func TestDoomedAcquireMatchesXSync(t *testing.T) {
	t.Parallel()
	ours := NewWeighted(3)
	ref := xsemaphore.NewWeighted(3)

	for name, acquire := range map[string]func(context.Context, int64) error{
		"ours": ours.Acquire,
		"ref":  ref.Acquire,
	} {
		ctx, cancel := context.WithCancel(context.Background())
		ret := make(chan error, 1)
		go func() { ret <- acquire(ctx, 4) }()
		select {
		case err := <-ret:
			t.Fatalf("%s: oversized Acquire returned early: %v", name, err)
		case <-time.After(50 * time.Millisecond):
		}
		cancel()
		select {
		case err := <-ret:
			if !errors.Is(err, context.Canceled) {
				t.Fatalf("%s: expected context.Canceled, got %v", name, err)
			}
		case <-time.After(250 * time.Millisecond):
			t.Fatalf("%s: oversized Acquire did not return after cancel", name)
		}
	}

	if got, want := ours.TryAcquire(3), ref.TryAcquire(3); got != want {
		t.Fatalf("TryAcquire(3) diverged: ours=%v ref=%v", got, want)
	}
}

func TestTryAcquireMatchesXSync(t *testing.T) {
	t.Parallel()
	ours := NewWeighted(5)
	ref := xsemaphore.NewWeighted(5)

	steps := []struct {
		op string
		n  int64
	}{
		{"try", 3},
		{"try", 3},
		{"try", 2},
		{"release", 2},
		{"try", 6},
		{"try", 2},
		{"release", 5},
		{"try", 5},
	}
	for i, s := range steps {
		switch s.op {
		case "try":
			got, want := ours.TryAcquire(s.n), ref.TryAcquire(s.n)
			if got != want {
				t.Fatalf("step %d: TryAcquire(%d) diverged: ours=%v ref=%v", i, s.n, got, want)
			}
		case "release":
			ours.Release(s.n)
			ref.Release(s.n)
		}
	}
}
