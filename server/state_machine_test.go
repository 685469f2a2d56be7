package server

import (
	"errors"
	"testing"

	"github.com/blockberries/stakeledger"
)

func expectPanic(t *testing.T, msg string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Fatal(msg)
		}
	}()
	fn()
}

func initialized() *LifecycleGuard {
	g := NewLifecycleGuard()
	g.AcquireInit()
	g.CompleteInit()
	return g
}

func TestLifecycleGuard_HappyPath(t *testing.T) {
	g := initialized()

	if !g.IsIdle() {
		t.Fatal("expected Idle after InitChain")
	}

	for i := 0; i < 2; i++ {
		// Idle → BlockOpen (BeginBlock)
		g.AcquireBegin()
		g.CompleteBegin()

		// BlockOpen → BlockOpen (DeliverTx)*
		g.AcquireDeliver()
		g.CompleteDeliver()
		g.AcquireDeliver()
		g.CompleteDeliver()

		// BlockOpen → BlockClosing (EndBlock)
		g.AcquireEnd()
		g.CompleteEnd()

		// BlockClosing → Committing → Idle (Commit)
		g.AcquireCommit()
		if g.State() != "Committing" {
			t.Fatalf("expected Committing, got %s", g.State())
		}
		g.CompleteCommit()

		if !g.IsIdle() {
			t.Fatalf("expected Idle after commit %d", i)
		}
	}
}

func TestLifecycleGuard_EmptyBlock(t *testing.T) {
	g := initialized()
	g.AcquireBegin()
	g.CompleteBegin()
	g.AcquireEnd()
	g.CompleteEnd()
	g.AcquireCommit()
	g.CompleteCommit()
}

func TestLifecycleGuard_ConcurrentAfterInit(t *testing.T) {
	g := initialized()

	// CheckConcurrent should not panic after InitChain.
	if err := g.CheckConcurrent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLifecycleGuard_ConcurrentAfterHalt(t *testing.T) {
	g := initialized()
	g.AcquireBegin()
	g.Halt()

	if err := g.CheckConcurrent(); !errors.Is(err, stakeledger.ErrHalted) {
		t.Fatalf("expected ErrHalted, got %v", err)
	}
}

func TestLifecycleGuard_ConcurrentBeforeInit(t *testing.T) {
	g := NewLifecycleGuard()
	expectPanic(t, "expected panic for concurrent call before init", func() { _ = g.CheckConcurrent() })
}

func TestLifecycleGuard_Resume(t *testing.T) {
	g := NewLifecycleGuard()
	g.Resume()
	if !g.IsIdle() {
		t.Fatal("expected Idle after resume")
	}
	if err := g.CheckConcurrent(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	g.AcquireBegin()
	g.CompleteBegin()
	// Resume outside Init is a no-op.
	g.Resume()
	if g.State() != "BlockOpen" {
		t.Fatalf("expected BlockOpen, got %s", g.State())
	}
}

func TestLifecycleGuard_DoubleInit(t *testing.T) {
	g := initialized()
	expectPanic(t, "expected panic for double InitChain", g.AcquireInit)
}

func TestLifecycleGuard_OutOfOrder(t *testing.T) {
	cases := []struct {
		name  string
		fresh bool
		setup func(*LifecycleGuard)
		call  func(*LifecycleGuard)
	}{
		{"begin before init", true, func(*LifecycleGuard) {}, (*LifecycleGuard).AcquireBegin},
		{"deliver without begin", false, func(*LifecycleGuard) {}, (*LifecycleGuard).AcquireDeliver},
		{"end without begin", false, func(*LifecycleGuard) {}, (*LifecycleGuard).AcquireEnd},
		{"commit without end", false, func(g *LifecycleGuard) {
			g.AcquireBegin()
			g.CompleteBegin()
		}, (*LifecycleGuard).AcquireCommit},
		{"deliver after end", false, func(g *LifecycleGuard) {
			g.AcquireBegin()
			g.CompleteBegin()
			g.AcquireEnd()
			g.CompleteEnd()
		}, (*LifecycleGuard).AcquireDeliver},
		{"begin twice", false, func(g *LifecycleGuard) {
			g.AcquireBegin()
			g.CompleteBegin()
		}, (*LifecycleGuard).AcquireBegin},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := initialized()
			if tc.fresh {
				g = NewLifecycleGuard()
			}
			tc.setup(g)
			expectPanic(t, "expected panic", func() { tc.call(g) })
		})
	}
}

func TestLifecycleGuard_PanicReleasesLock(t *testing.T) {
	g := initialized()
	expectPanic(t, "expected panic for commit in Idle", g.AcquireCommit)

	// The lock must not be held after the panic.
	g.AcquireBegin()
	g.CompleteBegin()
}

func TestLifecycleGuard_FailInit(t *testing.T) {
	g := NewLifecycleGuard()
	g.AcquireInit()
	g.Abort()

	// Back in Init, so InitChain may run again.
	g.AcquireInit()
	g.CompleteInit()

	if !g.IsIdle() {
		t.Fatal("expected Idle after successful retry")
	}
}

func TestLifecycleGuard_Abort(t *testing.T) {
	g := initialized()
	g.AcquireBegin()
	g.Abort()
	if !g.IsIdle() {
		t.Fatalf("expected Idle after aborted BeginBlock, got %s", g.State())
	}

	g.AcquireBegin()
	g.CompleteBegin()
	g.AcquireEnd()
	g.CompleteEnd()
	g.AcquireCommit()
	g.Abort()
	if g.State() != "BlockClosing" {
		t.Fatalf("expected BlockClosing after aborted Commit, got %s", g.State())
	}
}

func TestLifecycleGuard_Halt(t *testing.T) {
	g := initialized()
	g.AcquireBegin()
	g.Halt()

	if !g.IsHalted() {
		t.Fatal("expected Halted")
	}
	expectPanic(t, "expected panic after halt", g.AcquireBegin)
}

func TestLifecycleGuard_State(t *testing.T) {
	g := NewLifecycleGuard()

	if g.State() != "Init" {
		t.Errorf("expected Init, got %s", g.State())
	}

	g.AcquireInit()
	g.CompleteInit()

	if g.State() != "Idle" {
		t.Errorf("expected Idle, got %s", g.State())
	}
}
