package mcp

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestWatchParent_CancelsWhenParentChanges(t *testing.T) {
	var ppid atomic.Int64
	ppid.Store(100)
	getppid := func() int { return int(ppid.Load()) }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var fired atomic.Bool
	done := watchParent(ctx, func() { fired.Store(true); cancel() }, 5*time.Millisecond, getppid)

	// Several polls with the same parent must not cancel.
	time.Sleep(30 * time.Millisecond)
	if fired.Load() {
		t.Fatal("cancelFn called while parent unchanged")
	}

	// Reparented to init.
	ppid.Store(1)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after parent changed")
	}
	if !fired.Load() {
		t.Error("cancelFn was not called after parent changed")
	}
}

func TestWatchParent_ExitsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var fired atomic.Bool
	done := watchParent(ctx, func() { fired.Store(true) }, 5*time.Millisecond, func() int { return 100 })
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not exit after context cancel")
	}
	if fired.Load() {
		t.Error("cancelFn should not fire when the context is canceled")
	}
}
