// Package wire implements the bounded-channel connections between
// stages described in spec §3/§5: primary (timed receive), secondary
// (non-blocking receive, last-value cached), and sink (externally
// drained) wires all share the same underlying bounded channel type.
//
// Generics are the Go-native way to express "arbitrary payload" here;
// the teacher itself doesn't use generics, but
// _examples/other_examples' aether/pkg/universe/stage.go's
// Stage[In, Out] — a typed channel pair wrapping a user function — is
// the direct model for wrapping a typed channel with lifecycle
// methods.
package wire

import (
	"context"
	"sync"
	"time"
)

// DefaultCapacity is the default wire capacity (spec §3: "capacity ≥ 1
// (default 2)").
const DefaultCapacity = 2

// Wire is a bounded, single-producer/single-consumer channel of T.
type Wire[T any] struct {
	ch        chan T
	closed    chan struct{}
	closeOnce sync.Once
}

// New creates a Wire with the given capacity, clamped to a minimum of
// 1.
func New[T any](capacity int) *Wire[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Wire[T]{
		ch:     make(chan T, capacity),
		closed: make(chan struct{}),
	}
}

// TrySend attempts a non-blocking send. Returns false if the wire is
// full (spec's "drop-newest at the producer's non-blocking send") or
// already closed.
func (w *Wire[T]) TrySend(v T) bool {
	select {
	case <-w.closed:
		return false
	default:
	}
	select {
	case w.ch <- v:
		return true
	default:
		return false
	}
}

// TryRecv attempts a non-blocking receive — the secondary-wire
// contract: "strictly non-blocking". ok is false on an empty or closed
// wire.
func (w *Wire[T]) TryRecv() (v T, ok bool) {
	select {
	case v, ok = <-w.ch:
		return v, ok
	default:
		return v, false
	}
}

// RecvTimeout attempts a receive that blocks for at most timeout — the
// primary-wire contract. ok is false on timeout, stop, or a closed,
// drained wire; it never raises for any of those, per spec's boundary
// behavior ("receiving from a closed wire yields empty without
// raising").
func (w *Wire[T]) RecvTimeout(ctx context.Context, stop <-chan struct{}, timeout time.Duration) (v T, ok bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case v, ok = <-w.ch:
		return v, ok
	case <-timer.C:
		return v, false
	case <-stop:
		return v, false
	case <-ctx.Done():
		return v, false
	}
}

// Close closes the underlying channel. Idempotent and safe to call
// from both the producing stage (closing its output) and the
// consuming stage (closing what it holds as a primary input) during a
// concurrent shutdown — spec.md §4.4's shutdown sequence has each
// worker close the wires on both sides of itself.
func (w *Wire[T]) Close() {
	w.closeOnce.Do(func() {
		close(w.closed)
		close(w.ch)
	})
}

// Drain empties any buffered items without blocking — used during
// shutdown to release producers that are blocked on a full wire and to
// leave the wire in a clean state before Close.
func (w *Wire[T]) Drain() {
	for {
		select {
		case _, ok := <-w.ch:
			if !ok {
				return
			}
		default:
			return
		}
	}
}

// Len reports the number of currently buffered items (for tests and
// observability).
func (w *Wire[T]) Len() int { return len(w.ch) }

// Cap reports the wire's capacity.
func (w *Wire[T]) Cap() int { return cap(w.ch) }
