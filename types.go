// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"context"
	"iter"
)

// Mode is the buffering policy of a channel.
type Mode uint8

const (
	// ModeRendezvous has no buffer: every send pairs with a receive.
	ModeRendezvous Mode = iota
	// ModeBounded buffers up to a fixed number of elements.
	ModeBounded
	// ModeUnbounded buffers without limit; sends never suspend.
	ModeUnbounded
	// ModeConflated keeps only the most recent unreceived element.
	ModeConflated
)

// Capacity values with a special meaning for [Make] and [New].
const (
	Rendezvous = 0
	Unlimited  = -1
	Conflated  = -2
)

func (m Mode) String() string {
	switch m {
	case ModeRendezvous:
		return "rendezvous"
	case ModeBounded:
		return "bounded"
	case ModeUnbounded:
		return "unbounded"
	case ModeConflated:
		return "conflated"
	default:
		return "unknown"
	}
}

// SendChannel is the producer side of a channel.
type SendChannel[T any] interface {
	// Send suspends until v is accepted: paired with a receiver or
	// buffered. Returns a *ClosedError or *CancelledError if the channel
	// is terminated, or ctx.Err() if ctx ends first (v is then not sent).
	Send(ctx context.Context, v T) error

	// TrySend never suspends. Returns nil if v was accepted,
	// ErrWouldBlock if the channel is full, or the termination error.
	TrySend(v T) error

	// Close stops further sends. Returns false if already closed.
	Close(cause error) bool

	// IsClosedForSend reports whether Close or Cancel has been called.
	IsClosedForSend() bool
}

// ReceiveChannel is the consumer side of a channel.
type ReceiveChannel[T any] interface {
	// Receive suspends until an element is available. Buffered elements
	// are still delivered after Close; once drained, Receive returns the
	// *ClosedError. After Cancel it returns the *CancelledError.
	Receive(ctx context.Context) (T, error)

	// TryReceive never suspends. Returns ErrWouldBlock if the channel is
	// empty.
	TryReceive() (T, error)

	// ReceiveOrClosed is Receive with the closed outcome folded into the
	// result instead of the error.
	ReceiveOrClosed(ctx context.Context) (ValueOrClosed[T], error)

	// All yields received elements until the channel is closed, cancelled
	// or ctx ends.
	All(ctx context.Context) iter.Seq[T]

	// Cancel discards buffered elements and fails all pending and future
	// operations with cause. Returns false if already cancelled.
	Cancel(cause error) bool

	// IsClosedForReceive reports whether receives can no longer succeed.
	IsClosedForReceive() bool

	// IsEmpty reports whether no element is ready to be received.
	IsEmpty() bool
}

// ValueOrClosed is the outcome of ReceiveOrClosed.
type ValueOrClosed[T any] struct {
	value  T
	closed bool
	cause  error
}

// IsClosed reports whether the channel was closed and drained.
func (r ValueOrClosed[T]) IsClosed() bool {
	return r.closed
}

// Value returns the received element, or the zero value if closed.
func (r ValueOrClosed[T]) Value() T {
	return r.value
}

// Cause returns the close cause if IsClosed.
func (r ValueOrClosed[T]) Cause() error {
	return r.cause
}
