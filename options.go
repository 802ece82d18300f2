// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Options configures channel creation.
type Options struct {
	mode     Mode
	capacity int

	logger  *logrus.Logger
	metrics *Metrics
}

// Builder creates channels with fluent configuration.
//
// Example:
//
//	// Bounded channel with lifecycle logging
//	ch := lfchan.Build[Event](lfchan.New(64).Logger(logrus.StandardLogger()))
//
//	// Conflated channel publishing metrics
//	m := lfchan.NewMetrics(prometheus.DefaultRegisterer)
//	ch := lfchan.Build[State](lfchan.New(lfchan.Conflated).Metrics(m))
type Builder struct {
	opts Options
}

// New creates a channel builder.
//
// capacity selects the mode:
//
//	Rendezvous (0) → no buffer
//	n > 0          → bounded buffer of n elements
//	Unlimited (-1) → unbounded buffer
//	Conflated (-2) → keeps the latest element only
//
// Panics on any other negative capacity.
func New(capacity int) *Builder {
	b := &Builder{}
	switch {
	case capacity == Rendezvous:
		b.opts.mode = ModeRendezvous
	case capacity > 0:
		b.opts.mode = ModeBounded
		b.opts.capacity = capacity
	case capacity == Unlimited:
		b.opts.mode = ModeUnbounded
	case capacity == Conflated:
		b.opts.mode = ModeConflated
	default:
		panic("lfchan: invalid channel capacity")
	}
	return b
}

// Unlimited switches the builder to an unbounded buffer.
func (b *Builder) Unlimited() *Builder {
	b.opts.mode = ModeUnbounded
	b.opts.capacity = 0
	return b
}

// Conflated switches the builder to a conflated buffer.
func (b *Builder) Conflated() *Builder {
	b.opts.mode = ModeConflated
	b.opts.capacity = 0
	return b
}

// Logger sets the logger receiving lifecycle events (close, cancel,
// failing close handlers). Channels are silent by default.
func (b *Builder) Logger(l *logrus.Logger) *Builder {
	b.opts.logger = l
	return b
}

// Metrics sets the collector counting channel operations.
func (b *Builder) Metrics(m *Metrics) *Builder {
	b.opts.metrics = m
	return b
}

// Build creates a Channel[T] from the builder configuration.
func Build[T any](b *Builder) *Channel[T] {
	return newChannel[T](b.opts)
}

// Make creates a channel for the given capacity; see [New] for the
// meaning of capacity.
func Make[T any](capacity int) *Channel[T] {
	return Build[T](New(capacity))
}

// NewRendezvous creates a channel without buffer.
func NewRendezvous[T any]() *Channel[T] {
	return Make[T](Rendezvous)
}

// NewBounded creates a channel buffering up to n elements.
// Panics if n < 1.
func NewBounded[T any](n int) *Channel[T] {
	if n < 1 {
		panic("lfchan: bounded capacity must be >= 1")
	}
	return Make[T](n)
}

// NewUnbounded creates a channel whose sends never suspend.
func NewUnbounded[T any]() *Channel[T] {
	return Make[T](Unlimited)
}

// NewConflated creates a channel keeping only the latest element.
func NewConflated[T any]() *Channel[T] {
	return Make[T](Conflated)
}

var discardLogger = func() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return l
}()

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte
