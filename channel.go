// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfchan/internal/lflist"
	"code.hybscloud.com/lfchan/internal/taskq"
	"code.hybscloud.com/spin"
	"github.com/sirupsen/logrus"
)

// Channel is a lock-free channel for communication between goroutines.
//
// All coordination happens through one lock-free list per channel. A
// send pairs with the first parked receiver, or appends a buffered
// element, or parks behind the elements already queued. A receive takes
// the first element, or completes the first parked sender, or parks.
// Close appends a token behind everything queued so that elements
// buffered before it remain receivable.
//
// Operations that suspend take a context.Context and return ctx.Err()
// when it ends first; the operation then has no effect.
type Channel[T any] struct {
	_        pad
	size     atomix.Int64 // buffered elements, bounded mode only
	_        pad
	list     lflist.List[*entry[T]]
	store    storage[T]
	mode     Mode
	capacity int64

	closeCause  atomix.Pointer[causeBox]
	cancelCause atomix.Pointer[causeBox]
	sealed      atomix.Bool // close token linked
	handlers    *taskq.Queue[func(error)]

	log     *logrus.Entry
	metrics *Metrics
}

type causeBox struct {
	err error
}

var (
	_ SendChannel[int]    = (*Channel[int])(nil)
	_ ReceiveChannel[int] = (*Channel[int])(nil)
)

func newChannel[T any](opts Options) *Channel[T] {
	c := &Channel[T]{
		mode:     opts.mode,
		capacity: int64(opts.capacity),
		handlers: taskq.New[func(error)](false),
		metrics:  opts.metrics,
	}
	switch opts.mode {
	case ModeBounded:
		c.store = newRing[T](opts.capacity)
	case ModeUnbounded:
		c.store = newSegmentStore[T]()
	}
	logger := opts.logger
	if logger == nil {
		logger = discardLogger
	}
	c.log = logger.WithFields(logrus.Fields{
		"mode":     opts.mode.String(),
		"capacity": c.Cap(),
	})
	return c
}

// Mode returns the buffering policy.
func (c *Channel[T]) Mode() Mode {
	return c.mode
}

// Cap returns the buffer capacity: the bound of a bounded channel,
// Rendezvous, Unlimited or Conflated otherwise.
func (c *Channel[T]) Cap() int {
	switch c.mode {
	case ModeBounded:
		return int(c.capacity)
	case ModeUnbounded:
		return Unlimited
	case ModeConflated:
		return Conflated
	default:
		return Rendezvous
	}
}

// IsClosedForSend reports whether Close or Cancel has been called.
func (c *Channel[T]) IsClosedForSend() bool {
	return c.closeCause.LoadAcquire() != nil
}

// IsClosedForReceive reports whether the channel is cancelled, or closed
// with every buffered element received.
func (c *Channel[T]) IsClosedForReceive() bool {
	if c.cancelCause.LoadAcquire() != nil {
		return true
	}
	if !c.sealed.Load() {
		return false
	}
	first := c.list.First()
	return first == nil || first.Value.kind == kindClosed
}

// IsEmpty reports whether no element is ready to be received.
func (c *Channel[T]) IsEmpty() bool {
	if c.cancelCause.LoadAcquire() != nil {
		return true
	}
	empty := true
	c.list.ForEach(func(n *lflist.Node[*entry[T]]) bool {
		e := n.Value
		if e.offers() {
			empty = false
			return false
		}
		return e.dead()
	})
	return empty
}

// Close stops further sends. Parked senders fail with a *ClosedError
// carrying cause; elements already buffered stay receivable. Returns
// false if the channel was already closed, in which case cause is
// ignored.
func (c *Channel[T]) Close(cause error) bool {
	if !c.closeCause.CompareAndSwapAcqRel(nil, &causeBox{err: cause}) {
		return false
	}
	c.list.AddLast(lflist.NewNode(&entry[T]{kind: kindClosed}))
	c.sealed.Store(true)
	c.failWaiters()
	c.log.WithField("cause", cause).Debug("channel closed")
	c.metrics.terminated(c.mode, "close")
	c.runCloseHandlers()
	return true
}

// Cancel closes the channel, discards buffered elements and fails every
// pending and future operation with a *CancelledError carrying cause.
// Returns false if the channel was already cancelled.
func (c *Channel[T]) Cancel(cause error) bool {
	if !c.cancelCause.CompareAndSwapAcqRel(nil, &causeBox{err: cause}) {
		return false
	}
	c.Close(cause)
	sw := spin.Wait{}
	for !c.sealed.Load() {
		sw.Once()
	}
	c.discard()
	c.log.WithField("cause", cause).Debug("channel cancelled")
	c.metrics.terminated(c.mode, "cancel")
	c.runCloseHandlers()
	return true
}

// InvokeOnClose registers fn to run once when the channel is closed or
// cancelled. fn receives the close cause. If the channel is already
// closed, fn runs immediately. The returned function unregisters fn and
// reports whether it did so before fn ran.
func (c *Channel[T]) InvokeOnClose(fn func(cause error)) (remove func() bool) {
	h, err := c.handlers.AddLast(fn)
	if err != nil {
		c.runHandler(fn, c.closeCause.LoadAcquire().err)
		return func() bool { return false }
	}
	return func() bool { return c.handlers.Remove(h) }
}

func (c *Channel[T]) runCloseHandlers() {
	c.handlers.Close()
	cause := c.closeCause.LoadAcquire().err
	sw := spin.Wait{}
	for {
		fn, ok := c.handlers.RemoveFirstOrNil()
		if ok {
			c.runHandler(fn, cause)
			continue
		}
		// Items reserved before Close may still be publishing.
		if c.handlers.IsEmpty() {
			return
		}
		sw.Once()
	}
}

func (c *Channel[T]) runHandler(fn func(error), cause error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Warn("close handler panicked")
		}
	}()
	fn(cause)
}

// failWaiters fails every waiter queued before the close token.
func (c *Channel[T]) failWaiters() {
	err := c.terminalErr()
	c.list.ForEach(func(n *lflist.Node[*entry[T]]) bool {
		e := n.Value
		switch e.kind {
		case kindClosed:
			return false
		case kindSender, kindReceiver:
			if e.dec.claim(e.clause) {
				e.dec.complete(err)
				c.list.Remove(n)
			}
		}
		return true
	})
}

// discard drops every element queued before the close token.
func (c *Channel[T]) discard() {
	err := c.terminalErr()
	isSenderSide := func(n *lflist.Node[*entry[T]]) bool {
		k := n.Value.kind
		return k == kindBuffered || k == kindSender
	}
	for {
		n, removed := c.list.RemoveFirstIfOrPeek(isSenderSide, nil)
		if !removed {
			return
		}
		e := n.Value
		switch {
		case e.kind == kindBuffered:
			c.dropBuffered()
		case e.dec.claim(e.clause):
			e.dec.complete(err)
		case e.promoted():
			c.dropBuffered()
		}
	}
}

func (c *Channel[T]) dropBuffered() {
	if c.store == nil {
		return
	}
	c.store.take()
	if c.mode == ModeBounded {
		c.size.Add(-1)
	}
}

// sendErr returns the error a send fails with, or nil while open.
func (c *Channel[T]) sendErr() error {
	if c.closeCause.LoadAcquire() == nil {
		return nil
	}
	return c.terminalErr()
}

// terminalErr returns the error of a closed or cancelled channel.
func (c *Channel[T]) terminalErr() error {
	if b := c.cancelCause.LoadAcquire(); b != nil {
		return &CancelledError{Cause: b.err}
	}
	return &ClosedError{Cause: c.closeCause.LoadAcquire().err}
}
