// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"context"
	"errors"
	"iter"

	"code.hybscloud.com/lfchan/internal/lflist"
)

// poll is the non-suspending receive.
func (c *Channel[T]) poll() (T, error) {
	var zero T
	isSenderSide := func(n *lflist.Node[*entry[T]]) bool {
		k := n.Value.kind
		return k == kindBuffered || k == kindSender
	}
	isClosed := func(n *lflist.Node[*entry[T]]) bool {
		return n.Value.kind == kindClosed
	}
	for {
		if c.cancelCause.LoadAcquire() != nil {
			return zero, c.terminalErr()
		}
		n, removed := c.list.RemoveFirstIfOrPeek(isSenderSide, isClosed)
		if n == nil {
			return zero, ErrWouldBlock
		}
		if !removed {
			return zero, c.terminalErr()
		}
		e := n.Value
		switch {
		case e.kind == kindBuffered:
			return c.takeBuffered(e), nil
		case e.dec.claim(e.clause):
			v := e.elem
			e.dec.complete(nil)
			return v, nil
		case e.promoted():
			return c.takeBuffered(e), nil
		}
	}
}

// takeBuffered takes the element of a buffered node removed by the caller.
func (c *Channel[T]) takeBuffered(e *entry[T]) T {
	switch c.mode {
	case ModeConflated:
		return e.elem
	case ModeBounded:
		v := c.store.take()
		c.release()
		return v
	default:
		return c.store.take()
	}
}

// TryReceive receives without suspending. Returns ErrWouldBlock if no
// element is ready.
func (c *Channel[T]) TryReceive() (T, error) {
	v, err := c.poll()
	if err == nil {
		c.metrics.received(c.mode)
	}
	return v, err
}

// Receive receives an element, suspending while the channel is empty.
func (c *Channel[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	for {
		v, err := c.poll()
		if err == nil {
			c.metrics.received(c.mode)
			return v, nil
		}
		if err != ErrWouldBlock {
			return zero, err
		}
		e := &entry[T]{kind: kindReceiver, dec: newDecision()}
		n, verdict := c.enlist(e)
		if verdict != linked {
			continue
		}
		c.metrics.suspended(c.mode, "receive")
		if _, err := e.dec.park(ctx); err != nil {
			c.list.Remove(n)
			return zero, err
		}
		if e.dec.err != nil {
			return zero, e.dec.err
		}
		c.metrics.received(c.mode)
		return e.elem, nil
	}
}

// ReceiveOrClosed receives an element or reports that the channel was
// closed and drained. The returned error is non-nil only for a cancelled
// channel or an ended ctx.
func (c *Channel[T]) ReceiveOrClosed(ctx context.Context) (ValueOrClosed[T], error) {
	v, err := c.Receive(ctx)
	if err == nil {
		return ValueOrClosed[T]{value: v}, nil
	}
	var closed *ClosedError
	if errors.As(err, &closed) {
		return ValueOrClosed[T]{closed: true, cause: closed.Cause}, nil
	}
	return ValueOrClosed[T]{}, err
}

// All returns an iterator receiving elements until the channel is closed,
// cancelled or ctx ends.
//
//	for v := range ch.All(ctx) {
//	    process(v)
//	}
func (c *Channel[T]) All(ctx context.Context) iter.Seq[T] {
	return func(yield func(T) bool) {
		for {
			v, err := c.Receive(ctx)
			if err != nil || !yield(v) {
				return
			}
		}
	}
}
