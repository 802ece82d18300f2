// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"context"

	"code.hybscloud.com/lfchan/internal/lflist"
	"code.hybscloud.com/spin"
)

// verdict is the outcome of linking an entry behind the current last node.
type verdict uint8

const (
	linked   verdict = iota
	rejected         // the counterpart or the close token is last; retry the fast path
	blocked          // a parked sender is last; a buffered element must queue behind it
	stale            // the last node is a dead waiter; remove it and retry
)

// admit decides whether e may be linked after prev (nil for an empty list).
func (c *Channel[T]) admit(e, prev *entry[T]) verdict {
	if prev != nil && prev.dead() {
		return stale
	}
	switch e.kind {
	case kindBuffered:
		if prev == nil {
			return linked
		}
		switch prev.kind {
		case kindBuffered:
			return linked
		case kindSender:
			if prev.promoted() {
				return linked
			}
			return blocked
		default:
			return rejected
		}
	case kindSender:
		if prev != nil {
			switch prev.kind {
			case kindSender:
				if prev.pending() {
					return linked
				}
			case kindBuffered:
			default:
				return rejected
			}
		}
		// Buffer room with no parked sender ahead: the element must be
		// buffered instead.
		if c.mode == ModeBounded && c.size.Load() < c.capacity {
			return rejected
		}
		return linked
	case kindReceiver:
		if prev == nil || prev.kind == kindReceiver {
			return linked
		}
		return rejected
	}
	return rejected
}

// enlist links e at the end of the list if admitted. Dead waiters found
// last are removed on the way.
func (c *Channel[T]) enlist(e *entry[T]) (*lflist.Node[*entry[T]], verdict) {
	n := lflist.NewNode(e)
	for {
		var last *lflist.Node[*entry[T]]
		v := linked
		ok := c.list.AddLastIf(n, func(prev *lflist.Node[*entry[T]]) bool {
			var p *entry[T]
			if prev != nil {
				p = prev.Value
			}
			last, v = prev, c.admit(e, p)
			return v == linked
		})
		if ok {
			return n, linked
		}
		if v == stale {
			c.list.Remove(last)
			continue
		}
		return nil, v
	}
}

// handOff pairs v with the first parked receiver, if any.
func (c *Channel[T]) handOff(v T) bool {
	isReceiver := func(n *lflist.Node[*entry[T]]) bool {
		return n.Value.kind == kindReceiver
	}
	for {
		n, removed := c.list.RemoveFirstIfOrPeek(isReceiver, nil)
		if !removed {
			return false
		}
		e := n.Value
		if e.dec.claim(e.clause) {
			e.elem = v
			e.dec.complete(nil)
			return true
		}
	}
}

// offer is the non-suspending send.
func (c *Channel[T]) offer(v T) error {
	sw := spin.Wait{}
	for {
		if err := c.sendErr(); err != nil {
			return err
		}
		if c.handOff(v) {
			return nil
		}
		switch c.mode {
		case ModeRendezvous:
			if c.closeCause.LoadAcquire() != nil {
				continue
			}
			return ErrWouldBlock
		case ModeBounded:
			s := c.size.Load()
			if s >= c.capacity {
				if c.closeCause.LoadAcquire() != nil {
					continue
				}
				return ErrWouldBlock
			}
			if !c.size.CompareAndSwap(s, s+1) {
				sw.Once()
				continue
			}
			if _, verdict := c.enlist(&entry[T]{kind: kindBuffered}); verdict != linked {
				c.release()
				continue
			}
			c.store.put(v)
			return nil
		case ModeUnbounded:
			if _, verdict := c.enlist(&entry[T]{kind: kindBuffered}); verdict != linked {
				continue
			}
			c.store.put(v)
			return nil
		case ModeConflated:
			n, verdict := c.enlist(&entry[T]{kind: kindBuffered, elem: v})
			if verdict != linked {
				continue
			}
			c.conflate(n)
			return nil
		}
	}
}

// conflate drops every buffered element queued before n.
func (c *Channel[T]) conflate(n *lflist.Node[*entry[T]]) {
	c.list.ForEach(func(m *lflist.Node[*entry[T]]) bool {
		if m == n {
			return false
		}
		if m.Value.kind == kindBuffered {
			c.list.Remove(m)
		}
		return true
	})
}

// release returns a buffer slot and lets the first parked sender take it.
func (c *Channel[T]) release() {
	c.size.Add(-1)
	c.promote()
}

// promote moves parked senders into free buffer slots in arrival order.
//
// A sender parks only after seeing the buffer full, and calls promote
// after linking; every slot release calls promote too. One of the two
// always observes the other, so no parked sender is left behind a free
// slot.
func (c *Channel[T]) promote() {
	sw := spin.Wait{}
	for {
		if c.closeCause.LoadAcquire() != nil {
			return
		}
		s := c.size.Load()
		if s >= c.capacity {
			return
		}
		var target *entry[T]
		c.list.ForEach(func(n *lflist.Node[*entry[T]]) bool {
			e := n.Value
			switch e.kind {
			case kindBuffered:
				return true
			case kindSender:
				if e.pending() {
					target = e
					return false
				}
				return true
			default:
				return false
			}
		})
		if target == nil {
			return
		}
		if !c.size.CompareAndSwap(s, s+1) {
			sw.Once()
			continue
		}
		if !target.dec.claimBuffered(target.clause) {
			c.size.Add(-1)
			continue
		}
		c.store.put(target.elem)
		target.dec.complete(nil)
	}
}

// TrySend sends v without suspending. Returns ErrWouldBlock if v can be
// neither handed to a receiver nor buffered.
func (c *Channel[T]) TrySend(v T) error {
	err := c.offer(v)
	if err == nil {
		c.metrics.sent(c.mode)
	}
	return err
}

// Send sends v, suspending while the channel is full.
func (c *Channel[T]) Send(ctx context.Context, v T) error {
	for {
		err := c.offer(v)
		if err == nil {
			c.metrics.sent(c.mode)
			return nil
		}
		if err != ErrWouldBlock {
			return err
		}
		e := &entry[T]{kind: kindSender, dec: newDecision(), elem: v}
		n, verdict := c.enlist(e)
		if verdict != linked {
			continue
		}
		if c.mode == ModeBounded {
			c.promote()
		}
		c.metrics.suspended(c.mode, "send")
		if _, err := e.dec.park(ctx); err != nil {
			c.list.Remove(n)
			return err
		}
		if e.dec.err != nil {
			return e.dec.err
		}
		c.metrics.sent(c.mode)
		return nil
	}
}
