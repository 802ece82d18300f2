// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskq provides an unbounded lock-free FIFO of pending tasks.
//
// The queue is a chain of bounded rings using per-slot sequence numbers.
// When a ring fills up it is frozen and a ring of twice the capacity is
// linked after it; consumers drain a frozen ring before moving on.
//
// Items are referenced by a [Handle]. A handle can be removed in place
// before a consumer reaches it; consumers skip removed handles, so the
// relative order of the surviving items is preserved.
package taskq

import (
	"errors"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// ErrClosed is returned by AddLast after Close.
var ErrClosed = errors.New("taskq: queue closed")

var errFrozen = errors.New("taskq: ring frozen")

const (
	initialCapacity = 8
	maxCapacity     = 1 << 20

	frozenBit = uint64(1) << 62
	closedBit = uint64(1) << 63
	indexMask = frozenBit - 1
)

const (
	handleLive int32 = iota
	handleTaken
	handleRemoved
)

// Handle refers to an item added to a Queue.
type Handle[T any] struct {
	state atomix.Int32
	value T
}

// Value returns the item the handle refers to.
func (h *Handle[T]) Value() T {
	return h.value
}

// Queue is an unbounded multi-producer FIFO. Consumers are either a single
// goroutine or many, fixed at construction.
type Queue[T any] struct {
	_              pad
	head           atomix.Pointer[ring[T]] // consumer ring
	_              pad
	tail           atomix.Pointer[ring[T]] // producer ring
	_              pad
	singleConsumer bool
}

type pad [64]byte

type padShort [64 - 8]byte

// ring is a bounded sequence-numbered ring. The producer word carries the
// frozen and closed flags next to the tail index so that a successful
// enqueue and a close or freeze are ordered by the same CAS target.
type ring[T any] struct {
	_        pad
	tail     atomix.Uint64
	_        pad
	head     atomix.Uint64
	_        pad
	next     atomix.Pointer[ring[T]]
	buffer   []slot[T]
	mask     uint64
	capacity uint64
}

type slot[T any] struct {
	seq  atomix.Uint64
	item atomix.Pointer[Handle[T]]
	_    padShort
}

func newRing[T any](capacity uint64) *ring[T] {
	r := &ring[T]{
		buffer:   make([]slot[T], capacity),
		mask:     capacity - 1,
		capacity: capacity,
	}
	for i := uint64(0); i < capacity; i++ {
		r.buffer[i].seq.StoreRelaxed(i)
	}
	return r
}

// New creates an empty queue. With singleConsumer set, only one goroutine
// may call RemoveFirstOrNil; it then advances the head without CAS.
func New[T any](singleConsumer bool) *Queue[T] {
	q := &Queue[T]{singleConsumer: singleConsumer}
	r := newRing[T](initialCapacity)
	q.head.StoreRelease(r)
	q.tail.StoreRelease(r)
	return q
}

func (r *ring[T]) enqueue(h *Handle[T]) error {
	sw := spin.Wait{}
	for {
		t := r.tail.LoadAcquire()
		if t&closedBit != 0 {
			return ErrClosed
		}
		if t&frozenBit != 0 {
			return errFrozen
		}
		idx := t & indexMask
		s := &r.buffer[idx&r.mask]
		diff := int64(s.seq.LoadAcquire()) - int64(idx)
		if diff == 0 {
			if r.tail.CompareAndSwapAcqRel(t, t+1) {
				s.item.StoreRelease(h)
				s.seq.StoreRelease(idx + 1)
				return nil
			}
		} else if diff < 0 {
			r.tail.CompareAndSwapAcqRel(t, t|frozenBit)
			continue
		}
		sw.Once()
	}
}

// successor returns the ring linked after the frozen ring r, creating it
// if necessary.
func (r *ring[T]) successor() *ring[T] {
	if next := r.next.LoadAcquire(); next != nil {
		return next
	}
	c := r.capacity * 2
	if c > maxCapacity {
		c = maxCapacity
	}
	n := newRing[T](c)
	if r.next.CompareAndSwapAcqRel(nil, n) {
		return n
	}
	return r.next.LoadAcquire()
}

// AddLast appends v and returns its handle.
// Returns ErrClosed if the queue has been closed.
func (q *Queue[T]) AddLast(v T) (*Handle[T], error) {
	h := &Handle[T]{value: v}
	for {
		r := q.tail.LoadAcquire()
		err := r.enqueue(h)
		if err == nil {
			return h, nil
		}
		if err == ErrClosed {
			return nil, err
		}
		q.tail.CompareAndSwapAcqRel(r, r.successor())
	}
}

// dequeue takes the next published handle of r. It reports drained when r
// is frozen and every slot has been consumed.
func (r *ring[T]) dequeue(singleConsumer bool) (h *Handle[T], drained bool) {
	sw := spin.Wait{}
	for {
		head := r.head.LoadAcquire()
		s := &r.buffer[head&r.mask]
		diff := int64(s.seq.LoadAcquire()) - int64(head+1)
		if diff == 0 {
			if singleConsumer {
				r.head.StoreRelease(head + 1)
			} else if !r.head.CompareAndSwapAcqRel(head, head+1) {
				sw.Once()
				continue
			}
			h = s.item.LoadAcquire()
			s.item.StoreRelease(nil)
			s.seq.StoreRelease(head + r.capacity)
			return h, false
		}
		if diff < 0 {
			t := r.tail.LoadAcquire()
			return nil, t&frozenBit != 0 && t&indexMask == head
		}
		sw.Once()
	}
}

// RemoveFirstOrNil removes and returns the first item that has not been
// removed in place. Returns (zero-value, false) if none is available.
func (q *Queue[T]) RemoveFirstOrNil() (T, bool) {
	for {
		r := q.head.LoadAcquire()
		h, drained := r.dequeue(q.singleConsumer)
		if h != nil {
			if h.state.CompareAndSwapAcqRel(handleLive, handleTaken) {
				return h.value, true
			}
			continue
		}
		if drained {
			if next := r.next.LoadAcquire(); next != nil {
				q.head.CompareAndSwapAcqRel(r, next)
				continue
			}
		}
		var zero T
		return zero, false
	}
}

// Remove deletes the item referred to by h if no consumer has taken it yet.
// Returns true if this call removed it.
func (q *Queue[T]) Remove(h *Handle[T]) bool {
	return h.state.CompareAndSwapAcqRel(handleLive, handleRemoved)
}

// Close forbids further AddLast calls. Items already added stay
// removable. Close is idempotent.
func (q *Queue[T]) Close() {
	sw := spin.Wait{}
	for {
		r := q.tail.LoadAcquire()
		t := r.tail.LoadAcquire()
		switch {
		case t&closedBit != 0:
			return
		case t&frozenBit != 0:
			q.tail.CompareAndSwapAcqRel(r, r.successor())
		case r.tail.CompareAndSwapAcqRel(t, t|closedBit):
			return
		default:
			sw.Once()
		}
	}
}

// IsClosed reports whether Close has been called.
func (q *Queue[T]) IsClosed() bool {
	r := q.tail.LoadAcquire()
	for {
		t := r.tail.LoadAcquire()
		if t&closedBit != 0 {
			return true
		}
		if t&frozenBit == 0 {
			return false
		}
		next := r.next.LoadAcquire()
		if next == nil {
			return false
		}
		r = next
	}
}

// IsEmpty reports whether no published item is pending. Items removed in
// place but not yet skipped by a consumer still count as pending.
func (q *Queue[T]) IsEmpty() bool {
	for r := q.head.LoadAcquire(); r != nil; r = r.next.LoadAcquire() {
		if r.head.LoadAcquire() != r.tail.LoadAcquire()&indexMask {
			return false
		}
	}
	return true
}

// ForEach calls fn for every published item not yet taken or removed, in
// FIFO order, until fn returns false. Items are not consumed. Under
// concurrent consumers the walk is weakly consistent: an item taken
// during the walk may or may not be visited.
func (q *Queue[T]) ForEach(fn func(T) bool) {
	for r := q.head.LoadAcquire(); r != nil; r = r.next.LoadAcquire() {
		end := r.tail.LoadAcquire() & indexMask
		for idx := r.head.LoadAcquire(); idx < end; idx++ {
			s := &r.buffer[idx&r.mask]
			if s.seq.LoadAcquire() != idx+1 {
				continue
			}
			h := s.item.LoadAcquire()
			// The slot may have been recycled between the two loads.
			if h == nil || s.seq.LoadAcquire() != idx+1 {
				continue
			}
			if h.state.LoadAcquire() != handleLive {
				continue
			}
			if !fn(h.value) {
				return
			}
		}
	}
}
