// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package segq provides an unbounded lock-free FIFO built from fixed-size
// segments linked by atomic forward pointers.
//
// Enqueuers and dequeuers claim cell indices with Fetch-And-Add. The cell
// itself is settled by a single CAS: an enqueuer publishes full, a dequeuer
// that arrives first publishes broken, and both parties move on to the next
// index. No element is yielded twice and none is lost.
package segq

import (
	"errors"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// ErrClosed is returned by Enqueue after Close.
var ErrClosed = errors.New("segq: queue closed")

const (
	segmentShift = 5
	segmentSize  = 1 << segmentShift
	segmentMask  = segmentSize - 1

	closedBit = uint64(1) << 63
)

const (
	cellEmpty int32 = iota
	cellFull
	cellBroken
	cellTaken
)

type cell[T any] struct {
	state atomix.Int32
	value T
}

type segment[T any] struct {
	id    uint64
	next  atomix.Pointer[segment[T]]
	done  atomix.Uint64 // bit i set once cell i is taken or broken
	cells [segmentSize]cell[T]
}

func newSegment[T any](id uint64) *segment[T] {
	return &segment[T]{id: id}
}

// consumed marks cell i as settled for dequeuers.
func (s *segment[T]) consumed(i uint64) {
	bit := uint64(1) << i
	for {
		old := s.done.LoadAcquire()
		if s.done.CompareAndSwapAcqRel(old, old|bit) {
			return
		}
	}
}

// drained reports whether every cell of s has been taken or broken.
func (s *segment[T]) drained() bool {
	return s.done.LoadAcquire() == ^uint64(0)>>(64-segmentSize)
}

// Queue is an unbounded multi-producer multi-consumer FIFO.
//
// Memory: one segment of 32 cells per 32 enqueued elements. A segment
// becomes garbage once the head has moved past it.
type Queue[T any] struct {
	_        pad
	head     atomix.Pointer[segment[T]]
	_        pad
	tail     atomix.Pointer[segment[T]]
	_        pad
	enqIdx   atomix.Uint64 // top bit: closed
	_        pad
	deqIdx   atomix.Uint64
	_        pad
	closedAt atomix.Uint64 // segment id + 1 once closed
}

type pad [64]byte

// New creates an empty queue.
func New[T any]() *Queue[T] {
	q := &Queue[T]{}
	s := newSegment[T](0)
	q.head.StoreRelease(s)
	q.tail.StoreRelease(s)
	return q
}

// Enqueue appends v and returns the id of the segment holding it.
// Returns ErrClosed if the queue has been closed.
func (q *Queue[T]) Enqueue(v T) (uint64, error) {
	for {
		if q.enqIdx.LoadAcquire()&closedBit != 0 {
			return 0, ErrClosed
		}
		tail := q.tail.LoadAcquire()
		idx := q.enqIdx.AddAcqRel(1) - 1
		if idx&closedBit != 0 {
			return 0, ErrClosed
		}
		s := findSegment(tail, idx>>segmentShift)
		moveForward(&q.tail, s)
		c := &s.cells[idx&segmentMask]
		c.value = v
		if c.state.CompareAndSwapAcqRel(cellEmpty, cellFull) {
			return s.id, nil
		}
		// A dequeuer broke this cell; retry with a fresh index.
		var zero T
		c.value = zero
	}
}

// Dequeue removes and returns the head element.
// Returns (zero-value, false) if the queue is empty.
func (q *Queue[T]) Dequeue() (T, bool) {
	for {
		if q.deqIdx.LoadAcquire() >= q.enqIdx.LoadAcquire()&^closedBit {
			var zero T
			return zero, false
		}
		head := q.head.LoadAcquire()
		idx := q.deqIdx.AddAcqRel(1) - 1
		s := findSegment(head, idx>>segmentShift)
		i := idx & segmentMask
		c := &s.cells[i]
		if c.state.CompareAndSwapAcqRel(cellEmpty, cellBroken) {
			s.consumed(i)
			q.advanceHead(s)
			continue
		}
		v := c.value
		var zero T
		c.value = zero
		c.state.StoreRelease(cellTaken)
		s.consumed(i)
		q.advanceHead(s)
		return v, true
	}
}

// advanceHead moves head to s, and past s once every cell of s is settled.
func (q *Queue[T]) advanceHead(s *segment[T]) {
	moveForward(&q.head, s)
	if s.drained() {
		if next := s.next.LoadAcquire(); next != nil {
			moveForward(&q.head, next)
		}
	}
}

// Close forbids further enqueues. Elements already enqueued stay
// dequeuable. Returns the id of the segment at which the queue closed.
// Close is idempotent.
func (q *Queue[T]) Close() uint64 {
	sw := spin.Wait{}
	for {
		idx := q.enqIdx.LoadAcquire()
		if idx&closedBit != 0 {
			break
		}
		if q.enqIdx.CompareAndSwapAcqRel(idx, idx|closedBit) {
			id := idx >> segmentShift
			q.closedAt.StoreRelease(id + 1)
			return id
		}
		sw.Once()
	}
	// Lost the race: wait for the winner to publish its segment id.
	for {
		if at := q.closedAt.LoadAcquire(); at != 0 {
			return at - 1
		}
		sw.Once()
	}
}

// IsClosed reports whether Close has been called.
func (q *Queue[T]) IsClosed() bool {
	return q.enqIdx.LoadAcquire()&closedBit != 0
}

// IsEmpty reports whether no element is available at the moment of the call.
func (q *Queue[T]) IsEmpty() bool {
	return q.deqIdx.LoadAcquire() >= q.enqIdx.LoadAcquire()&^closedBit
}

// findSegment walks forward from start to the segment with the given id,
// appending segments as needed. start.id must not exceed id.
func findSegment[T any](start *segment[T], id uint64) *segment[T] {
	cur := start
	for cur.id < id {
		next := cur.next.LoadAcquire()
		if next == nil {
			n := newSegment[T](cur.id + 1)
			if cur.next.CompareAndSwapAcqRel(nil, n) {
				next = n
			} else {
				next = cur.next.LoadAcquire()
			}
		}
		cur = next
	}
	return cur
}

// moveForward advances ref to s unless ref already points at or past s.
func moveForward[T any](ref *atomix.Pointer[segment[T]], s *segment[T]) {
	for {
		cur := ref.LoadAcquire()
		if cur.id >= s.id {
			return
		}
		if ref.CompareAndSwapAcqRel(cur, s) {
			return
		}
	}
}
