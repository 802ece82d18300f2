// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"code.hybscloud.com/lfchan/internal/segq"
	"code.hybscloud.com/lfq"
	"code.hybscloud.com/spin"
)

// storage holds the elements of buffered placeholders.
//
// The channel list decides who owns an element: a sender links a
// placeholder and then puts, a receiver removes a placeholder and then
// takes. Capacity is reserved through the channel size counter before a
// placeholder is linked, so put never has to reject. take may run ahead
// of the matching put and waits for it.
type storage[T any] interface {
	put(v T)
	take() T
}

// ring is the bounded element store, backed by an lfq sequence-number
// ring sized to the channel capacity rounded up to a power of 2.
//
// The channel reserves capacity before put, so a full ring only means a
// consumer has not finished releasing its slot yet.
type ring[T any] struct {
	q *lfq.MPMCSeq[T]
}

func newRing[T any](capacity int) ring[T] {
	return ring[T]{q: lfq.NewMPMCSeq[T](roundToPow2(capacity))}
}

func (r ring[T]) put(v T) {
	sw := spin.Wait{}
	for r.q.Enqueue(&v) != nil {
		sw.Once()
	}
}

func (r ring[T]) take() T {
	sw := spin.Wait{}
	for {
		v, err := r.q.Dequeue()
		if err == nil {
			return v
		}
		sw.Once()
	}
}

// segmentStore is the unbounded element store.
type segmentStore[T any] struct {
	q *segq.Queue[T]
}

func newSegmentStore[T any]() segmentStore[T] {
	return segmentStore[T]{q: segq.New[T]()}
}

func (s segmentStore[T]) put(v T) {
	// The store is never closed; Enqueue cannot fail.
	s.q.Enqueue(v)
}

func (s segmentStore[T]) take() T {
	sw := spin.Wait{}
	for {
		if v, ok := s.q.Dequeue(); ok {
			return v
		}
		sw.Once()
	}
}
