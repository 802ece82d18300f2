// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"context"

	"code.hybscloud.com/lfchan/internal/taskq"
	"code.hybscloud.com/spin"
)

// Clause is one alternative of [Select], created by [OnReceive] or
// [OnSend].
type Clause interface {
	channel() any
	sends() bool
	try() bool
	register(d *decision, index int) (registration, bool)
}

// registration is a clause waiter linked into its channel.
type registration struct {
	unregister func()
	finish     func(err error)
}

// OnReceive returns a clause receiving from ch. fn gets the element, or
// the error of a closed or cancelled channel.
func OnReceive[T any](ch *Channel[T], fn func(v T, err error)) Clause {
	return &receiveClause[T]{ch: ch, fn: fn}
}

// OnSend returns a clause sending v to ch. fn gets nil once v is
// accepted, or the error of a closed or cancelled channel.
func OnSend[T any](ch *Channel[T], v T, fn func(err error)) Clause {
	return &sendClause[T]{ch: ch, v: v, fn: fn}
}

// Select waits until exactly one clause commits, runs its callback and
// returns its index. Clauses ready immediately are tried in order.
//
// If ctx ends before any clause commits, Select returns ctx.Err() and no
// clause takes effect. A closed or cancelled channel commits its clause
// with the corresponding error.
//
// Select panics if called without clauses, or if one select both sends
// to and receives from the same channel.
//
// Example:
//
//	i, err := lfchan.Select(ctx,
//	    lfchan.OnReceive(events, func(e Event, err error) { ... }),
//	    lfchan.OnSend(acks, ack, func(err error) { ... }),
//	)
func Select(ctx context.Context, clauses ...Clause) (int, error) {
	if len(clauses) == 0 {
		panic("lfchan: select without clauses")
	}
	checkClauses(clauses)

	sw := spin.Wait{}
	for {
		for i, cl := range clauses {
			if cl.try() {
				return i, nil
			}
		}
		if err := ctx.Err(); err != nil {
			return -1, err
		}

		d := newDecision()
		regs := make([]registration, len(clauses))
		handles := make([]*taskq.Handle[func()], len(clauses))
		cleanup := taskq.New[func()](true)
		ready := false
		for i, cl := range clauses {
			r, ok := cl.register(d, i)
			if !ok {
				ready = true
				break
			}
			regs[i] = r
			// cleanup is owned by this call and never closed, so AddLast
			// cannot fail.
			handles[i], _ = cleanup.AddLast(r.unregister)
			if d.state.Load() != statePending {
				break
			}
		}
		if ready && d.retract() {
			drainCleanup(cleanup)
			sw.Once()
			continue
		}

		i, err := d.park(ctx)
		if err != nil {
			drainCleanup(cleanup)
			return -1, err
		}
		// The winner's waiter was consumed by its counterpart, or stands
		// for a buffered element.
		cleanup.Remove(handles[i])
		drainCleanup(cleanup)
		regs[i].finish(d.err)
		return i, nil
	}
}

func drainCleanup(q *taskq.Queue[func()]) {
	for {
		fn, ok := q.RemoveFirstOrNil()
		if !ok {
			return
		}
		fn()
	}
}

func checkClauses(clauses []Clause) {
	for i, a := range clauses {
		for _, b := range clauses[i+1:] {
			if a.channel() == b.channel() && a.sends() != b.sends() {
				panic("lfchan: select sends to and receives from the same channel")
			}
		}
	}
}

type receiveClause[T any] struct {
	ch *Channel[T]
	fn func(T, error)
}

func (r *receiveClause[T]) channel() any { return r.ch }
func (r *receiveClause[T]) sends() bool  { return false }

func (r *receiveClause[T]) try() bool {
	v, err := r.ch.poll()
	if err == ErrWouldBlock {
		return false
	}
	r.done(v, err)
	return true
}

func (r *receiveClause[T]) register(d *decision, index int) (registration, bool) {
	e := &entry[T]{kind: kindReceiver, dec: d, clause: index}
	n, verdict := r.ch.enlist(e)
	if verdict != linked {
		return registration{}, false
	}
	r.ch.metrics.suspended(r.ch.mode, "select")
	return registration{
		unregister: func() { r.ch.list.Remove(n) },
		finish: func(err error) {
			var zero T
			if err != nil {
				r.done(zero, err)
				return
			}
			r.done(e.elem, nil)
		},
	}, true
}

func (r *receiveClause[T]) done(v T, err error) {
	if err == nil {
		r.ch.metrics.received(r.ch.mode)
	}
	r.ch.metrics.selected()
	if r.fn != nil {
		r.fn(v, err)
	}
}

type sendClause[T any] struct {
	ch *Channel[T]
	v  T
	fn func(error)
}

func (s *sendClause[T]) channel() any { return s.ch }
func (s *sendClause[T]) sends() bool  { return true }

func (s *sendClause[T]) try() bool {
	err := s.ch.offer(s.v)
	if err == ErrWouldBlock {
		return false
	}
	s.done(err)
	return true
}

func (s *sendClause[T]) register(d *decision, index int) (registration, bool) {
	e := &entry[T]{kind: kindSender, dec: d, clause: index, elem: s.v}
	n, verdict := s.ch.enlist(e)
	if verdict != linked {
		return registration{}, false
	}
	if s.ch.mode == ModeBounded {
		s.ch.promote()
	}
	s.ch.metrics.suspended(s.ch.mode, "select")
	return registration{
		unregister: func() { s.ch.list.Remove(n) },
		finish:     s.done,
	}, true
}

func (s *sendClause[T]) done(err error) {
	if err == nil {
		s.ch.metrics.sent(s.ch.mode)
	}
	s.ch.metrics.selected()
	if s.fn != nil {
		s.fn(err)
	}
}
