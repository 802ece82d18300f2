// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan

import (
	"context"

	"code.hybscloud.com/atomix"
)

// Decision states. A positive state k+1 means clause k won; with
// bufferedBit set, the winning clause was a send whose element was moved
// into the buffer instead of being handed to a receiver.
const (
	statePending   int32 = 0
	stateCancelled int32 = -1
	stateRetracted int32 = -2

	bufferedBit int32 = 1 << 30
)

// decision is the one-shot completion cell of a parked operation.
//
// A plain Send or Receive owns a decision with a single clause 0. A select
// shares one decision between the waiters of all its clauses, so the first
// successful claim commits exactly one clause. Claiming is the only
// irreversible step: counterparts, closers, promotion and the owner's own
// cancellation all race on the same CAS.
type decision struct {
	state atomix.Int32
	err   error
	done  chan struct{}
}

func newDecision() *decision {
	return &decision{done: make(chan struct{})}
}

// claim commits clause. The winner must call complete.
func (d *decision) claim(clause int) bool {
	return d.state.CompareAndSwapAcqRel(statePending, int32(clause)+1)
}

// claimBuffered commits the send clause by moving its element into the
// channel buffer.
func (d *decision) claimBuffered(clause int) bool {
	return d.state.CompareAndSwapAcqRel(statePending, (int32(clause)+1)|bufferedBit)
}

// retract withdraws a select whose registration found a channel ready.
func (d *decision) retract() bool {
	return d.state.CompareAndSwapAcqRel(statePending, stateRetracted)
}

// complete publishes the outcome and wakes the owner.
func (d *decision) complete(err error) {
	d.err = err
	close(d.done)
}

// winner returns the committed clause. Valid once done is closed.
func (d *decision) winner() int {
	return int(d.state.Load()&^bufferedBit) - 1
}

// park waits for a claimant. If ctx ends first, the owner claims the
// decision as cancelled and returns ctx.Err(); losing that race means a
// claimant already committed, so park waits for its completion.
func (d *decision) park(ctx context.Context) (int, error) {
	select {
	case <-d.done:
		return d.winner(), nil
	case <-ctx.Done():
		if d.state.CompareAndSwapAcqRel(statePending, stateCancelled) {
			return -1, ctx.Err()
		}
		<-d.done
		return d.winner(), nil
	}
}

type entryKind uint8

const (
	kindBuffered entryKind = iota // element held in the buffer
	kindSender                    // parked sender
	kindReceiver                  // parked receiver
	kindClosed                    // close token, always last
)

// entry is the value of a channel list node.
//
// The list of a channel is a dual queue: it holds either sender-side
// entries (buffered elements and parked senders) or parked receivers,
// never both, followed by the close token once the channel is closed.
type entry[T any] struct {
	kind   entryKind
	clause int
	dec    *decision
	elem   T
}

func (e *entry[T]) pending() bool {
	return e.dec.state.Load() == statePending
}

// promoted reports whether the parked sender e has moved its element into
// the buffer. The node then stands for a buffered element.
func (e *entry[T]) promoted() bool {
	return e.dec.state.Load() == (int32(e.clause)+1)|bufferedBit
}

// offers reports whether a receiver removing e may get an element.
func (e *entry[T]) offers() bool {
	switch e.kind {
	case kindBuffered:
		return true
	case kindSender:
		return e.pending() || e.promoted()
	default:
		return false
	}
}

// dead reports whether e is a waiter that can no longer be matched: its
// decision went to another clause, was cancelled or was retracted.
func (e *entry[T]) dead() bool {
	switch e.kind {
	case kindSender:
		return !e.pending() && !e.promoted()
	case kindReceiver:
		return !e.pending()
	default:
		return false
	}
}
