// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lfchan provides lock-free channels with close, cancel and
// multi-way select.
//
// Four buffering policies are available:
//
//   - Rendezvous: no buffer, every send pairs with a receive
//   - Bounded: up to n buffered elements, then senders suspend
//   - Unbounded: sends never suspend
//   - Conflated: only the most recent unreceived element is kept
//
// # Quick Start
//
// Direct constructors:
//
//	ch := lfchan.NewRendezvous[Event]()
//	ch := lfchan.NewBounded[*Request](64)
//	ch := lfchan.NewUnbounded[Job]()
//	ch := lfchan.NewConflated[State]()
//
// By capacity, with the special values [Rendezvous], [Unlimited] and
// [Conflated]:
//
//	ch := lfchan.Make[Event](lfchan.Unlimited)
//
// Builder API for logging and metrics:
//
//	m := lfchan.NewMetrics(prometheus.DefaultRegisterer)
//	ch := lfchan.Build[Event](lfchan.New(256).Logger(logrus.StandardLogger()).Metrics(m))
//
// # Basic Usage
//
// Suspending operations take a context:
//
//	if err := ch.Send(ctx, ev); err != nil {
//	    return err // closed, cancelled or ctx ended
//	}
//
//	ev, err := ch.Receive(ctx)
//	if lfchan.IsClosed(err) {
//	    return nil // drained
//	}
//
// Non-suspending variants return [ErrWouldBlock]:
//
//	err := ch.TrySend(ev)
//	if lfchan.IsWouldBlock(err) {
//	    // Full - handle backpressure
//	}
//
// Ranging over a channel stops when it is closed and drained:
//
//	for ev := range ch.All(ctx) {
//	    handle(ev)
//	}
//
// # Close and Cancel
//
// Close stops further sends. Parked senders fail immediately; elements
// already buffered are still delivered, after which receivers get a
// [*ClosedError] carrying the close cause:
//
//	ch.Close(io.EOF)
//	_, err := ch.Receive(ctx)
//	errors.Is(err, lfchan.ErrClosed) // true once drained
//	errors.Is(err, io.EOF)           // true
//
// Cancel additionally discards the buffer and fails every pending and
// future operation with a [*CancelledError]. The first cause is kept;
// later Close or Cancel calls return false.
//
// # Select
//
// [Select] commits exactly one clause across any number of channels:
//
//	i, err := lfchan.Select(ctx,
//	    lfchan.OnReceive(in, func(v int, err error) { got = v }),
//	    lfchan.OnSend(out, 7, func(err error) {}),
//	)
//
// Ready clauses are tried in order first. Otherwise Select parks one
// waiter per clause, all sharing a single decision cell; whichever
// counterpart claims the cell first commits its clause, and the other
// waiters are removed. If ctx ends first, no clause commits.
//
// # Ordering
//
// Elements are received in the order their sends were accepted. In a
// bounded channel, a suspended sender takes the first free slot before
// any later sender, so buffered elements and suspended senders keep
// arrival order.
//
// # Algorithm
//
// Each channel is a dual queue over one lock-free linked list: the list
// holds either sender-side nodes (buffered elements and suspended
// senders) or suspended receivers, never both. Conditional append
// re-checks the last node atomically with the link, so a node is never
// linked behind a counterpart it should have paired with, nor behind the
// close token.
//
// Buffered elements live in a sequence-numbered ring (bounded) or a
// segmented queue (unbounded); the list node only reserves the position.
//
// # Race Detection
//
// The element stores publish non-atomic slots through acquire-release
// sequence numbers. The race detector cannot observe this ordering and
// may report false positives; stress tests that hit it are skipped when
// [RaceEnabled] is set.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, [code.hybscloud.com/spin] for CPU pause instructions,
// [code.hybscloud.com/lfq] for the bounded element ring,
// [github.com/sirupsen/logrus] for lifecycle logging and
// [github.com/prometheus/client_golang/prometheus] for metrics.
package lfchan
