// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package lfchan_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"code.hybscloud.com/lfchan"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// =============================================================================
// Fast Path
// =============================================================================

func TestSelectReadyReceive(t *testing.T) {
	a := lfchan.NewBounded[int](1)
	b := lfchan.NewBounded[int](1)
	b.TrySend(42)

	var got int
	i, err := lfchan.Select(context.Background(),
		lfchan.OnReceive(a, func(v int, err error) { t.Fatalf("clause 0 ran") }),
		lfchan.OnReceive(b, func(v int, err error) { got = v }),
	)
	if err != nil || i != 1 || got != 42 {
		t.Fatalf("Select: got (%d, %v, %d), want (1, nil, 42)", i, err, got)
	}
	if !b.IsEmpty() {
		t.Fatalf("b.IsEmpty: got false, want true")
	}
}

// TestSelectPrefersFirstReady commits the first ready clause in order.
func TestSelectPrefersFirstReady(t *testing.T) {
	a := lfchan.NewUnbounded[string]()
	b := lfchan.NewUnbounded[string]()
	a.TrySend("a")
	b.TrySend("b")

	i, _ := lfchan.Select(context.Background(),
		lfchan.OnReceive(a, nil),
		lfchan.OnReceive(b, nil),
	)
	if i != 0 {
		t.Fatalf("Select: got clause %d, want 0", i)
	}
	if b.IsEmpty() {
		t.Fatalf("uncommitted clause consumed an element")
	}
}

func TestSelectReadySend(t *testing.T) {
	full := lfchan.NewBounded[int](1)
	full.TrySend(0)
	room := lfchan.NewBounded[int](1)

	var sendErr = errors.New("not called")
	i, err := lfchan.Select(context.Background(),
		lfchan.OnSend(full, 1, nil),
		lfchan.OnSend(room, 2, func(err error) { sendErr = err }),
	)
	if err != nil || i != 1 || sendErr != nil {
		t.Fatalf("Select: got (%d, %v, %v), want (1, nil, nil)", i, err, sendErr)
	}
	if v, _ := room.TryReceive(); v != 2 {
		t.Fatalf("room.TryReceive: got %d, want 2", v)
	}
	if v, _ := full.TryReceive(); v != 0 {
		t.Fatalf("full.TryReceive: got %d, want 0", v)
	}
	if _, err := full.TryReceive(); !errors.Is(err, lfchan.ErrWouldBlock) {
		t.Fatalf("uncommitted send was delivered: %v", err)
	}
}

func TestSelectClosedChannel(t *testing.T) {
	a := lfchan.NewRendezvous[int]()
	b := lfchan.NewRendezvous[int]()
	b.Close(io.EOF)

	var got error
	i, err := lfchan.Select(context.Background(),
		lfchan.OnReceive(a, nil),
		lfchan.OnReceive(b, func(v int, err error) { got = err }),
	)
	if err != nil || i != 1 {
		t.Fatalf("Select: got (%d, %v), want (1, nil)", i, err)
	}
	if !lfchan.IsClosed(got) || !errors.Is(got, io.EOF) {
		t.Fatalf("clause error: got %v, want closed with EOF", got)
	}
}

// =============================================================================
// Suspension
// =============================================================================

func TestSelectContextDeadline(t *testing.T) {
	a := lfchan.NewRendezvous[int]()
	b := lfchan.NewBounded[int](1)
	b.TrySend(0)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	i, err := lfchan.Select(ctx,
		lfchan.OnReceive(a, func(int, error) { t.Fatalf("receive clause ran") }),
		lfchan.OnSend(b, 1, func(error) { t.Fatalf("send clause ran") }),
	)
	if i != -1 || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Select: got (%d, %v), want (-1, DeadlineExceeded)", i, err)
	}

	// Every registration was withdrawn.
	if err := a.TrySend(1); !errors.Is(err, lfchan.ErrWouldBlock) {
		t.Fatalf("a.TrySend: got %v, want ErrWouldBlock", err)
	}
	b.TryReceive()
	if _, err := b.TryReceive(); !errors.Is(err, lfchan.ErrWouldBlock) {
		t.Fatalf("b.TryReceive: got %v, want ErrWouldBlock", err)
	}
}

func TestSelectCancelledBeforeStart(t *testing.T) {
	a := lfchan.NewUnbounded[int]()
	a.TrySend(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// A ready clause still commits on the fast path.
	if i, err := lfchan.Select(ctx, lfchan.OnReceive(a, nil)); i != 0 || err != nil {
		t.Fatalf("Select ready: got (%d, %v), want (0, nil)", i, err)
	}
	if i, err := lfchan.Select(ctx, lfchan.OnReceive(a, nil)); i != -1 || !errors.Is(err, context.Canceled) {
		t.Fatalf("Select empty: got (%d, %v), want (-1, Canceled)", i, err)
	}
}

// =============================================================================
// Misuse
// =============================================================================

func TestSelectPanics(t *testing.T) {
	ch := lfchan.NewBounded[int](1)
	tests := []struct {
		name    string
		clauses []lfchan.Clause
	}{
		{"no clauses", nil},
		{"send and receive on one channel", []lfchan.Clause{
			lfchan.OnReceive(ch, nil),
			lfchan.OnSend(ch, 1, nil),
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Fatalf("expected panic")
				}
			}()
			lfchan.Select(context.Background(), tt.clauses...)
		})
	}
}

// Two receive clauses on one channel are allowed.
func TestSelectTwoReceivesOneChannel(t *testing.T) {
	ch := lfchan.NewBounded[int](1)
	ch.TrySend(3)
	i, err := lfchan.Select(context.Background(),
		lfchan.OnReceive(ch, nil),
		lfchan.OnReceive(ch, nil),
	)
	if i != 0 || err != nil {
		t.Fatalf("Select: got (%d, %v), want (0, nil)", i, err)
	}
}

func TestSelectMetrics(t *testing.T) {
	m := lfchan.NewMetrics(nil)
	ch := lfchan.Build[int](lfchan.New(lfchan.Unlimited).Metrics(m))
	ch.TrySend(1)
	lfchan.Select(context.Background(), lfchan.OnReceive(ch, nil))

	if got := testutil.ToFloat64(lfchan.SelectsCounter(m)); got != 1 {
		t.Fatalf("select commits: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(lfchan.SendsCounter(m, lfchan.ModeUnbounded)); got != 1 {
		t.Fatalf("sends: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(lfchan.ReceivesCounter(m, lfchan.ModeUnbounded)); got != 1 {
		t.Fatalf("receives: got %v, want 1", got)
	}
}
