// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package segq_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/lfchan/internal/segq"
)

// =============================================================================
// Basic Operations
// =============================================================================

// TestFIFOAcrossSegments enqueues past several segment boundaries and
// checks order and the reported segment ids.
func TestFIFOAcrossSegments(t *testing.T) {
	q := segq.New[int]()
	if !q.IsEmpty() {
		t.Fatalf("IsEmpty on new queue: got false, want true")
	}

	const n = 100
	for i := range n {
		id, err := q.Enqueue(i)
		if err != nil {
			t.Fatalf("Enqueue(%d): %v", i, err)
		}
		if want := uint64(i / 32); id != want {
			t.Fatalf("Enqueue(%d): segment got %d, want %d", i, id, want)
		}
	}
	if q.IsEmpty() {
		t.Fatalf("IsEmpty after enqueue: got true, want false")
	}

	for i := range n {
		v, ok := q.Dequeue()
		if !ok {
			t.Fatalf("Dequeue(%d): empty", i)
		}
		if v != i {
			t.Fatalf("Dequeue(%d): got %d, want %d", i, v, i)
		}
	}

	if _, ok := q.Dequeue(); ok {
		t.Fatalf("Dequeue on empty: got ok, want empty")
	}
	if !q.IsEmpty() {
		t.Fatalf("IsEmpty after drain: got false, want true")
	}
}

// TestInterleaved alternates enqueue and dequeue so that the head segment
// is retired while the tail keeps growing.
func TestInterleaved(t *testing.T) {
	q := segq.New[int]()
	next := 0
	for i := range 500 {
		q.Enqueue(i)
		if i%3 == 2 {
			v, ok := q.Dequeue()
			if !ok || v != next {
				t.Fatalf("Dequeue: got (%d, %v), want (%d, true)", v, ok, next)
			}
			next++
		}
	}
	for ; next < 500; next++ {
		v, ok := q.Dequeue()
		if !ok || v != next {
			t.Fatalf("Dequeue: got (%d, %v), want (%d, true)", v, ok, next)
		}
	}
}

// =============================================================================
// Close
// =============================================================================

func TestClose(t *testing.T) {
	q := segq.New[string]()
	for _, s := range []string{"a", "b", "c"} {
		if _, err := q.Enqueue(s); err != nil {
			t.Fatalf("Enqueue(%q): %v", s, err)
		}
	}

	id := q.Close()
	if id != 0 {
		t.Fatalf("Close: got segment %d, want 0", id)
	}
	if !q.IsClosed() {
		t.Fatalf("IsClosed: got false, want true")
	}
	if again := q.Close(); again != id {
		t.Fatalf("second Close: got %d, want %d", again, id)
	}
	if _, err := q.Enqueue("d"); !errors.Is(err, segq.ErrClosed) {
		t.Fatalf("Enqueue after Close: got %v, want ErrClosed", err)
	}

	// Elements enqueued before Close stay dequeuable.
	for _, want := range []string{"a", "b", "c"} {
		v, ok := q.Dequeue()
		if !ok || v != want {
			t.Fatalf("Dequeue: got (%q, %v), want (%q, true)", v, ok, want)
		}
	}
	if _, ok := q.Dequeue(); ok {
		t.Fatalf("Dequeue after drain: got ok, want empty")
	}
}

func TestCloseReportsTailSegment(t *testing.T) {
	q := segq.New[int]()
	for i := range 70 {
		q.Enqueue(i)
	}
	if id := q.Close(); id != 2 {
		t.Fatalf("Close: got segment %d, want 2", id)
	}
}
