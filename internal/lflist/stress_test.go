// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build !race

// These tests count with atomix words, which the race detector sees as
// plain memory accesses; they are excluded from race testing.

package lflist_test

import (
	"sync"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/lfchan/internal/lflist"
)

// =============================================================================
// Concurrency
// =============================================================================

// TestConcurrentAddRemove appends from several goroutines while others
// remove from the front, and checks each node is removed exactly once.
func TestConcurrentAddRemove(t *testing.T) {
	if testing.Short() {
		t.Skip("skip: stress test")
	}

	var l lflist.List[int]
	const (
		numAdders   = 4
		numRemovers = 4
		perAdder    = 2000
		totalItems  = numAdders * perAdder
	)

	seen := make([]atomix.Int32, totalItems)
	var removed atomix.Int64
	var wg sync.WaitGroup

	for a := range numAdders {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for i := range perAdder {
				l.AddLast(lflist.NewNode(id*perAdder + i))
			}
		}(a)
	}
	for range numRemovers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for removed.Load() < totalItems {
				if n := l.RemoveFirstOrNil(); n != nil {
					seen[n.Value].Add(1)
					removed.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	for i := range totalItems {
		if c := seen[i].Load(); c != 1 {
			t.Fatalf("node %d: removed %d times, want 1", i, c)
		}
	}
	if !l.IsEmpty() {
		t.Fatalf("IsEmpty: got false, want true")
	}
}

// TestConcurrentRemoveSameNode races Remove on the same nodes; exactly one
// caller must win each.
func TestConcurrentRemoveSameNode(t *testing.T) {
	var l lflist.List[int]
	const n = 200
	nodes := make([]*lflist.Node[int], n)
	for i := range nodes {
		nodes[i] = lflist.NewNode(i)
		l.AddLast(nodes[i])
	}

	wins := make([]atomix.Int32, n)
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i, nd := range nodes {
				if l.Remove(nd) {
					wins[i].Add(1)
				}
			}
		}()
	}
	wg.Wait()

	for i := range n {
		if c := wins[i].Load(); c != 1 {
			t.Fatalf("node %d: %d winners, want 1", i, c)
		}
	}
	if got := l.Len(); got != 0 {
		t.Fatalf("Len: got %d, want 0", got)
	}
}

// TestConcurrentAddLastIfGate closes the list with a sentinel while adders
// use AddLastIf; nothing may be linked after the sentinel.
func TestConcurrentAddLastIfGate(t *testing.T) {
	const gate = -1
	for range 50 {
		var l lflist.List[int]
		open := func(prev *lflist.Node[int]) bool {
			return prev == nil || prev.Value != gate
		}

		var wg sync.WaitGroup
		for a := range 4 {
			wg.Add(1)
			go func(id int) {
				defer wg.Done()
				for i := range 100 {
					if !l.AddLastIf(lflist.NewNode(id*100+i), open) {
						return
					}
				}
			}(a)
		}
		l.AddLast(lflist.NewNode(gate))
		wg.Wait()

		got := values(&l)
		if got[len(got)-1] != gate {
			t.Fatalf("last value: got %d, want gate", got[len(got)-1])
		}
	}
}
