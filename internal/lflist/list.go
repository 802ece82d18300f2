// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package lflist provides a lock-free linked list with logical deletion.
//
// Each node owns an immutable successor record {next, removed} that is
// replaced with a single CAS. Marking the record removed is the
// linearization point of a removal; unlinking the node from its
// predecessor is cooperative and may be completed by any traverser.
//
// A removed node stays valid for goroutines holding a reference to it,
// but is never linked to again and is skipped by every traversal that
// starts from the head.
//
// Only the forward links are authoritative. Each node also records the
// node it was linked after, but that back link is written once at insert
// time and never repaired when the predecessor is itself removed; keeping
// it exact would need a second CAS per removal that races with the
// forward one. Remove therefore uses it as a starting hint: if the
// recorded predecessor is gone or no longer points at the node, the
// unlink falls back to a walk from the head.
package lflist

import "code.hybscloud.com/atomix"

// Node is a list entry carrying a Value.
type Node[T any] struct {
	succ  atomix.Pointer[succ[T]]
	prev  atomix.Pointer[Node[T]] // hint for unlinking, may be stale
	Value T
}

type succ[T any] struct {
	next    *Node[T]
	removed bool
}

// NewNode returns a detached node holding v.
func NewNode[T any](v T) *Node[T] {
	return &Node[T]{Value: v}
}

func (n *Node[T]) load() (*succ[T], *Node[T], bool) {
	r := n.succ.LoadAcquire()
	if r == nil {
		return nil, nil, false
	}
	return r, r.next, r.removed
}

// IsRemoved reports whether n has been logically deleted.
func (n *Node[T]) IsRemoved() bool {
	_, _, removed := n.load()
	return removed
}

// List is a lock-free singly linked FIFO list with a sentinel head.
// The zero value is an empty list ready to use.
type List[T any] struct {
	head Node[T]
	tail atomix.Pointer[Node[T]] // hint, never removed-and-trusted
}

// unlink replaces prev's link to next (a removed node) with next's successor.
func unlink[T any](prev, next *Node[T]) bool {
	r := prev.succ.LoadAcquire()
	if r == nil || r.removed || r.next != next {
		return false
	}
	_, after, _ := next.load()
	return prev.succ.CompareAndSwapAcqRel(r, &succ[T]{next: after})
}

// last returns the last live node and its current successor record.
func (l *List[T]) last() (*Node[T], *succ[T]) {
	for {
		prev := l.tail.LoadAcquire()
		if prev == nil || prev.IsRemoved() {
			prev = &l.head
		}
		if n, r, ok := walkToEnd(prev); ok {
			return n, r
		}
	}
}

// walkToEnd follows live links from prev to the end of the list, unlinking
// removed nodes on the way. It fails if prev itself is deleted meanwhile.
func walkToEnd[T any](prev *Node[T]) (*Node[T], *succ[T], bool) {
	for {
		r, next, removed := prev.load()
		if removed {
			return nil, nil, false
		}
		if next == nil {
			return prev, r, true
		}
		if next.IsRemoved() {
			unlink(prev, next)
			continue
		}
		prev = next
	}
}

// AddLast appends n to the end of the list.
func (l *List[T]) AddLast(n *Node[T]) {
	l.AddLastIf(n, nil)
}

// AddLastIf appends n only if pred holds for the current last node.
// pred receives nil when the list is empty. The predicate is checked
// against the exact node n is linked after: if that node is removed or
// gains a successor before the link, the insert retries with a fresh
// last node. Returns false if pred rejected the insert.
func (l *List[T]) AddLastIf(n *Node[T], pred func(prev *Node[T]) bool) bool {
	for {
		prev, r := l.last()
		if pred != nil {
			var p *Node[T]
			if prev != &l.head {
				p = prev
			}
			if !pred(p) {
				return false
			}
		}
		n.prev.StoreRelease(prev)
		if prev.succ.CompareAndSwapAcqRel(r, &succ[T]{next: n}) {
			l.tail.StoreRelease(n)
			return true
		}
	}
}

// First returns the first live node, or nil if the list is empty.
func (l *List[T]) First() *Node[T] {
	for {
		_, next, _ := l.head.load()
		if next == nil {
			return nil
		}
		if !next.IsRemoved() {
			return next
		}
		unlink(&l.head, next)
	}
}

// IsEmpty reports whether the list has no live node.
func (l *List[T]) IsEmpty() bool {
	return l.First() == nil
}

// RemoveFirstOrNil removes and returns the first node, or nil if empty.
func (l *List[T]) RemoveFirstOrNil() *Node[T] {
	n, _ := l.RemoveFirstIfOrPeek(func(*Node[T]) bool { return true }, nil)
	return n
}

// RemoveFirstIfOrPeek inspects the first live node. If take holds, the node
// is removed and returned with removed=true. Otherwise, if peek holds, the
// node is returned without removing it. Otherwise (or if the list is empty)
// it returns nil.
func (l *List[T]) RemoveFirstIfOrPeek(take, peek func(*Node[T]) bool) (n *Node[T], removed bool) {
	for {
		first := l.First()
		if first == nil {
			return nil, false
		}
		if take(first) {
			if l.Remove(first) {
				return first, true
			}
			continue
		}
		if peek != nil && peek(first) {
			return first, false
		}
		return nil, false
	}
}

// Remove logically deletes n and unlinks it. It returns true only for the
// caller whose mark took effect; a node removed before returns false.
func (l *List[T]) Remove(n *Node[T]) bool {
	for {
		r, next, removed := n.load()
		if removed {
			return false
		}
		if n.succ.CompareAndSwapAcqRel(r, &succ[T]{next: next, removed: true}) {
			l.helpRemove(n)
			return true
		}
	}
}

// helpRemove unlinks the removed node n, first through its prev hint and
// otherwise by a sweep from the head.
func (l *List[T]) helpRemove(n *Node[T]) {
	if p := n.prev.LoadAcquire(); p != nil && !p.IsRemoved() && unlink(p, n) {
		return
	}
	prev := &l.head
	for {
		_, next, removed := prev.load()
		if removed {
			prev = &l.head
			continue
		}
		if next == nil {
			return
		}
		if next.IsRemoved() {
			unlink(prev, next)
			if next == n {
				return
			}
			continue
		}
		prev = next
	}
}

// ForEach calls fn on every live node in order until fn returns false.
func (l *List[T]) ForEach(fn func(*Node[T]) bool) {
	for n := l.First(); n != nil; n = nextLive(n) {
		if !fn(n) {
			return
		}
	}
}

// nextLive returns the first live node after n. Removed successors are
// unlinked while n is live and stepped over once n itself is deleted.
func nextLive[T any](n *Node[T]) *Node[T] {
	for {
		_, next, removed := n.load()
		if next == nil {
			return nil
		}
		if !next.IsRemoved() {
			return next
		}
		if removed {
			n = next
			continue
		}
		unlink(n, next)
	}
}

// Len counts the live nodes. The result is a snapshot.
func (l *List[T]) Len() int {
	n := 0
	l.ForEach(func(*Node[T]) bool {
		n++
		return true
	})
	return n
}
