package sched

import (
	"container/heap"

	"golang.org/x/exp/constraints"
)

// heapItem is one entry in an indexedHeap: a task id plus the ordering
// key for this policy (priority or deadline), an insertion sequence
// number breaking ties FIFO, and the slot container/heap currently has it
// in (maintained by Swap so RemoveTask can find it in O(log n) instead of
// a linear scan).
type heapItem[K constraints.Ordered] struct {
	id    uint64
	key   K
	seq   uint64
	index int
}

// indexedHeap adapts a slice of heapItem to container/heap.Interface,
// with removal-by-id supported in O(log n) by tracking each item's live
// index.
type indexedHeap[K constraints.Ordered] []*heapItem[K]

func (h indexedHeap[K]) Len() int { return len(h) }

func (h indexedHeap[K]) Less(i, j int) bool {
	if h[i].key != h[j].key {
		return h[i].key < h[j].key
	}
	return h[i].seq < h[j].seq
}

func (h indexedHeap[K]) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *indexedHeap[K]) Push(x any) {
	item := x.(*heapItem[K])
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *indexedHeap[K]) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*h = old[:n-1]
	return item
}

// byIDHeap wraps indexedHeap with an id->item index, so callers can push,
// pop the minimum, and remove an arbitrary id by its task id alone.
type byIDHeap[K constraints.Ordered] struct {
	h    indexedHeap[K]
	byID map[uint64]*heapItem[K]
}

func newByIDHeap[K constraints.Ordered]() *byIDHeap[K] {
	return &byIDHeap[K]{byID: make(map[uint64]*heapItem[K])}
}

func (b *byIDHeap[K]) push(id uint64, key K, seq uint64) {
	item := &heapItem[K]{id: id, key: key, seq: seq}
	heap.Push(&b.h, item)
	b.byID[id] = item
}

func (b *byIDHeap[K]) remove(id uint64) {
	item, ok := b.byID[id]
	if !ok {
		return
	}
	heap.Remove(&b.h, item.index)
	delete(b.byID, id)
}

func (b *byIDHeap[K]) pop() (uint64, bool) {
	if b.h.Len() == 0 {
		return 0, false
	}
	item := heap.Pop(&b.h).(*heapItem[K])
	delete(b.byID, item.id)
	return item.id, true
}

func (b *byIDHeap[K]) len() int { return b.h.Len() }
