package sequence

import "container/heap"

// Item is a handle to a queued value. It stays valid until the value is
// dequeued or removed.
type Item[T any] struct {
	Value T
	index int
}

// Queued reports whether the item is still in its queue.
func (i *Item[T]) Queued() bool {
	return i.index >= 0
}

type itemHeap[T any] struct {
	items []*Item[T]
	less  func(a, b T) bool
}

func (h *itemHeap[T]) Len() int {
	return len(h.items)
}

func (h *itemHeap[T]) Less(i, j int) bool {
	return h.less(h.items[i].Value, h.items[j].Value)
}

func (h *itemHeap[T]) Swap(i, j int) {
	h.items[i], h.items[j] = h.items[j], h.items[i]
	h.items[i].index = i
	h.items[j].index = j
}

func (h *itemHeap[T]) Push(x any) {
	item := x.(*Item[T])
	item.index = len(h.items)
	h.items = append(h.items, item)
}

func (h *itemHeap[T]) Pop() any {
	old := h.items
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	h.items = old[0 : n-1]
	return item
}

// PriorityQueue is a binary heap ordered by a caller supplied less function.
// The smallest value is dequeued first.
type PriorityQueue[T any] struct {
	h itemHeap[T]
}

func NewPriorityQueue[T any](less func(a, b T) bool) *PriorityQueue[T] {
	pq := &PriorityQueue[T]{h: itemHeap[T]{less: less}}
	heap.Init(&pq.h)
	return pq
}

func (pq *PriorityQueue[T]) Enqueue(value T) *Item[T] {
	item := &Item[T]{Value: value}
	heap.Push(&pq.h, item)
	return item
}

func (pq *PriorityQueue[T]) Dequeue() (T, bool) {
	if pq.h.Len() == 0 {
		var zero T
		return zero, false
	}
	item := heap.Pop(&pq.h).(*Item[T])
	return item.Value, true
}

func (pq *PriorityQueue[T]) Peek() (T, bool) {
	if pq.h.Len() == 0 {
		var zero T
		return zero, false
	}
	return pq.h.items[0].Value, true
}

// Update replaces the value of a queued item and restores the order.
func (pq *PriorityQueue[T]) Update(item *Item[T], value T) {
	item.Value = value
	if item.Queued() {
		heap.Fix(&pq.h, item.index)
	}
}

// Remove takes an item out of the queue. Removing it twice is a no-op.
func (pq *PriorityQueue[T]) Remove(item *Item[T]) bool {
	if !item.Queued() || item.index >= pq.h.Len() || pq.h.items[item.index] != item {
		return false
	}
	heap.Remove(&pq.h, item.index)
	return true
}

func (pq *PriorityQueue[T]) Len() int {
	return pq.h.Len()
}

func (pq *PriorityQueue[T]) IsEmpty() bool {
	return pq.h.Len() == 0
}
