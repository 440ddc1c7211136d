package core

import "container/heap"

// orderQueue is a priority queue over orders with an id index, so the book
// can remove by identity in O(log n) instead of scanning. The comparator
// decides the ranking; ties always break on creation time (FIFO within a
// price level).
type orderQueue struct {
	items []*Order
	pos   map[string]int
	less  func(a, b *Order) bool
}

func newOrderQueue(less func(a, b *Order) bool) *orderQueue {
	return &orderQueue{pos: make(map[string]int), less: less}
}

// heap.Interface. Use container/heap to manipulate (Push, Pop, Remove).

func (q *orderQueue) Len() int           { return len(q.items) }
func (q *orderQueue) Less(i, j int) bool { return q.less(q.items[i], q.items[j]) }

func (q *orderQueue) Swap(i, j int) {
	q.items[i], q.items[j] = q.items[j], q.items[i]
	q.pos[q.items[i].ID] = i
	q.pos[q.items[j].ID] = j
}

func (q *orderQueue) Push(x any) {
	o := x.(*Order)
	q.pos[o.ID] = len(q.items)
	q.items = append(q.items, o)
}

func (q *orderQueue) Pop() any {
	old := q.items
	n := len(old)
	o := old[n-1]
	old[n-1] = nil
	q.items = old[:n-1]
	delete(q.pos, o.ID)
	return o
}

func (q *orderQueue) push(o *Order) { heap.Push(q, o) }

func (q *orderQueue) pop() *Order {
	if len(q.items) == 0 {
		return nil
	}
	return heap.Pop(q).(*Order)
}

// peek returns the head without removing it.
func (q *orderQueue) peek() *Order {
	if len(q.items) == 0 {
		return nil
	}
	return q.items[0]
}

func (q *orderQueue) contains(id string) bool {
	_, ok := q.pos[id]
	return ok
}

// remove deletes the order with the given id. Reports whether it was present.
func (q *orderQueue) remove(id string) bool {
	i, ok := q.pos[id]
	if !ok {
		return false
	}
	heap.Remove(q, i)
	return true
}

func buyPriority(a, b *Order) bool {
	ap, bp := a.Price(), b.Price()
	if !ap.Equal(bp) {
		return ap.GreaterThan(bp)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func sellPriority(a, b *Order) bool {
	ap, bp := a.Price(), b.Price()
	if !ap.Equal(bp) {
		return ap.LessThan(bp)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func triggerPriority(a, b *Order) bool {
	if !a.TriggerPrice.Equal(b.TriggerPrice) {
		return a.TriggerPrice.LessThan(b.TriggerPrice)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}
