package scheduler

import (
	"container/heap"
	"time"
)

// entry is one outstanding ScheduledEvent plus its queue bookkeeping. gen
// lets Schedule replace a session's event without hunting through the heap:
// stale generations are dropped when popped.
type entry struct {
	sessionID string
	kind      Kind
	due       time.Time
	gen       uint64

	lastDelay time.Duration
	retries   int

	index int
}

// eventQueue is a min-heap ordered by due time, ties broken by session id so
// dispatch order is reproducible for fixed inputs.
type eventQueue []*entry

func (q eventQueue) Len() int { return len(q) }

func (q eventQueue) Less(i, j int) bool {
	if q[i].due.Equal(q[j].due) {
		return q[i].sessionID < q[j].sessionID
	}
	return q[i].due.Before(q[j].due)
}

func (q eventQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}

func (q *eventQueue) Push(x any) {
	e := x.(*entry)
	e.index = len(*q)
	*q = append(*q, e)
}

func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*q = old[:n-1]
	return e
}

func (q *eventQueue) push(e *entry) {
	heap.Push(q, e)
}

func (q *eventQueue) pop() *entry {
	if len(*q) == 0 {
		return nil
	}
	return heap.Pop(q).(*entry)
}

func (q eventQueue) peek() *entry {
	if len(q) == 0 {
		return nil
	}
	return q[0]
}
