package bus

import "github.com/NetPo4ki/go-corobus/sched"

// waiter is one task parked on one wait queue. A broadcast blocked on
// several channels holds one waiter per channel, all naming the same task.
type waiter struct {
	task       *sched.Task
	prev, next *waiter
	// q is the queue the waiter is linked into, nil once unlinked.
	q *waitQueue
	// woken is set when the waiter was dequeued by a wakeup rather than
	// removed by its own task.
	woken bool
}

// waitQueue is an intrusive FIFO of waiters.
type waitQueue struct {
	first, last *waiter
	n           int
}

func (q *waitQueue) len() int { return q.n }

func (q *waitQueue) push(w *waiter) {
	w.q = q
	w.next = nil
	w.prev = q.last
	if q.last == nil {
		q.first = w
	} else {
		q.last.next = w
	}
	q.last = w
	q.n++
}

// remove unlinks w. It does nothing if w is not linked into q.
func (q *waitQueue) remove(w *waiter) {
	if w.q != q {
		return
	}
	if w.prev == nil {
		q.first = w.next
	} else {
		w.prev.next = w.next
	}
	if w.next == nil {
		q.last = w.prev
	} else {
		w.next.prev = w.prev
	}
	w.prev, w.next, w.q = nil, nil, nil
	q.n--
}

func (q *waitQueue) popFirst() *waiter {
	w := q.first
	if w != nil {
		q.remove(w)
	}
	return w
}

// wakeN dequeues up to n of the oldest waiters and makes their tasks
// runnable. Dequeuing keeps successive wakeups from landing on the same task.
// The result counts only tasks that were actually waiting: a broadcaster
// already woken through another queue is dequeued but not counted.
func (q *waitQueue) wakeN(s Scheduler, n int) int {
	woken := 0
	for i := 0; i < n; i++ {
		w := q.popFirst()
		if w == nil {
			break
		}
		w.woken = true
		if s.Wakeup(w.task) {
			woken++
		}
	}
	return woken
}

func (q *waitQueue) wakeFirst(s Scheduler) bool { return q.wakeN(s, 1) == 1 }

func (q *waitQueue) wakeAll(s Scheduler) int { return q.wakeN(s, q.n) }
