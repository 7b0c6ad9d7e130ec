package sched

import "github.com/gammazero/deque"

// Semaphore is a counting semaphore for cooperative tasks. Acquire suspends
// the running task while no permit is available; Release hands a permit to
// the oldest waiter directly.
type Semaphore struct {
	s *Scheduler
	v int
	w deque.Deque[*Task]
}

func NewSemaphore(s *Scheduler, n int) *Semaphore {
	if n < 0 {
		n = 0
	}
	return &Semaphore{s: s, v: n}
}

func (m *Semaphore) Acquire() {
	if m.v > 0 {
		m.v--
		return
	}
	m.w.PushBack(m.s.mustCurrent("Semaphore.Acquire"))
	m.s.Suspend()
}

// TryAcquire takes a permit if one is free without suspending.
func (m *Semaphore) TryAcquire() bool {
	if m.v == 0 {
		return false
	}
	m.v--
	return true
}

// Release returns a permit, handing it to the oldest waiter that can still
// run. Waiters unwound while queued are skipped.
func (m *Semaphore) Release() {
	for m.w.Len() > 0 {
		if m.s.Wakeup(m.w.PopFront()) {
			return
		}
	}
	m.v++
}

// Waiters reports how many tasks are queued in Acquire.
func (m *Semaphore) Waiters() int { return m.w.Len() }
