package bus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NetPo4ki/go-corobus/sched"
)

// fakeScheduler counts wakeups without running anything. With awake set it
// behaves as if no task is waiting.
type fakeScheduler struct {
	wakeups int
	awake   bool
}

func (f *fakeScheduler) Current() *sched.Task { return nil }
func (f *fakeScheduler) Suspend()             {}
func (f *fakeScheduler) Yield()               {}

func (f *fakeScheduler) Wakeup(*sched.Task) bool {
	f.wakeups++
	return !f.awake
}

func order(q *waitQueue) []*waiter {
	var out []*waiter
	for w := q.first; w != nil; w = w.next {
		out = append(out, w)
	}
	return out
}

func TestWaitQueueFIFO(t *testing.T) {
	t.Parallel()
	var q waitQueue
	a, b, c := &waiter{}, &waiter{}, &waiter{}
	q.push(a)
	q.push(b)
	q.push(c)
	require.Equal(t, 3, q.len())

	assert.Same(t, a, q.popFirst())
	assert.Same(t, b, q.popFirst())
	assert.Same(t, c, q.popFirst())
	assert.Nil(t, q.popFirst())
	assert.Zero(t, q.len())
}

func TestWaitQueueRemove(t *testing.T) {
	t.Parallel()
	var q, other waitQueue
	a, b, c := &waiter{}, &waiter{}, &waiter{}
	q.push(a)
	q.push(b)
	q.push(c)

	q.remove(b)
	assert.Equal(t, []*waiter{a, c}, order(&q))
	q.remove(b)
	other.remove(a)
	assert.Equal(t, 2, q.len())

	q.remove(c)
	q.remove(a)
	assert.Zero(t, q.len())
	assert.Nil(t, q.first)
	assert.Nil(t, q.last)
}

func TestWaitQueueWakeDequeues(t *testing.T) {
	t.Parallel()
	var q waitQueue
	s := &fakeScheduler{}
	ws := []*waiter{{}, {}, {}}
	for _, w := range ws {
		q.push(w)
	}

	assert.True(t, q.wakeFirst(s))
	assert.True(t, ws[0].woken)
	assert.Nil(t, ws[0].q)
	assert.Equal(t, 2, q.len())

	assert.Equal(t, 2, q.wakeN(s, 5))
	assert.False(t, q.wakeFirst(s))
	assert.Equal(t, 3, s.wakeups)
	assert.Zero(t, q.wakeAll(s))
}

func TestWaitQueueCountsOnlyRealWakeups(t *testing.T) {
	t.Parallel()
	var q waitQueue
	s := &fakeScheduler{awake: true}
	a, b := &waiter{}, &waiter{}
	q.push(a)
	q.push(b)

	assert.Zero(t, q.wakeAll(s))
	assert.Equal(t, 2, s.wakeups)
	assert.True(t, a.woken)
	assert.True(t, b.woken)
	assert.Zero(t, q.len())
}
