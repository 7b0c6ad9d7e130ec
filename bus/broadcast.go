package bus

import "errors"

// TryBroadcast appends v to every open channel, or to none of them: if any
// open channel is full it fails with ErrWouldBlock and nothing is enqueued.
// It fails with ErrNoChannel when no channel is open.
func (b *Bus) TryBroadcast(v uint32) error {
	return b.setErr(b.tryBroadcast(v))
}

func (b *Bus) tryBroadcast(v uint32) error {
	open, blocked := 0, false
	for _, c := range b.slots {
		if c == nil {
			continue
		}
		open++
		if c.full() {
			blocked = true
		}
	}
	if open == 0 {
		return ErrNoChannel
	}
	if blocked {
		return ErrWouldBlock
	}
	for _, c := range b.slots {
		if c == nil {
			continue
		}
		c.buf.PushBack(v)
		c.recvq.wakeFirst(b.sched)
	}
	b.transferred(OpBroadcast, open)
	return nil
}

// Broadcast appends v to every open channel, suspending the running task
// until all of them have room at the same time. While blocked the task waits
// on every full channel at once and retries from scratch on any wakeup.
func (b *Bus) Broadcast(v uint32) error {
	var woken []*channel
	for {
		err := b.tryBroadcast(v)
		if !errors.Is(err, ErrWouldBlock) {
			return b.setErr(err)
		}
		b.passOn(woken)
		woken = b.waitFull()
	}
}

// waitFull parks the running task on the send queue of every full channel
// and returns the channels whose wakeup was delivered to it.
func (b *Bus) waitFull() []*channel {
	t := b.current()
	var (
		chans   []*channel
		waiters []*waiter
	)
	for _, c := range b.slots {
		if c == nil || !c.full() {
			continue
		}
		w := &waiter{task: t}
		c.sendq.push(w)
		chans = append(chans, c)
		waiters = append(waiters, w)
	}
	defer func() {
		for i, w := range waiters {
			chans[i].sendq.remove(w)
		}
	}()
	b.suspended(OpBroadcast)
	b.sched.Suspend()

	var woken []*channel
	for i, w := range waiters {
		if w.woken {
			woken = append(woken, chans[i])
		}
	}
	return woken
}

// passOn forwards wakeups the broadcaster consumed without using. Each one
// was meant for a sender of a channel that now has room.
func (b *Bus) passOn(woken []*channel) {
	for _, c := range woken {
		if !c.closed && !c.full() {
			c.sendq.wakeFirst(b.sched)
		}
	}
}
