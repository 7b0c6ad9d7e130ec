package bus

import "errors"

// TrySend appends v to channel d if it has room and wakes the oldest waiting
// receiver. It fails with ErrWouldBlock when the channel is full.
func (b *Bus) TrySend(d int, v uint32) error {
	return b.setErr(b.trySend(d, v))
}

func (b *Bus) trySend(d int, v uint32) error {
	c := b.channel(d)
	if c == nil {
		return ErrNoChannel
	}
	if c.full() {
		return ErrWouldBlock
	}
	c.buf.PushBack(v)
	c.recvq.wakeFirst(b.sched)
	b.transferred(OpSend, 1)
	return nil
}

// Send appends v to channel d, suspending the running task while the channel
// is full. It returns ErrNoChannel as soon as d stops naming an open channel.
func (b *Bus) Send(d int, v uint32) error {
	for {
		err := b.trySend(d, v)
		if !errors.Is(err, ErrWouldBlock) {
			return b.setErr(err)
		}
		b.wait(&b.slots[d].sendq, OpSend)
	}
}

// TryRecv pops the head of channel d and wakes the oldest waiting sender.
// It fails with ErrWouldBlock when the channel is empty.
func (b *Bus) TryRecv(d int) (uint32, error) {
	v, err := b.tryRecv(d)
	return v, b.setErr(err)
}

func (b *Bus) tryRecv(d int) (uint32, error) {
	c := b.channel(d)
	if c == nil {
		return 0, ErrNoChannel
	}
	if c.buf.Len() == 0 {
		return 0, ErrWouldBlock
	}
	v := c.buf.PopFront()
	c.sendq.wakeFirst(b.sched)
	b.transferred(OpRecv, 1)
	return v, nil
}

// Recv pops the head of channel d, suspending the running task while the
// channel is empty.
func (b *Bus) Recv(d int) (uint32, error) {
	for {
		v, err := b.tryRecv(d)
		if !errors.Is(err, ErrWouldBlock) {
			return v, b.setErr(err)
		}
		b.wait(&b.slots[d].recvq, OpRecv)
	}
}
