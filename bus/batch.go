package bus

import "errors"

// TrySendV appends as many leading values as fit into channel d and returns
// how many it took. A full channel is ErrWouldBlock, not a zero count.
func (b *Bus) TrySendV(d int, values []uint32) (int, error) {
	n, err := b.trySendV(d, values)
	return n, b.setErr(err)
}

func (b *Bus) trySendV(d int, values []uint32) (int, error) {
	c := b.channel(d)
	if c == nil {
		return 0, ErrNoChannel
	}
	room := c.room()
	if room == 0 {
		return 0, ErrWouldBlock
	}
	n := min(room, len(values))
	c.push(values[:n])
	c.recvq.wakeN(b.sched, n)
	b.transferred(OpSend, n)
	return n, nil
}

// SendV appends every value to channel d in order, suspending whenever the
// channel fills up. It returns len(values) on success. On ErrNoChannel the
// count tells how many values went in before the channel disappeared.
func (b *Bus) SendV(d int, values []uint32) (int, error) {
	if len(values) == 0 {
		if b.channel(d) == nil {
			return 0, b.setErr(ErrNoChannel)
		}
		return 0, b.setErr(nil)
	}
	total := 0
	for {
		n, err := b.trySendV(d, values[total:])
		total += n
		if errors.Is(err, ErrWouldBlock) {
			b.wait(&b.slots[d].sendq, OpSend)
			continue
		}
		if err != nil || total == len(values) {
			return total, b.setErr(err)
		}
	}
}

// TryRecvV pops up to len(buf) values from the head of channel d into buf
// and returns how many it took. An empty channel is ErrWouldBlock.
func (b *Bus) TryRecvV(d int, buf []uint32) (int, error) {
	n, err := b.tryRecvV(d, buf)
	return n, b.setErr(err)
}

func (b *Bus) tryRecvV(d int, buf []uint32) (int, error) {
	c := b.channel(d)
	if c == nil {
		return 0, ErrNoChannel
	}
	if c.buf.Len() == 0 {
		return 0, ErrWouldBlock
	}
	n := min(c.buf.Len(), len(buf))
	c.pop(buf[:n])
	c.sendq.wakeN(b.sched, n)
	b.transferred(OpRecv, n)
	return n, nil
}

// RecvV fills buf from channel d, suspending whenever the channel runs dry.
// It returns len(buf) on success, or the count received so far together with
// ErrNoChannel.
func (b *Bus) RecvV(d int, buf []uint32) (int, error) {
	if len(buf) == 0 {
		if b.channel(d) == nil {
			return 0, b.setErr(ErrNoChannel)
		}
		return 0, b.setErr(nil)
	}
	total := 0
	for {
		n, err := b.tryRecvV(d, buf[total:])
		total += n
		if errors.Is(err, ErrWouldBlock) {
			b.wait(&b.slots[d].recvq, OpRecv)
			continue
		}
		if err != nil || total == len(buf) {
			return total, b.setErr(err)
		}
	}
}
