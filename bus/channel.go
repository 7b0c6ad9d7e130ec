package bus

import "github.com/gammazero/deque"

type channel struct {
	// limit is the capacity. Zero is legal and keeps the channel full
	// forever: every send blocks until the channel is closed.
	limit int
	buf   deque.Deque[uint32]
	// sendq holds tasks waiting for the channel to stop being full.
	sendq waitQueue
	// recvq holds tasks waiting for the channel to stop being empty.
	recvq  waitQueue
	closed bool
}

func newChannel(limit int) *channel {
	return &channel{limit: limit}
}

func (c *channel) full() bool { return c.buf.Len() >= c.limit }

func (c *channel) room() int {
	if r := c.limit - c.buf.Len(); r > 0 {
		return r
	}
	return 0
}

func (c *channel) push(values []uint32) {
	for _, v := range values {
		c.buf.PushBack(v)
	}
}

func (c *channel) pop(dst []uint32) {
	for i := range dst {
		dst[i] = c.buf.PopFront()
	}
}

func (c *channel) waiters() int { return c.sendq.len() + c.recvq.len() }

func (c *channel) release() {
	c.buf.Clear()
	c.closed = true
}
