package bus

import (
	"log/slog"

	"github.com/NetPo4ki/go-corobus/sched"
)

// Scheduler is the part of a cooperative runtime the bus relies on.
// *sched.Scheduler implements it.
type Scheduler interface {
	Current() *sched.Task
	Suspend()
	Wakeup(t *sched.Task) bool
	Yield()
}

// Op names a kind of transfer for observers.
type Op string

const (
	OpSend      Op = "send"
	OpRecv      Op = "recv"
	OpBroadcast Op = "broadcast"
)

type Observer interface {
	ChannelOpened(d, capacity int)
	ChannelClosed(d, woken int)
	Transferred(op Op, n int)
	Suspended(op Op)
}

type Option func(*Options)

type Options struct {
	Observer Observer
	Logger   *slog.Logger
}

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// Bus is a registry of channels indexed by descriptor. A descriptor is valid
// while its slot holds a channel; closed slots are reused lowest first, so a
// descriptor only identifies a channel among those currently open.
type Bus struct {
	sched   Scheduler
	slots   []*channel
	lastErr error
	obs     Observer
	log     *slog.Logger
}

func New(s Scheduler, optFns ...Option) *Bus {
	opts := Options{}
	for _, fn := range optFns {
		fn(&opts)
	}
	b := &Bus{sched: s, obs: opts.Observer, log: opts.Logger}
	if b.log == nil {
		b.log = slog.New(slog.DiscardHandler)
	}
	return b
}

// LastError returns the outcome of the most recent operation on b: nil,
// ErrNoChannel or ErrWouldBlock. The value is only meaningful to the task
// that made the call, up to its next suspension point.
func (b *Bus) LastError() error { return b.lastErr }

func (b *Bus) setErr(err error) error {
	b.lastErr = err
	return err
}

// Open creates a channel holding at most capacity values and returns its
// descriptor. Capacity must not be negative.
func (b *Bus) Open(capacity int) int {
	if capacity < 0 {
		panic("bus: negative channel capacity")
	}
	c := newChannel(capacity)
	d := -1
	for i, slot := range b.slots {
		if slot == nil {
			d = i
			break
		}
	}
	if d < 0 {
		d = len(b.slots)
		b.slots = append(b.slots, c)
	} else {
		b.slots[d] = c
	}
	b.log.Debug("bus: channel opened", "channel", d, "capacity", capacity)
	if b.obs != nil {
		b.obs.ChannelOpened(d, capacity)
	}
	b.setErr(nil)
	return d
}

// Close frees descriptor d and wakes every task waiting on the channel, then
// yields once so they observe the closure before the channel is released.
// It yields only when it woke a waiter, so it may be called outside a task
// when nobody waits. Buffered values are dropped.
func (b *Bus) Close(d int) error {
	c := b.channel(d)
	if c == nil {
		return b.setErr(ErrNoChannel)
	}
	b.slots[d] = nil
	c.closed = true
	woken := c.sendq.wakeAll(b.sched) + c.recvq.wakeAll(b.sched)
	b.log.Debug("bus: channel closed", "channel", d, "woken", woken, "dropped", c.buf.Len())
	if b.obs != nil {
		b.obs.ChannelClosed(d, woken)
	}
	if woken > 0 {
		b.sched.Yield()
	}
	c.release()
	return b.setErr(nil)
}

// Destroy releases every channel without waking anybody. It is meant for
// teardown, when no task will run again.
func (b *Bus) Destroy() {
	stranded := 0
	for d, c := range b.slots {
		if c == nil {
			continue
		}
		stranded += c.waiters()
		c.release()
		b.slots[d] = nil
		if b.obs != nil {
			b.obs.ChannelClosed(d, 0)
		}
	}
	if stranded > 0 {
		b.log.Warn("bus: destroyed with waiting tasks", "waiting", stranded)
	}
	b.slots = nil
}

// Len reports how many values channel d holds.
func (b *Bus) Len(d int) (int, error) {
	c := b.channel(d)
	if c == nil {
		return 0, b.setErr(ErrNoChannel)
	}
	return c.buf.Len(), b.setErr(nil)
}

// Cap reports the capacity of channel d.
func (b *Bus) Cap(d int) (int, error) {
	c := b.channel(d)
	if c == nil {
		return 0, b.setErr(ErrNoChannel)
	}
	return c.limit, b.setErr(nil)
}

// Count reports how many channels are open.
func (b *Bus) Count() int {
	n := 0
	for _, c := range b.slots {
		if c != nil {
			n++
		}
	}
	return n
}

// channel returns the channel in slot d, or nil when d is not valid.
func (b *Bus) channel(d int) *channel {
	if d < 0 || d >= len(b.slots) {
		return nil
	}
	return b.slots[d]
}

// wait parks the running task on q until something wakes it. The caller
// must re-validate everything afterwards: wakeup only means "look again".
func (b *Bus) wait(q *waitQueue, op Op) {
	w := &waiter{task: b.current()}
	q.push(w)
	// also runs when the task is unwound while parked
	defer q.remove(w)
	b.suspended(op)
	b.sched.Suspend()
}

func (b *Bus) current() *sched.Task {
	t := b.sched.Current()
	if t == nil {
		panic("bus: blocking operation outside of a task")
	}
	return t
}

func (b *Bus) transferred(op Op, n int) {
	if b.obs != nil && n > 0 {
		b.obs.Transferred(op, n)
	}
}

func (b *Bus) suspended(op Op) {
	if b.obs != nil {
		b.obs.Suspended(op)
	}
}
