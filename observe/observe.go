package observe

import (
	"context"
	"time"

	"github.com/NetPo4ki/go-corobus/bus"
	"github.com/NetPo4ki/go-corobus/sched"
)

// Observer watches both a scheduler and the bus it drives.
type Observer interface {
	sched.Observer
	bus.Observer
}

// Multi fans every event out to each observer in order.
type Multi []Observer

var _ Observer = Multi(nil)

func (m Multi) SchedulerCreated(ctx context.Context) {
	for _, o := range m {
		o.SchedulerCreated(ctx)
	}
}

func (m Multi) SchedulerCancelled(ctx context.Context, cause error) {
	for _, o := range m {
		o.SchedulerCancelled(ctx, cause)
	}
}

func (m Multi) SchedulerJoined(ctx context.Context, wait time.Duration) {
	for _, o := range m {
		o.SchedulerJoined(ctx, wait)
	}
}

func (m Multi) TaskStarted(ctx context.Context) {
	for _, o := range m {
		o.TaskStarted(ctx)
	}
}

func (m Multi) TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool) {
	for _, o := range m {
		o.TaskFinished(ctx, dur, err, panicked)
	}
}

func (m Multi) ChannelOpened(d, capacity int) {
	for _, o := range m {
		o.ChannelOpened(d, capacity)
	}
}

func (m Multi) ChannelClosed(d, woken int) {
	for _, o := range m {
		o.ChannelClosed(d, woken)
	}
}

func (m Multi) Transferred(op bus.Op, n int) {
	for _, o := range m {
		o.Transferred(op, n)
	}
}

func (m Multi) Suspended(op bus.Op) {
	for _, o := range m {
		o.Suspended(op)
	}
}
