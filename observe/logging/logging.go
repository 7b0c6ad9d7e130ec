package logging

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/NetPo4ki/go-corobus/bus"
	"github.com/NetPo4ki/go-corobus/sched"
)

var (
	_ sched.Observer = (*Observer)(nil)
	_ bus.Observer   = (*Observer)(nil)
)

type Observer struct {
	log *slog.Logger
}

// New returns an observer writing to l, or to slog.Default() when l is nil.
func New(l *slog.Logger) *Observer {
	if l == nil {
		l = slog.Default()
	}
	return &Observer{log: l}
}

func (o *Observer) SchedulerCreated(ctx context.Context) {
	o.log.DebugContext(ctx, "scheduler created")
}

func (o *Observer) SchedulerCancelled(ctx context.Context, cause error) {
	o.log.InfoContext(ctx, "scheduler cancelled", "cause", cause)
}

func (o *Observer) SchedulerJoined(ctx context.Context, wait time.Duration) {
	o.log.DebugContext(ctx, "scheduler joined", "wait", wait)
}

func (o *Observer) TaskStarted(ctx context.Context) {
	o.log.DebugContext(ctx, "task started")
}

func (o *Observer) TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool) {
	if errors.Is(err, sched.ErrUnwound) {
		o.log.DebugContext(ctx, "task unwound", "dur", dur)
		return
	}
	if err != nil || panicked {
		o.log.WarnContext(ctx, "task failed", "dur", dur, "err", err, "panicked", panicked)
		return
	}
	o.log.DebugContext(ctx, "task finished", "dur", dur)
}

func (o *Observer) ChannelOpened(d, capacity int) {
	o.log.Debug("channel opened", "channel", d, "capacity", capacity)
}

func (o *Observer) ChannelClosed(d, woken int) {
	o.log.Debug("channel closed", "channel", d, "woken", woken)
}

func (o *Observer) Transferred(op bus.Op, n int) {
	o.log.Debug("values transferred", "op", op, "n", n)
}

func (o *Observer) Suspended(op bus.Op) {
	o.log.Debug("task suspended", "op", op)
}
