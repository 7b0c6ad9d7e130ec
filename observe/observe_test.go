package observe

import (
	"context"
	"testing"
	"time"

	"github.com/NetPo4ki/go-corobus/bus"
)

type countObserver struct {
	events int
}

func (o *countObserver) SchedulerCreated(context.Context)                         { o.events++ }
func (o *countObserver) SchedulerCancelled(context.Context, error)                { o.events++ }
func (o *countObserver) SchedulerJoined(context.Context, time.Duration)           { o.events++ }
func (o *countObserver) TaskStarted(context.Context)                              { o.events++ }
func (o *countObserver) TaskFinished(context.Context, time.Duration, error, bool) { o.events++ }
func (o *countObserver) ChannelOpened(int, int)                                   { o.events++ }
func (o *countObserver) ChannelClosed(int, int)                                   { o.events++ }
func (o *countObserver) Transferred(bus.Op, int)                                  { o.events++ }
func (o *countObserver) Suspended(bus.Op)                                         { o.events++ }

func TestMultiFansOut(t *testing.T) {
	t.Parallel()
	a, b := &countObserver{}, &countObserver{}
	m := Multi{a, b}
	ctx := context.Background()
	m.SchedulerCreated(ctx)
	m.TaskStarted(ctx)
	m.TaskFinished(ctx, time.Millisecond, nil, false)
	m.ChannelOpened(0, 1)
	m.Transferred(bus.OpSend, 2)
	m.Suspended(bus.OpRecv)
	m.ChannelClosed(0, 0)
	m.SchedulerCancelled(ctx, nil)
	m.SchedulerJoined(ctx, time.Second)
	if a.events != 9 || b.events != 9 {
		t.Fatalf("events a=%d b=%d, want 9 each", a.events, b.events)
	}
}
