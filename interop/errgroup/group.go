// Package errgroup provides an adapter that mimics golang.org/x/sync/errgroup
// semantics on top of the cooperative scheduler. Functions started with Go
// run as cooperative tasks, so they may block on a bus.Bus driven by the
// same scheduler.
package errgroup

import (
	"context"

	"github.com/NetPo4ki/go-corobus/sched"
)

// Group is an errgroup-like wrapper over sched.Scheduler (FailFast).
type Group struct {
	s   *sched.Scheduler
	ctx context.Context
}

// WithContext creates a Group bound to ctx. Returned context is canceled when
// any function passed to Go returns a non-nil error.
func WithContext(ctx context.Context, opts ...sched.Option) (*Group, context.Context) {
	s := sched.New(ctx, sched.FailFast, opts...)
	g := &Group{s: s, ctx: s.Context()}
	return g, g.ctx
}

// Scheduler exposes the scheduler the group's tasks run on, for building a
// bus.Bus they can share.
func (g *Group) Scheduler() *sched.Scheduler { return g.s }

// Go starts a function. It should return a non-nil error to signal failure.
func (g *Group) Go(f func() error) {
	if f == nil {
		return
	}
	g.s.Go(func(context.Context) error {
		return f()
	})
}

// Wait runs the group's tasks until all have returned. It returns the first
// non-nil error (FailFast semantics) or nil on success.
func (g *Group) Wait() error {
	return g.s.Run()
}
