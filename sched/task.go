package sched

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// State is the position of a task in its lifecycle.
type State uint8

const (
	Runnable State = iota
	Running
	Waiting
	Done
)

func (st State) String() string {
	switch st {
	case Runnable:
		return "runnable"
	case Running:
		return "running"
	case Waiting:
		return "waiting"
	case Done:
		return "done"
	}
	return fmt.Sprintf("State(%d)", uint8(st))
}

// Task is a handle to a cooperative task. Handles are comparable and stay
// valid after the task is done.
type Task struct {
	id     uuid.UUID
	s      *Scheduler
	fn     func(ctx context.Context) error
	resume chan struct{}

	// guarded by s.mu
	state   State
	started bool
	killed  bool
}

func newTask(s *Scheduler, fn func(ctx context.Context) error) *Task {
	return &Task{id: uuid.New(), s: s, fn: fn, resume: make(chan struct{})}
}

func (t *Task) ID() uuid.UUID { return t.id }

func (t *Task) State() State {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.state
}

func (t *Task) String() string { return "task " + t.id.String() }

func (t *Task) isKilled() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.killed
}

func (t *Task) main() {
	s := t.s
	<-t.resume
	defer s.exit(t)
	if s.lim != nil {
		s.lim.Acquire()
		defer s.lim.Release()
	}

	var (
		start    time.Time
		observed bool
		returned bool
	)
	defer func() {
		r := recover()
		switch {
		case r == nil && returned:
		case r == nil:
			// parked when Run stopped; unwound through runtime.Goexit
			s.log.Debug("sched: task unwound", "task", t.id)
			if observed {
				s.obs.TaskFinished(s.ctx, time.Since(start), ErrUnwound, false)
			}
		case s.opts.PanicAsError:
			s.log.Error("sched: task panicked", "task", t.id, "panic", r)
			err := fmt.Errorf("panic: %v", r)
			s.fail(err)
			if observed {
				s.obs.TaskFinished(s.ctx, time.Since(start), err, true)
			}
		default:
			s.log.Error("sched: task panicked", "task", t.id, "panic", r)
			if observed {
				s.obs.TaskFinished(s.ctx, time.Since(start), nil, true)
			}
			panic(r)
		}
	}()

	if s.obs != nil {
		start = time.Now()
		s.obs.TaskStarted(s.ctx)
		observed = true
	}
	s.log.Debug("sched: task started", "task", t.id)

	err := t.fn(s.ctx)
	returned = true
	if err != nil {
		s.fail(err)
	}
	if s.obs != nil {
		s.obs.TaskFinished(s.ctx, time.Since(start), err, false)
	}
	s.log.Debug("sched: task finished", "task", t.id, "err", err)
}
