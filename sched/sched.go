package sched

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/gammazero/deque"
)

type Policy int

const (
	FailFast Policy = iota
	Supervisor
)

var (
	// ErrDeadlock is reported by Run when tasks remain but every one of them
	// is waiting for a wakeup that nobody is left to deliver.
	ErrDeadlock = errors.New("sched: all tasks are asleep")
	// ErrUnwound is the outcome observers see for a task that was still
	// parked when Run stopped and was unwound instead of returning.
	ErrUnwound = errors.New("sched: task unwound")
)

type Option func(*Options)

type Options struct {
	PanicAsError   bool
	Observer       Observer
	MaxConcurrency int
	Logger         *slog.Logger
}

func defaultOptions() Options {
	return Options{PanicAsError: true, Logger: slog.New(slog.DiscardHandler)}
}

func WithPanicAsError(v bool) Option { return func(o *Options) { o.PanicAsError = v } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

type Observer interface {
	SchedulerCreated(ctx context.Context)
	SchedulerCancelled(ctx context.Context, cause error)
	SchedulerJoined(ctx context.Context, wait time.Duration)
	TaskStarted(ctx context.Context)
	TaskFinished(ctx context.Context, dur time.Duration, err error, panicked bool)
}

// Scheduler runs tasks cooperatively. Every task body executes on its own
// goroutine, but a baton is passed between the run loop and the tasks so that
// exactly one of them makes progress at a time.
type Scheduler struct {
	ctx    context.Context
	cancel context.CancelFunc
	policy Policy
	opts   Options
	obs    Observer
	log    *slog.Logger
	lim    *Semaphore

	mu       sync.Mutex
	runq     deque.Deque[*Task]
	tasks    map[*Task]struct{}
	current  *Task
	firstErr error
	canceled bool

	// handoff returns the baton from a task to the run loop.
	handoff chan struct{}
}

func New(parent context.Context, policy Policy, optFns ...Option) *Scheduler {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	s := &Scheduler{
		ctx:     ctx,
		cancel:  cancel,
		policy:  policy,
		opts:    defaultOptions(),
		tasks:   make(map[*Task]struct{}),
		handoff: make(chan struct{}),
	}
	for _, fn := range optFns {
		fn(&s.opts)
	}
	s.obs = s.opts.Observer
	s.log = s.opts.Logger
	if s.log == nil {
		s.log = slog.New(slog.DiscardHandler)
	}
	if s.opts.MaxConcurrency > 0 {
		s.lim = NewSemaphore(s, s.opts.MaxConcurrency)
	}
	if s.obs != nil {
		s.obs.SchedulerCreated(ctx)
	}
	return s
}

func (s *Scheduler) Context() context.Context { return s.ctx }

// Go registers fn as a new runnable task. It may be called from any
// goroutine, including from inside another task. The task does not start
// until Run picks it up.
func (s *Scheduler) Go(fn func(ctx context.Context) error) *Task {
	if fn == nil {
		return nil
	}
	t := newTask(s, fn)
	s.mu.Lock()
	s.tasks[t] = struct{}{}
	s.runq.PushBack(t)
	s.mu.Unlock()
	return t
}

// Run drives the scheduler until no task is left, the scheduler is
// cancelled, or every remaining task is waiting. Tasks still parked when Run
// stops are unwound before it returns. The result is the first recorded error.
func (s *Scheduler) Run() error {
	var start time.Time
	if s.obs != nil {
		start = time.Now()
	}
	for s.step() {
	}
	s.shutdown()
	if s.obs != nil {
		s.obs.SchedulerJoined(s.ctx, time.Since(start))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.firstErr
}

func (s *Scheduler) step() bool {
	s.mu.Lock()
	if len(s.tasks) == 0 || s.canceled {
		s.mu.Unlock()
		return false
	}
	s.mu.Unlock()

	if err := s.ctx.Err(); err != nil {
		s.Cancel(err)
		return false
	}

	s.mu.Lock()
	var t *Task
	for s.runq.Len() > 0 {
		if next := s.runq.PopFront(); next.state != Done {
			t = next
			break
		}
	}
	if t == nil {
		waiting := len(s.tasks)
		s.mu.Unlock()
		s.log.Warn("sched: deadlock", "waiting", waiting)
		s.fail(ErrDeadlock)
		return false
	}
	t.state = Running
	s.current = t
	first := !t.started
	t.started = true
	s.mu.Unlock()

	if first {
		go t.main()
	}
	t.resume <- struct{}{}
	<-s.handoff

	s.mu.Lock()
	s.current = nil
	s.mu.Unlock()
	return true
}

// shutdown unwinds every task that started but has not returned. Tasks that
// never started are dropped.
func (s *Scheduler) shutdown() {
	s.mu.Lock()
	parked := make([]*Task, 0, len(s.tasks))
	for t := range s.tasks {
		if !t.started {
			t.state = Done
			delete(s.tasks, t)
			continue
		}
		parked = append(parked, t)
	}
	s.mu.Unlock()

	for _, t := range parked {
		s.mu.Lock()
		t.killed = true
		t.state = Running
		s.current = t
		s.mu.Unlock()
		t.resume <- struct{}{}
		<-s.handoff
	}

	s.mu.Lock()
	s.current = nil
	s.runq.Clear()
	s.mu.Unlock()
}

func (s *Scheduler) Cancel(err error) {
	s.mu.Lock()
	wasCanceled := s.canceled
	s.canceled = true
	if s.firstErr == nil && err != nil {
		s.firstErr = err
	}
	cause := s.firstErr
	s.mu.Unlock()

	s.cancel()
	if !wasCanceled && s.obs != nil {
		s.obs.SchedulerCancelled(s.ctx, cause)
	}
}

func (s *Scheduler) fail(err error) {
	if err == nil {
		return
	}
	s.mu.Lock()
	if s.firstErr == nil {
		s.firstErr = err
	}
	shouldCancel := s.policy == FailFast
	cause := s.firstErr
	s.mu.Unlock()
	if shouldCancel {
		s.Cancel(cause)
	}
}

// Current returns the running task, or nil when called outside of one.
func (s *Scheduler) Current() *Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Suspend parks the running task until another party calls Wakeup on it.
func (s *Scheduler) Suspend() {
	t := s.mustCurrent("Suspend")
	s.mu.Lock()
	t.state = Waiting
	s.mu.Unlock()
	s.park(t)
}

// Wakeup makes a waiting task runnable again and reports whether it did. The
// task runs on a later turn, never synchronously. Waking a task that is not
// waiting does nothing.
func (s *Scheduler) Wakeup(t *Task) bool {
	if t == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.state != Waiting || t.killed {
		return false
	}
	t.state = Runnable
	s.runq.PushBack(t)
	return true
}

// Yield moves the running task to the tail of the run queue so that every
// task already runnable gets a turn first.
func (s *Scheduler) Yield() {
	t := s.mustCurrent("Yield")
	s.mu.Lock()
	t.state = Runnable
	s.runq.PushBack(t)
	s.mu.Unlock()
	s.park(t)
}

func (s *Scheduler) mustCurrent(op string) *Task {
	t := s.Current()
	if t == nil {
		panic(fmt.Sprintf("sched: %s called outside of a task", op))
	}
	return t
}

// park hands the baton back to the run loop and blocks until the task is
// resumed. A task resumed for unwinding exits through runtime.Goexit so that
// its deferred calls still run.
func (s *Scheduler) park(t *Task) {
	if t.isKilled() {
		runtime.Goexit()
	}
	s.handoff <- struct{}{}
	<-t.resume
	if t.isKilled() {
		runtime.Goexit()
	}
}

func (s *Scheduler) exit(t *Task) {
	s.mu.Lock()
	t.state = Done
	delete(s.tasks, t)
	s.mu.Unlock()
	s.handoff <- struct{}{}
}
