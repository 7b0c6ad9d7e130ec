package prom

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/NetPo4ki/go-corobus/bus"
	"github.com/NetPo4ki/go-corobus/sched"
)

const namespace = "corobus"

var (
	_ sched.Observer = (*Metrics)(nil)
	_ bus.Observer   = (*Metrics)(nil)
)

// Metrics exports scheduler and bus activity as Prometheus collectors.
// It implements both sched.Observer and bus.Observer.
type Metrics struct {
	// tasks
	activeTasks   prometheus.Gauge
	tasksStarted  prometheus.Counter
	tasksFinished *prometheus.CounterVec
	taskDuration  prometheus.Histogram

	// schedulers
	cancellations prometheus.Counter
	joins         prometheus.Counter
	joinWait      prometheus.Histogram

	// channels
	openChannels   prometheus.Gauge
	channelsOpened prometheus.Counter
	closeWakeups   prometheus.Counter
	transferred    *prometheus.CounterVec
	suspended      *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg means
// prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		activeTasks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "sched", Name: "active_tasks",
			Help: "Tasks that started and have not finished.",
		}),
		tasksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sched", Name: "tasks_started_total",
			Help: "Tasks started.",
		}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sched", Name: "tasks_finished_total",
			Help: "Tasks finished, by outcome.",
		}, []string{"outcome"}),
		taskDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sched", Name: "task_duration_seconds",
			Help:    "Wall time from task start to finish, including time spent suspended.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 10, 8),
		}),
		cancellations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sched", Name: "cancellations_total",
			Help: "Schedulers cancelled.",
		}),
		joins: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "sched", Name: "runs_total",
			Help: "Completed scheduler runs.",
		}),
		joinWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "sched", Name: "run_duration_seconds",
			Help:    "Wall time of a scheduler run.",
			Buckets: prometheus.ExponentialBuckets(1e-5, 10, 7),
		}),
		openChannels: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: "bus", Name: "open_channels",
			Help: "Channels currently open.",
		}),
		channelsOpened: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bus", Name: "channels_opened_total",
			Help: "Channels opened.",
		}),
		closeWakeups: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bus", Name: "close_wakeups_total",
			Help: "Waiting tasks woken because their channel closed.",
		}),
		transferred: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bus", Name: "values_total",
			Help: "Values moved through the bus, by operation.",
		}, []string{"op"}),
		suspended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "bus", Name: "suspends_total",
			Help: "Times a blocking operation suspended its task, by operation.",
		}, []string{"op"}),
	}
	reg.MustRegister(
		m.activeTasks, m.tasksStarted, m.tasksFinished, m.taskDuration,
		m.cancellations, m.joins, m.joinWait,
		m.openChannels, m.channelsOpened, m.closeWakeups, m.transferred, m.suspended,
	)
	return m
}

func (m *Metrics) SchedulerCreated(_ context.Context) {}

// SchedulerCancelled records scheduler cancellation.
func (m *Metrics) SchedulerCancelled(_ context.Context, _ error) {
	m.cancellations.Inc()
}

// SchedulerJoined records a finished run and its duration.
func (m *Metrics) SchedulerJoined(_ context.Context, wait time.Duration) {
	m.joins.Inc()
	m.joinWait.Observe(wait.Seconds())
}

// TaskStarted increments active and started counters.
func (m *Metrics) TaskStarted(_ context.Context) {
	m.activeTasks.Inc()
	m.tasksStarted.Inc()
}

// TaskFinished decrements active, counts the outcome, and tracks duration.
func (m *Metrics) TaskFinished(_ context.Context, dur time.Duration, err error, panicked bool) {
	m.activeTasks.Dec()
	outcome := "ok"
	switch {
	case panicked:
		outcome = "panic"
	case errors.Is(err, sched.ErrUnwound):
		outcome = "unwound"
	case err != nil:
		outcome = "error"
	}
	m.tasksFinished.WithLabelValues(outcome).Inc()
	m.taskDuration.Observe(dur.Seconds())
}

func (m *Metrics) ChannelOpened(_, _ int) {
	m.openChannels.Inc()
	m.channelsOpened.Inc()
}

func (m *Metrics) ChannelClosed(_, woken int) {
	m.openChannels.Dec()
	m.closeWakeups.Add(float64(woken))
}

func (m *Metrics) Transferred(op bus.Op, n int) {
	m.transferred.WithLabelValues(string(op)).Add(float64(n))
}

func (m *Metrics) Suspended(op bus.Op) {
	m.suspended.WithLabelValues(string(op)).Inc()
}
