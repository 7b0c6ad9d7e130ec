// Package container wires the corobus runtime using go.uber.org/dig.
package container

import (
	"context"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"github.com/NetPo4ki/go-corobus/bus"
	"github.com/NetPo4ki/go-corobus/internal/config"
	"github.com/NetPo4ki/go-corobus/observe"
	"github.com/NetPo4ki/go-corobus/observe/logging"
	"github.com/NetPo4ki/go-corobus/observe/prom"
	"github.com/NetPo4ki/go-corobus/sched"
)

// Container holds one scheduler and the bus it drives, plus the services
// observing them. A scheduler runs once, so build a new Container per run.
type Container struct {
	cfg     *config.Config
	log     *slog.Logger
	metrics *prom.Metrics
	sched   *sched.Scheduler
	bus     *bus.Bus
}

func (c *Container) Config() *config.Config      { return c.cfg }
func (c *Container) Logger() *slog.Logger        { return c.log }
func (c *Container) Metrics() *prom.Metrics      { return c.metrics }
func (c *Container) Scheduler() *sched.Scheduler { return c.sched }
func (c *Container) Bus() *bus.Bus               { return c.bus }

// New builds and wires everything from cfg. Metrics register with reg and
// logs go to w.
func New(ctx context.Context, cfg *config.Config, reg prometheus.Registerer, w io.Writer) (*Container, error) {
	d := dig.New()

	if err := d.Provide(func() context.Context { return ctx }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() prometheus.Registerer { return reg }); err != nil {
		return nil, err
	}
	if err := d.Provide(func() io.Writer { return w }); err != nil {
		return nil, err
	}
	if err := d.Provide(newLogger); err != nil {
		return nil, err
	}
	if err := d.Provide(prom.New); err != nil {
		return nil, err
	}
	if err := d.Provide(newObserver); err != nil {
		return nil, err
	}
	if err := d.Provide(newScheduler); err != nil {
		return nil, err
	}
	if err := d.Provide(newBus); err != nil {
		return nil, err
	}

	var result *Container
	err := d.Invoke(func(
		log *slog.Logger,
		metrics *prom.Metrics,
		s *sched.Scheduler,
		b *bus.Bus,
	) {
		result = &Container{
			cfg:     cfg,
			log:     log,
			metrics: metrics,
			sched:   s,
			bus:     b,
		}
	})
	return result, err
}

func newLogger(cfg *config.Config, w io.Writer) (*slog.Logger, error) {
	level, err := cfg.Level()
	if err != nil {
		return nil, err
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

func newObserver(metrics *prom.Metrics, log *slog.Logger) observe.Observer {
	return observe.Multi{metrics, logging.New(log)}
}

func newScheduler(ctx context.Context, cfg *config.Config, log *slog.Logger, obs observe.Observer) *sched.Scheduler {
	return sched.New(ctx, sched.FailFast,
		sched.WithLogger(log),
		sched.WithObserver(obs),
		sched.WithMaxConcurrency(cfg.MaxTasks),
	)
}

func newBus(s *sched.Scheduler, log *slog.Logger, obs observe.Observer) *bus.Bus {
	return bus.New(s, bus.WithLogger(log), bus.WithObserver(obs))
}
