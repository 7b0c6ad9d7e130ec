package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/NetPo4ki/go-corobus/internal/config"
	"github.com/NetPo4ki/go-corobus/internal/container"
	"github.com/NetPo4ki/go-corobus/internal/workload"
)

var (
	runConfigPath string
	runLinger     time.Duration
	runOverrides  config.Config
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a producer/consumer workload on the bus",
	Long: `Opens the configured channels, starts one consumer per channel and the
configured producers, and runs them to completion on one scheduler. Producers
either scatter batches over the channels or broadcast every value to all of them.`,
	Args: cobra.NoArgs,
	RunE: runWorkload,
}

func init() {
	def := config.DefaultConfig()
	f := runCmd.Flags()
	f.StringVarP(&runConfigPath, "config", "c", "", "YAML config file")
	f.DurationVar(&runLinger, "linger", 0, "Keep serving metrics this long after the run")
	f.IntVar(&runOverrides.Channels, "channels", def.Channels, "Channels to open")
	f.IntVar(&runOverrides.Capacity, "capacity", def.Capacity, "Capacity of each channel")
	f.IntVar(&runOverrides.Producers, "producers", def.Producers, "Producer tasks")
	f.IntVar(&runOverrides.Messages, "messages", def.Messages, "Values per producer")
	f.IntVar(&runOverrides.Batch, "batch", def.Batch, "Values per batch send or receive")
	f.BoolVar(&runOverrides.Broadcast, "broadcast", def.Broadcast, "Broadcast every value to all channels")
	f.IntVar(&runOverrides.MaxTasks, "max-tasks", def.MaxTasks, "Tasks allowed to run at once, 0 for no limit. Must exceed --channels; producers beyond the spare slots wait their turn")
	f.StringVar(&runOverrides.LogLevel, "log-level", def.LogLevel, "debug, info, warn or error")
	f.StringVar(&runOverrides.MetricsAddr, "metrics-addr", def.MetricsAddr, "Serve /metrics on this address")
}

// loadConfig reads the config file and applies every flag the user set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	f := cmd.Flags()
	if f.Changed("channels") {
		cfg.Channels = runOverrides.Channels
	}
	if f.Changed("capacity") {
		cfg.Capacity = runOverrides.Capacity
	}
	if f.Changed("producers") {
		cfg.Producers = runOverrides.Producers
	}
	if f.Changed("messages") {
		cfg.Messages = runOverrides.Messages
	}
	if f.Changed("batch") {
		cfg.Batch = runOverrides.Batch
	}
	if f.Changed("broadcast") {
		cfg.Broadcast = runOverrides.Broadcast
	}
	if f.Changed("max-tasks") {
		cfg.MaxTasks = runOverrides.MaxTasks
	}
	if f.Changed("log-level") {
		cfg.LogLevel = runOverrides.LogLevel
	}
	if f.Changed("metrics-addr") {
		cfg.MetricsAddr = runOverrides.MetricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runWorkload(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	c, err := container.New(ctx, cfg, reg, os.Stderr)
	if err != nil {
		return fmt.Errorf("wire runtime: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	if cfg.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			return srv.Shutdown(shutdownCtx)
		})
		c.Logger().Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	g.Go(func() error {
		defer cancel()
		stats, err := workload.Run(c.Scheduler(), c.Bus(), *cfg)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), stats)
		if cfg.MetricsAddr != "" && runLinger > 0 {
			select {
			case <-time.After(runLinger):
			case <-gctx.Done():
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
