package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/automaxprocs/maxprocs"
	"golang.org/x/sync/errgroup"

	"github.com/ygrebnov/threadpool"
	"github.com/ygrebnov/threadpool/internal/accesslog"
	"github.com/ygrebnov/threadpool/internal/config"
	"github.com/ygrebnov/threadpool/internal/console"
	"github.com/ygrebnov/threadpool/internal/server"
	"github.com/ygrebnov/threadpool/metrics"
)

const metricsShutdownTimeout = 5 * time.Second

// run serves until cfg.MaxConnections connections were handled or ctx is done.
func run(ctx context.Context, cfg *config.Config, con *console.Console) error {
	level, _ := cfg.Level()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	undo, err := maxprocs.Set(maxprocs.Logger(func(format string, a ...any) {
		logger.Debug(fmt.Sprintf(format, a...))
	}))
	if err != nil {
		logger.Warn("failed to set GOMAXPROCS", slog.Any("error", err))
	}
	defer undo()

	var (
		provider metrics.Provider = metrics.NoopProvider{}
		registry *prometheus.Registry
	)
	if cfg.MetricsAddr != "" {
		registry = prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		provider = metrics.NewPrometheusProvider(registry)
	}

	opts := server.Options{
		Addr:           net.JoinHostPort("", strconv.Itoa(cfg.Port)),
		Root:           cfg.Root,
		MaxConnections: cfg.MaxConnections,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		AcceptRate:     cfg.AcceptRate,
		AcceptBurst:    cfg.AcceptBurst,
		Logger:         logger,
		Metrics:        provider,
	}
	if cfg.AccessLogDB != "" {
		store, err := accesslog.Open(cfg.AccessLogDB)
		if err != nil {
			return err
		}
		defer store.Close()
		opts.AccessLog = store
	}

	poolOpts := []threadpool.Option{
		threadpool.WithWorkers(cfg.PoolSize),
		threadpool.WithMetrics(provider),
		threadpool.WithLogger(logger),
		threadpool.WithErrorHandler(func(err error) {
			idx, _ := threadpool.ExtractTaskIndex(err)
			worker, _ := threadpool.ExtractWorkerID(err)
			logger.Warn("connection task failed",
				slog.Int("connection", idx), slog.Int("worker", worker), slog.Any("error", err))
		}),
	}
	if cfg.MaxQueueLength > 0 {
		poolOpts = append(poolOpts, threadpool.WithMaxQueueLength(cfg.MaxQueueLength))
	}

	// Connections accepted before a signal are still served with a live context.
	pool, err := threadpool.New(context.WithoutCancel(ctx), poolOpts...)
	if err != nil {
		return err
	}
	srv, err := server.New(pool, opts)
	if err != nil {
		return errors.Join(err, pool.Shutdown())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// the metrics endpoint lives only as long as the server
		defer cancel()
		return srv.ListenAndServe(gctx)
	})

	if registry != nil {
		ms := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(registry),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			if err := ms.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
			defer scancel()
			return ms.Shutdown(sctx)
		})
		con.Info("Metrics on http://%s/metrics", cfg.MetricsAddr)
	}

	con.Info("Serving %s on port %d with %d workers", cfg.Root, cfg.Port, cfg.PoolSize)
	if err := g.Wait(); err != nil {
		con.Error("%v", err)
		return err
	}

	st := pool.Stats()
	con.Success("Served %d connections (%d rejected)", st.Completed, st.Rejected)
	return nil
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	return mux
}
