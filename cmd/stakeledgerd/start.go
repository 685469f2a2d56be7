package main

import (
	"context"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"

	"github.com/blockberries/stakeledger/chain"
	"github.com/blockberries/stakeledger/config"
	stakeledgergrpc "github.com/blockberries/stakeledger/grpc"
	"github.com/blockberries/stakeledger/kv"
	"github.com/blockberries/stakeledger/logging"
	"github.com/blockberries/stakeledger/metrics"
)

const shutdownTimeout = 10 * time.Second

var commandStart = &cli.Command{
	Name:  "start",
	Usage: "open the store and serve the application to consensus",
	Action: func(ctx *cli.Context) error {
		cfg, err := config.Load(configPath(ctx))
		if err != nil {
			return err
		}
		return run(ctx.Context, cfg)
	},
}

func run(parent context.Context, cfg *config.Config) error {
	logger, closer, err := logging.Setup("stakeledgerd", cfg.Log)
	if err != nil {
		return errors.Wrap(err, "logging")
	}
	defer closer.Close()

	store, err := kv.Open(cfg.DataDir, kv.Options{
		CacheSize:              cfg.Store.CacheSizeMB,
		OpenFilesCacheCapacity: cfg.Store.OpenFilesCache,
	})
	if err != nil {
		return errors.Wrapf(err, "open store %s", cfg.DataDir)
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	app, err := chain.New(store, chain.Options{
		Logger:         logger,
		Metrics:        metrics.New(reg),
		Retain:         cfg.Query.Retain,
		SkipInvariants: !cfg.CheckInvariants,
	})
	if err != nil {
		return err
	}

	lis, err := net.Listen("tcp", cfg.GRPCAddress)
	if err != nil {
		return errors.Wrapf(err, "listen %s", cfg.GRPCAddress)
	}
	gs := grpc.NewServer()
	stakeledgergrpc.NewGRPCServer(app).Register(gs)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("serving consensus connection", "addr", lis.Addr().String())
		return gs.Serve(lis)
	})

	var metricsSrv *http.Server
	if cfg.MetricsAddress != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddress, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.MetricsAddress)
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}

	// A halted node stops serving and exits with the halt error.
	g.Go(func() error { return watchHalt(gctx, app) })

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		gs.GracefulStop()
		if metricsSrv != nil {
			sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(sctx)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}

type halter interface {
	Halted() <-chan struct{}
	Err() error
}

// watchHalt returns the application's halt error once it halts, or
// nil when ctx ends first.
func watchHalt(ctx context.Context, h halter) error {
	select {
	case <-ctx.Done():
		return nil
	case <-h.Halted():
		return errors.Wrap(h.Err(), "node halted")
	}
}
