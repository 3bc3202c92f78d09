package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/heysubinoy/keyval/internal/api"
	"github.com/heysubinoy/keyval/internal/metrics"
	"github.com/heysubinoy/keyval/internal/session"
	"github.com/heysubinoy/keyval/internal/store"
	"github.com/heysubinoy/keyval/pkg/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "keyval: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.LoadConfig(os.Getenv("KEYVAL_CONFIG"))
	if err != nil {
		return err
	}
	// The single positional argument is the listen port.
	if len(args) > 0 {
		port, err := config.ParsePort(args[0])
		if err != nil {
			return err
		}
		cfg.Port = port
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       "keyval",
		Level:      hclog.LevelFromString(cfg.LogLevel),
		JSONFormat: cfg.LogJSON,
	})

	var (
		reg  *prometheus.Registry
		prom *metrics.Metrics
	)
	if cfg.Metrics {
		reg = prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector())
		prom = metrics.New(reg)
	}

	backing, err := store.Open(cfg.Backend, cfg.DataPath)
	if err != nil {
		return err
	}
	kvStore := store.NewInstrumentedStore(backing, prom)
	defer kvStore.Close()
	logger.Info("store opened", "backend", cfg.Backend, "path", cfg.DataPath)

	counters := session.NewAtomicCounters()
	if reg != nil {
		reg.MustRegister(session.NewCollector(counters))
	}

	srv := api.NewServer(kvStore, counters, logger.Named("http"))
	srv.Metrics = prom

	mux := http.NewServeMux()
	if reg != nil {
		mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	httpAddr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	lis, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", httpAddr, err)
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(mux),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var grpcServer *grpc.Server
	var grpcLis net.Listener
	if cfg.GRPCAddr != "" {
		grpcLis, err = net.Listen("tcp", cfg.GRPCAddr)
		if err != nil {
			lis.Close()
			return fmt.Errorf("failed to listen on %s: %w", cfg.GRPCAddr, err)
		}
		grpcServer = grpc.NewServer()
		api.NewGRPCServer(kvStore, counters, logger.Named("grpc")).Register(grpcServer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("HTTP server listening", "addr", httpAddr)
		if err := httpServer.Serve(lis); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve HTTP: %w", err)
		}
		return nil
	})
	if grpcServer != nil {
		g.Go(func() error {
			logger.Info("gRPC server listening", "addr", cfg.GRPCAddr)
			if err := grpcServer.Serve(grpcLis); err != nil {
				return fmt.Errorf("failed to serve gRPC: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if grpcServer != nil {
			grpcServer.GracefulStop()
		}
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
