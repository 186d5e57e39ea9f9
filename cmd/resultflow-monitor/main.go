// Package main implements the resultflow monitor daemon. It subscribes to
// live dataset broadcasts on NATS and serves them to WebSocket clients,
// alongside a Prometheus metrics endpoint.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sync/errgroup"

	"github.com/c360/resultflow/metric"
	"github.com/c360/resultflow/monitor"
)

const (
	Version = "0.1.0"
	appName = "resultflow-monitor"
)

func main() {
	if err := run(); err != nil {
		slog.Error("monitor daemon failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cliCfg := parseFlags()
	if err := validateFlags(cliCfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	if cliCfg.ShowVersion {
		fmt.Printf("%s version %s\n", appName, Version)
		return nil
	}

	logger := setupLogger(cliCfg.LogLevel, cliCfg.LogFormat)
	slog.SetDefault(logger)

	cfg, err := LoadConfig(cliCfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cliCfg.Validate {
		slog.Info("configuration is valid")
		return nil
	}

	slog.Info("starting monitor daemon",
		"nats_url", cfg.NATS.URL,
		"listen", cfg.Monitor.Addr,
		"subject", cfg.Monitor.Subject)

	conn, err := nats.Connect(cfg.NATS.URL,
		nats.Timeout(cfg.NATS.Timeout()),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return fmt.Errorf("connect to NATS: %w", err)
	}
	defer conn.Close()

	registry := metric.NewRegistry()

	mon, err := monitor.New(conn, cfg.Monitor,
		monitor.WithLogger(logger),
		monitor.WithMetrics(registry.Metrics),
	)
	if err != nil {
		return fmt.Errorf("create monitor: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return mon.Run(gctx)
	})

	if cfg.MetricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, cfg.MetricsAddr, registry)
		})
	}

	err = g.Wait()
	slog.Info("monitor daemon stopped")
	return err
}

// serveMetrics runs the Prometheus scrape endpoint until the context is
// cancelled.
func serveMetrics(ctx context.Context, addr string, registry *metric.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	server := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Warn("metrics server shutdown error", "error", err)
		}
		return <-errCh
	}
}
