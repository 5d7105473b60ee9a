// Command fanout runs the WebSocket broadcast server: a single publisher
// cadence fanning a synthetic feed out to every connected client, using
// either the naive or the isolated/queued broadcast strategy.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/broadcast"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/config"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/logging"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/metrics"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/ratelimit"
	"github.com/kemalerbakirci/ws-fanout-slow-client-killer/internal/transport"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	_ "go.uber.org/automaxprocs"
)

func main() {
	debug := flag.Bool("debug", false, "enable debug logging (the level is info otherwise)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(!cfg.LogJSON)
	logger.Info().Int("gomaxprocs", runtime.GOMAXPROCS(0)).Msg("starting fanout server")
	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)
	cfg.Print()
	cfg.Log(logger)

	collectors := metrics.NewCollectors()
	latencies := metrics.NewLatencyRing(1000)
	observer := metrics.NewObserver(collectors, latencies)

	engine := broadcast.NewServer(broadcast.NewConfigFromEnv(cfg), logger, observer)

	limiters := ratelimit.NewPerClient(cfg.InboundRate, cfg.InboundBurst)
	wsServer := transport.NewServer(transport.Config{
		PingInterval: time.Duration(cfg.PingInterval * float64(time.Second)),
		PingTimeout:  time.Duration(cfg.PingTimeout * float64(time.Second)),
	}, engine, observer, limiters, logger)

	sampler := metrics.NewResourceSampler(collectors, logger)
	reporter := metrics.NewReporter(engine, observer, logger, cfg.Rate, cfg.LogJSON)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := engine.Run(ctx, nil); err != nil {
			logger.Fatal().Err(err).Msg("publisher failed")
		}
	}()
	go sampler.Run(ctx, cfg.MetricsInterval)
	go reporter.Run(ctx, cfg.MetricsInterval)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsServer.Handler())
	mux.HandleFunc("/health", handleHealth(engine))

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", promhttp.HandlerFor(collectors.Registry, promhttp.HandlerOpts{}))
	metricsMux.HandleFunc("/healthz", handleHealth(engine))
	metricsServer := &http.Server{Addr: cfg.MetricsAddr, Handler: metricsMux}

	// listenErrCh carries a fatal bind/serve failure from either listener
	// back to main so the process exits non-zero instead of idling until
	// a signal arrives (SPEC_FULL.md §6/§7: non-zero exit on startup
	// failure).
	listenErrCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", addr).Msg("websocket listener starting")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErrCh <- fmt.Errorf("websocket listener: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.MetricsAddr).Msg("metrics listener starting")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			listenErrCh <- fmt.Errorf("metrics listener: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutdown signal received")
	case err := <-listenErrCh:
		logger.Error().Err(err).Msg("listener failed to start, shutting down")
		cancel()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
		_ = httpServer.Shutdown(shutdownCtx)
		_ = metricsServer.Shutdown(shutdownCtx)
		shutdownCancel()
		os.Exit(1)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer shutdownCancel()
	_ = httpServer.Shutdown(shutdownCtx)
	_ = metricsServer.Shutdown(shutdownCtx)

	logger.Info().Msg("fanout server stopped")
}

// handleHealth reports liveness plus the current client count, enough
// for a load balancer or operator to tell the process is up and
// actually serving connections.
func handleHealth(engine *broadcast.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"status":"ok","clients":%d,"disconnects_total":%d}`, engine.ClientCount(), engine.DisconnectCount())
	}
}
