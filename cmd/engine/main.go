package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mohamedkhairy/pineseries/internal/api"
	"github.com/mohamedkhairy/pineseries/internal/catalog"
	"github.com/mohamedkhairy/pineseries/internal/config"
	"github.com/mohamedkhairy/pineseries/internal/engine"
	"github.com/mohamedkhairy/pineseries/internal/feed"
	"github.com/mohamedkhairy/pineseries/internal/stream"
	"github.com/mohamedkhairy/pineseries/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.Environment); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.InitMetrics()

	logger.Info("Starting indicator engine service",
		logger.String("provider", cfg.Feed.Provider),
		logger.Any("symbols", cfg.Engine.Symbols),
		logger.Duration("bar_interval", cfg.Engine.BarInterval),
		logger.Int("api_port", cfg.API.Port),
		logger.Int("stream_port", cfg.Stream.Port),
	)

	// Load the indicator catalog, falling back to the built-in default
	// set when no catalog file is present.
	set, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("No catalog file found, using default indicator set",
				logger.String("path", cfg.Catalog.Path),
			)
			set = catalog.Default()
		} else {
			logger.Fatal("Failed to load indicator catalog",
				logger.ErrorField(err),
				logger.String("path", cfg.Catalog.Path),
			)
		}
	}

	bindings, err := set.Compile()
	if err != nil {
		logger.Fatal("Failed to compile indicator catalog",
			logger.ErrorField(err),
		)
	}
	logger.Info("Indicator catalog compiled",
		logger.String("set", set.Name),
		logger.Int("indicators", len(bindings)),
	)

	// Engine and stream hub
	eng := engine.New(cfg.Engine, bindings)
	hub := stream.NewHub(cfg.Stream, eng)
	hub.Start()
	eng.SetOnSnapshot(hub.Broadcast)

	// Bar aggregation feeds the engine
	aggregator := feed.NewAggregator(cfg.Engine.BarInterval)
	aggregator.SetOnBarUpdate(eng.OnBarUpdate)
	aggregator.SetOnBarFinal(eng.OnBarFinal)

	// Market data provider
	provider, err := feed.New(cfg.Feed)
	if err != nil {
		logger.Fatal("Failed to initialize feed provider",
			logger.ErrorField(err),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := provider.Connect(ctx); err != nil {
		logger.Fatal("Failed to connect feed provider",
			logger.ErrorField(err),
			logger.String("provider", provider.Name()),
		)
	}
	defer provider.Close()

	tickChan, err := provider.Subscribe(ctx, cfg.Engine.Symbols)
	if err != nil {
		logger.Fatal("Failed to subscribe to symbols",
			logger.ErrorField(err),
			logger.Any("symbols", cfg.Engine.Symbols),
		)
	}

	var wg sync.WaitGroup

	// Pump ticks into the aggregator until the feed ends or we shut down.
	wg.Add(1)
	go func() {
		defer wg.Done()
		for tick := range tickChan {
			if err := aggregator.Process(tick); err != nil {
				logger.Warn("Dropping tick",
					logger.ErrorField(err),
					logger.String("symbol", tick.Symbol),
				)
				logger.ErrorsTotal.WithLabelValues("engine", "tick").Inc()
			}
		}
		// A closed tick channel means a finite feed ran out; flush the
		// developing bars so their final state reaches the engine.
		logger.Info("Feed stream ended, flushing live bars")
		aggregator.Flush()
	}()

	// REST API server
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.API.Port),
		Handler:      api.NewServer(eng, provider.IsConnected).Handler(),
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting API server", logger.String("addr", apiServer.Addr))
		if err := apiServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("API server failed", logger.ErrorField(err))
		}
	}()

	// WebSocket stream server
	streamRouter := mux.NewRouter()
	streamRouter.HandleFunc("/ws", hub.ServeWS)
	streamRouter.Handle("/metrics", promhttp.Handler())
	streamServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Stream.Port),
		Handler: streamRouter,
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting stream server", logger.String("addr", streamServer.Addr))
		if err := streamServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Stream server failed", logger.ErrorField(err))
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	logger.Info("Shutting down indicator engine service")

	// Stop the feed first so no new bars arrive while servers drain.
	cancel()
	provider.Close()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
	defer shutdownCancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("API server shutdown failed", logger.ErrorField(err))
	}
	if err := streamServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Stream server shutdown failed", logger.ErrorField(err))
	}

	hub.Stop()
	wg.Wait()

	logger.Info("Indicator engine service stopped")
}
