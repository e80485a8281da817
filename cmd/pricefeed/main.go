package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/StrathCole/pricefeed/pkg/config"
	"github.com/StrathCole/pricefeed/pkg/logging"
	"github.com/StrathCole/pricefeed/pkg/metrics"
	"github.com/StrathCole/pricefeed/pkg/server/api"
	"github.com/StrathCole/pricefeed/pkg/server/cache"
	"github.com/StrathCole/pricefeed/pkg/server/feed"
	"github.com/StrathCole/pricefeed/pkg/version"

	// Import sources to register them
	_ "github.com/StrathCole/pricefeed/pkg/server/sources/evm"
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
	once       = flag.Bool("once", false, "Resolve all feeds once, print JSON and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("pricefeed version %s\n", version.Version)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logging
	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)

	if *once {
		os.Exit(runOnce(cfg, logger))
	}

	logger.Info("Starting pricefeed", "version", version.Version, "feeds", len(cfg.Feeds))

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			logger.Info("Starting metrics server", "addr", cfg.Metrics.Addr, "path", cfg.Metrics.Path)
			if err := metrics.ServeHTTP(cfg.Metrics.Addr, cfg.Metrics.Path); err != nil {
				logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- runServer(ctx, cfg, logger)
	}()

	// Wait for shutdown signal or error
	select {
	case sig := <-sigChan:
		logger.Info("Received shutdown signal", "signal", sig.String())
		cancel()
		if err := <-errChan; err != nil {
			logger.Error("Shutdown failed", "error", err)
		}
	case err := <-errChan:
		if err != nil {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}

	logging.Info("Shutdown complete")
}

// runOnce resolves every feed once and prints the results.
func runOnce(cfg *config.Config, logger *logging.Logger) int {
	feeds, err := feed.BuildFeeds(cfg.Feeds, logger)
	if err != nil {
		logger.Error("Failed to build feeds", "error", err)
		return 1
	}
	resolver := feed.NewResolver(feeds, cfg.Server.FetchTimeout.ToDuration(), logger)
	defer resolver.Close()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.FetchTimeout.ToDuration()*time.Duration(len(feeds)+1))
	defer cancel()

	results, resolveErr := resolver.ResolveAll(ctx)
	out := make([]api.PriceResponse, len(results))
	for i, r := range results {
		out[i] = api.NewPriceResponse(r)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		logger.Error("Failed to write results", "error", err)
		return 1
	}
	if resolveErr != nil {
		logger.Error("Some feeds failed to resolve", "error", resolveErr)
		return 1
	}
	return 0
}

func newStore(ctx context.Context, cfg config.StoreConfig, logger *logging.Logger) (feed.Store, error) {
	if cfg.Type != config.StoreRedis {
		return feed.NewMemoryStore(), nil
	}
	store, err := cache.NewRedisStore(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	logger.Info("Connected to redis store", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.TTL.ToDuration().String())
	return store, nil
}

func runServer(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	feeds, err := feed.BuildFeeds(cfg.Feeds, logger)
	if err != nil {
		return fmt.Errorf("failed to build feeds: %w", err)
	}
	resolver := feed.NewResolver(feeds, cfg.Server.FetchTimeout.ToDuration(), logger)
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Warn("Failed to close sources", "error", err)
		}
	}()

	store, err := newStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	poller := feed.NewPoller(resolver, store, cfg.Server.PollInterval.ToDuration(), logger)
	server := api.NewServer(cfg.Server.HTTP.Addr, store, logger)

	var wsServer *api.WebSocketServer
	if cfg.Server.WebSocket.Enabled {
		wsServer = api.NewWebSocketServer(cfg.Server.WebSocket.Addr, store, logger)
		poller.Subscribe(wsServer.Publish)
	}

	errChan := make(chan error, 3)
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errChan <- fmt.Errorf("poller: %w", err)
		}
	}()
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()
	if wsServer != nil {
		go func() {
			if err := wsServer.Start(); err != nil {
				errChan <- fmt.Errorf("WebSocket server error: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errChan:
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logger.Warn("Failed to stop HTTP server", "error", err)
	}
	if wsServer != nil {
		if err := wsServer.Stop(shutdownCtx); err != nil {
			logger.Warn("Failed to stop WebSocket server", "error", err)
		}
	}
	return runErr
}
