// Burst catalog server entry point.
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

	"github.com/planetlabs/go-stac"

	"github.com/rkm/s1burst/internal/api"
	"github.com/rkm/s1burst/internal/catalog"
	"github.com/rkm/s1burst/internal/config"
	"github.com/rkm/s1burst/internal/fetch"
	"github.com/rkm/s1burst/internal/metrics"
	"github.com/rkm/s1burst/internal/ranger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := setupLogger(cfg.Logging.Level, cfg.Logging.Format)

	logger.Info("starting burst catalog server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"products", len(cfg.Catalog.ProductURLs),
	)

	collector, err := metrics.NewFetchCollector(nil)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	var creds ranger.CredentialProvider = ranger.Anonymous{}
	if cfg.EDL.Username != "" {
		creds = ranger.StaticCredentials{
			Username: cfg.EDL.Username,
			Password: cfg.EDL.Password,
		}
		logger.Info("using Earthdata Login credentials", "username", cfg.EDL.Username)
	}

	client := ranger.NewClient(cfg.Fetch.Timeout, creds).WithLogger(logger)
	fetcher := fetch.NewFetcher(client).WithLogger(logger).WithMetrics(collector)

	items, err := loadCatalog(cfg, fetcher, logger)
	if err != nil {
		return err
	}

	store := api.NewStore(items)
	logger.Info("catalog ready",
		"items", store.ItemCount(),
		"stacks", len(store.Stacks()),
	)

	handlers := api.NewHandlers(cfg, store, logger)
	router := api.NewRouter(handlers, logger)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("received shutdown signal", "signal", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down server", "timeout", cfg.Server.ShutdownTimeout)
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// loadCatalog addresses every burst of every configured product and
// converts them to STAC items.
func loadCatalog(cfg *config.Config, fetcher *fetch.Fetcher, logger *slog.Logger) ([]*stac.Item, error) {
	var items []*stac.Item
	for _, url := range cfg.Catalog.ProductURLs {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Fetch.Timeout)
		bursts, err := fetcher.LoadBursts(ctx, url)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("failed to catalog %s: %w", url, err)
		}

		converted, err := catalog.Items(bursts)
		if err != nil {
			return nil, fmt.Errorf("failed to catalog %s: %w", url, err)
		}
		items = append(items, converted...)

		logger.Info("cataloged product", "url", url, "bursts", len(converted))
	}
	return items, nil
}

func setupLogger(level, format string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
