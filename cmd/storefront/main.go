// CLAUDE:SUMMARY CLI entry point for the demo storefront: serves the ajax cart over HTTP with graceful shutdown.
// Command storefront serves the demo shop.
//
// Usage:
//
//	storefront -addr :8080
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hazyhaar/pullregion/storefront"
)

func main() {
	addr := flag.String("addr", ":8080", "listen address")
	header := flag.String("header", storefront.DefaultHeader, "request header listing wanted regions")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := storefront.New(storefront.WithLogger(logger), storefront.WithHeader(*header))
	srv := &http.Server{
		Addr:              *addr,
		Handler:           svc.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront: listening", "addr", *addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("storefront: fatal", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	logger.Info("storefront: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("storefront: shutdown", "error", err)
	}
}
