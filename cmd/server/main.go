package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/liamcoop/chargecast/inference"
	"github.com/liamcoop/chargecast/internal/config"
	"github.com/liamcoop/chargecast/internal/logger"
	"github.com/liamcoop/chargecast/internal/metrics"
	"github.com/liamcoop/chargecast/modelstore"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "error", err)
	}

	if err := logger.Configure(os.Stdout, cfg.LogFormat); err != nil {
		logger.Fatal("invalid log format", "error", err)
	}
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warn("invalid log level", "error", err)
	}
	logger.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logger.Fatal("server failed", "error", err)
	}
	logger.Info("server stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	logger.Info("loading model", "source", cfg.ModelSource, "path", cfg.ModelPath, "name", cfg.ModelName)

	src, closeSource, err := modelstore.OpenSource(ctx, cfg.ModelSource, cfg.ModelPath, cfg.DatabaseURL, cfg.ModelName)
	if err != nil {
		return err
	}
	defer closeSource()

	adapter, err := inference.LoadModelAdapter(ctx, src)
	if err != nil {
		return err
	}
	defer adapter.Close()

	info, _ := adapter.Info()
	logger.Info("model loaded", "id", info.ID, "name", info.Name, "version", info.Version)

	server, err := NewServer(adapter, metrics.New())
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return httpServer.Shutdown(shutdownCtx)
}
