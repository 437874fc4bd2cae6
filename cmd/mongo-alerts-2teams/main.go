package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/findelabs/mongo-alerts-2teams/internal/api"
	"github.com/findelabs/mongo-alerts-2teams/internal/config"
	"github.com/findelabs/mongo-alerts-2teams/internal/deliver"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the channel config file")
	port := flag.Int("port", 8000, "port to listen on")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("mongo-alerts-2teams starting", "config", *configPath, "port", *port)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded", "channels", cfg.Names())

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// The channel map never reloads; the watcher only tells operators the
	// file on disk has drifted from the running process.
	go func() {
		if err := config.Watch(ctx, *configPath); err != nil {
			slog.Error("config watcher stopped", "err", err)
		}
	}()

	handler := api.New(cfg, deliver.New())

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", *port),
		Handler: api.LogRequests(handler),
	}
	go func() {
		slog.Info("HTTP server listening", "port", *port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("HTTP server stopped", "err", err)
		}
	}()

	<-ctx.Done()
	slog.Info("mongo-alerts-2teams shutting down")
	srv.Shutdown(context.Background()) //nolint:errcheck
}
