package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wadjakorntonsri/shortlink/pkg/app"
	"github.com/wadjakorntonsri/shortlink/pkg/config"
	"github.com/wadjakorntonsri/shortlink/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	if err := logger.Initialize(logger.Config(cfg.Log)); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	log := logger.Get()
	log.Info("Starting shortlink service",
		"port", cfg.Port,
		"env", cfg.AppEnv,
		"log_level", cfg.Log.Level,
	)

	application, err := app.New(context.Background(), cfg)
	if err != nil {
		log.Error("Failed to initialize application", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      application.Handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	go func() {
		log.Info("Server listening", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	gracefulShutdown(srv, cfg.ShutdownTimeout, application, log)
}

func gracefulShutdown(srv *http.Server, timeout time.Duration, application *app.App, log *slog.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	sig := <-quit
	log.Info("Shutdown signal received", "signal", sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Forced shutdown", "error", err)
	}

	if err := application.Close(); err != nil {
		log.Error("Error closing storage", "error", err)
	}

	log.Info("Graceful shutdown completed")
}
