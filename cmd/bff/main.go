// Package main provides the BFF (Backend-for-Frontend) service for Kisan Mandi.
// It serves the static web client and forwards chat and price calls to the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/client"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/config"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/logger"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	envOnly := flag.Bool("env-only", false, "skip the config file and read KM_* environment variables only")
	flag.Parse()

	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	log.Info("bff starting",
		zap.String("backend_url", cfg.BFF.BackendURL),
		zap.String("addr", cfg.BFF.HTTPAddr),
		zap.String("static_dir", cfg.BFF.StaticDir))

	api := client.New(cfg.BFF.BackendURL, cfg.BFF.Timeout)

	// Verify backend connectivity on startup
	if err := waitForBackend(api, 30*time.Second); err != nil {
		log.Warn("backend not reachable, continuing anyway", zap.Error(err))
	} else {
		log.Info("backend health check passed")
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	srv := &http.Server{
		Addr:         cfg.BFF.HTTPAddr,
		Handler:      newRouter(api, cfg.BFF.StaticDir, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	log.Info("shutting down bff")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
	log.Info("bff stopped")
}

// waitForBackend polls the backend health endpoint until it responds or times out
func waitForBackend(api *client.Client, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err := api.Health(ctx)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}

	return fmt.Errorf("backend not available after %v", timeout)
}
