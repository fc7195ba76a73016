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

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/adapters/llm"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/adapters/redis"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/adapters/rest"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/adapters/sqlite"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/config"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/chatbot"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/services"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/format"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/logger"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/worker"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to YAML config")
	envOnly := flag.Bool("env-only", false, "skip the config file and read KM_* environment variables only")
	flag.Parse()

	// 1. Configuration
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

	if err := run(cfg, log); err != nil {
		log.Fatal("api stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Driven adapters
	if cfg.Storage.Driver != "sqlite" {
		return fmt.Errorf("unknown storage driver: %s", cfg.Storage.Driver)
	}
	store, err := sqlite.NewAdapter(cfg.Storage.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer store.Close()

	seed, err := cfg.PriceRows()
	if err != nil {
		return err
	}
	catalog, err := services.LoadCatalog(ctx, store, store, seed)
	if err != nil {
		return err
	}
	log.Info("price table loaded", zap.Int("commodities", catalog.Table().Len()))

	crops, err := cfg.CropRows()
	if err != nil {
		return err
	}
	marketplace := services.NewMarketplace(store)
	if err := marketplace.Seed(ctx, crops); err != nil {
		return err
	}

	var advisor ports.Advisor
	if cfg.Advisor.Enabled {
		if cfg.Advisor.APIKey == "" {
			log.Warn("advisor enabled without an API key")
		}
		advisor = llm.NewClient(llm.Config{
			BaseURL:      cfg.Advisor.BaseURL,
			APIKey:       cfg.Advisor.APIKey,
			Model:        cfg.Advisor.Model,
			Timeout:      cfg.Advisor.Timeout,
			MaxRetries:   cfg.Advisor.MaxRetries,
			RetryBackoff: cfg.Advisor.RetryBackoff,
			Temperature:  cfg.Advisor.Temperature,
			MaxTokens:    cfg.Advisor.MaxTokens,
		}, log.Named("llm"))
		log.Info("advisor enabled", zap.String("model", cfg.Advisor.Model))
	}

	// 3. Core logic
	dates, err := format.NewLocaleDate(cfg.Chat.Locale)
	if err != nil {
		return fmt.Errorf("invalid chat locale: %w", err)
	}
	log.Info("chat locale", zap.String("locale", dates.Locale()))
	opts := []chatbot.Option{
		chatbot.WithDateFormatter(dates),
		chatbot.WithCurrencySymbol(cfg.Chat.CurrencySymbol),
		chatbot.WithMatcher(chatbot.MatcherByName(cfg.Chat.Matcher)),
	}
	responder := chatbot.NewResponder(catalog.Table(), opts...)

	pool := worker.NewPool(store, cfg.Worker.QueueSize, log.Named("worker"))
	pool.Start(cfg.Worker.Workers)
	defer pool.Stop()

	chat := services.NewChat(responder, advisor, pool, log.Named("chat"))

	// 4. Driving adapter
	handlerOpts := []rest.Option{
		rest.WithCurrencySymbol(cfg.Chat.CurrencySymbol),
		rest.WithAllowedOrigins(cfg.Server.AllowedOrigins),
		rest.WithReadiness(store.Ping),
		rest.WithMarketplace(marketplace),
	}
	if cfg.RateLimit.Enabled {
		limiter, err := redis.New(ctx, redis.ClientConfig{
			Addr:     cfg.RateLimit.Addr,
			Password: cfg.RateLimit.Password,
			DB:       cfg.RateLimit.DB,
		})
		if err != nil {
			log.Warn("rate limiting disabled", zap.Error(err))
		} else {
			defer limiter.Close()
			handlerOpts = append(handlerOpts, rest.WithRateLimiter(limiter, cfg.RateLimit.Limit, cfg.RateLimit.Window))
		}
	}

	if strings.EqualFold(cfg.App.Env, "dev") {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	handler := rest.NewHandler(chat, catalog, log.Named("http"), handlerOpts...)

	// 5. Server
	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("api listening", zap.String("addr", cfg.Server.HTTPAddr))
		err := srv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown error", zap.Error(err))
		}
	}
	return nil
}
