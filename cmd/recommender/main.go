// Command recommender runs the recommendation aggregation service.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sourceblend/recommender/infrastructure/httpapi"
	"github.com/sourceblend/recommender/infrastructure/middleware"
	"github.com/sourceblend/recommender/infrastructure/providers"
	"github.com/sourceblend/recommender/internal/application"
	"github.com/sourceblend/recommender/internal/config"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		errLogger := zerolog.New(os.Stderr)
		errLogger.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger := newLogger(cfg.Logging)

	if err := run(cfg, logger); err != nil {
		logger.Fatal().Err(err).Msg("service terminated")
	}
}

func run(cfg *config.Config, logger zerolog.Logger) error {
	credentials := providers.NewEnvCredentialStore()
	metrics := middleware.NewPrometheusMetrics(nil)

	adapter, err := providers.NewOpenAIAdapter(credentials, nil)
	if err != nil {
		return err
	}

	chain := []providers.Middleware{
		providers.TimeoutMiddleware(cfg.Adapter.Timeout),
	}
	if cfg.Adapter.RateLimitRPS > 0 {
		chain = append(chain, providers.RateLimitMiddleware(rate.Limit(cfg.Adapter.RateLimitRPS), cfg.Adapter.RateLimitBurst))
	}
	chain = append(chain,
		providers.MetricsMiddleware(metrics),
		providers.TracingMiddleware(),
	)

	registry := application.NewRegistry()
	if err := registry.Register(providers.Chain(adapter, chain...)); err != nil {
		return err
	}

	engine, err := application.NewEngine(registry, cfg.Engine.MaxConcurrency)
	if err != nil {
		return err
	}

	api, err := httpapi.NewServer(engine, credentials, logger)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("addr", cfg.Server.Addr).
			Strs("providers", registry.Providers()).
			Msg("listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	logger := zerolog.New(os.Stdout)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}
	return logger.Level(level).With().Timestamp().Str("service", "recommender").Logger()
}
