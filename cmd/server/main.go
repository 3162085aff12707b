package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/swiftfreight/quote-engine/internal/config"
	"github.com/swiftfreight/quote-engine/internal/db"
	"github.com/swiftfreight/quote-engine/internal/distance"
	"github.com/swiftfreight/quote-engine/internal/extract"
	httpapi "github.com/swiftfreight/quote-engine/internal/http"
	"github.com/swiftfreight/quote-engine/internal/pricing"
	"github.com/swiftfreight/quote-engine/internal/ratelimit"
	"github.com/swiftfreight/quote-engine/internal/review"
	"github.com/swiftfreight/quote-engine/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	zerolog.TimeFieldFormat = time.RFC3339
	level, _ := zerolog.ParseLevel(cfg.LogLevel)
	logger := log.Level(level).With().Str("service", "quote-engine").Logger()

	tariff, err := config.LoadTariff(cfg.TariffPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load tariff")
	}

	ctx := context.Background()
	var store db.QuoteStore
	if cfg.DatabaseURL == "" {
		store = db.NewMemory()
		logger.Info().Msg("using in-memory quote store")
	} else {
		pg, err := db.NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect db")
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			logger.Fatal().Err(err).Msg("failed to ensure schema")
		}
		store = pg
	}
	defer store.Close()

	limiter := ratelimit.New(tariff.RateLimits, ratelimit.BucketConfig{})

	var provider distance.Provider
	if cfg.MapboxAPIKey == "" {
		provider = distance.OfflineProvider{}
		logger.Info().Msg("using offline haversine distance provider")
	} else {
		provider = &distance.MapboxProvider{BaseURL: cfg.MapboxBaseURL, Token: cfg.MapboxAPIKey}
	}

	var extractor extract.Extractor
	if cfg.ExtractorURL == "" {
		extractor = extract.MockExtractor{}
		logger.Info().Msg("using mock shipment extractor")
	} else {
		extractor = extract.LLMExtractor{
			BaseURL: cfg.ExtractorURL,
			Model:   cfg.ExtractorModel,
			APIKey:  cfg.ExtractorKey,
			Limiter: limiter,
		}
	}

	svc := &service.QuoteService{
		Resolver:  distance.NewResolver(provider, limiter, logger),
		Pricer:    pricing.NewEngine(tariff),
		Router:    review.NewRouter(tariff),
		Queue:     review.NewQueue(tariff.QueueCapacity),
		Store:     store,
		Extractor: extractor,
		Logger:    logger,
	}

	router := httpapi.Router(cfg, svc, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: cfg.RequestTimeout,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctxShutdown)
	logger.Info().Msg("server stopped")
}
