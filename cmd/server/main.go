package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stocksense/backend-go/internal/api"
	"github.com/stocksense/backend-go/internal/cache"
	"github.com/stocksense/backend-go/internal/config"
	"github.com/stocksense/backend-go/internal/forecast"
	"github.com/stocksense/backend-go/internal/insight"
	"github.com/stocksense/backend-go/internal/repository/postgres"
	"github.com/stocksense/backend-go/internal/service"
	"github.com/stocksense/backend-go/internal/storage"
	"github.com/stocksense/backend-go/pkg/logger"
)

func main() {
	cfg := config.Load()

	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	dashboardCache, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Redis unavailable, continuing without dashboard cache")
		dashboardCache = cache.NewNoopDashboardCache()
	}

	var archive storage.ObjectStorage
	if cfg.Storage.Enabled {
		client, err := storage.NewMinioClient(cfg.Storage)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, uploads will not be archived")
		} else {
			archive = client
		}
	}

	ingestRepo := postgres.NewIngestRepository(db)
	productRepo := postgres.NewProductRepository(db)
	salesRepo := postgres.NewSalesRepository(db)
	metricsRepo := postgres.NewMetricsRepository(db)
	forecastRepo := postgres.NewForecastRepository(db)
	uploadRepo := postgres.NewUploadRepository(db)
	insightRepo := postgres.NewInsightRepository(db)

	policy := forecastPolicy(cfg.Forecast)
	ttl := time.Duration(cfg.Forecast.TTLHours) * time.Hour

	ingestService := service.NewIngestService(ingestRepo, productRepo, service.IngestServiceOptions{
		Archive:        archive,
		Cache:          dashboardCache,
		ForecastTTL:    ttl,
		MaxUploadBytes: cfg.App.MaxUploadBytes,
		Policy:         policy,
	})
	dashboardService := service.NewDashboardService(productRepo, salesRepo, metricsRepo, forecastRepo, dashboardCache)
	forecastService := service.NewForecastService(forecastRepo, salesRepo, productRepo, policy, dashboardCache, ttl)

	var insightService *service.InsightService
	if cfg.Insight.OpenAIAPIKey != "" {
		provider, err := insight.NewOpenAIProvider(cfg.Insight)
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Insight provider unavailable, insight routes disabled")
		} else {
			insightService = service.NewInsightService(provider, insightRepo, productRepo, metricsRepo, forecastRepo)
		}
	}

	router := api.NewRouter(&api.Services{
		Ingest:    ingestService,
		Dashboard: dashboardService,
		Forecast:  forecastService,
		Insight:   insightService,
		Uploads:   uploadRepo,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func forecastPolicy(cfg config.ForecastConfig) forecast.Policy {
	policy := forecast.DefaultPolicy()
	if cfg.Decay30 > 0 {
		policy.Decay30 = cfg.Decay30
	}
	if cfg.Decay90 > 0 {
		policy.Decay90 = cfg.Decay90
	}
	if cfg.Decay365 > 0 {
		policy.Decay365 = cfg.Decay365
	}
	return policy
}
