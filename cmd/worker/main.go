package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/stocksense/backend-go/internal/cache"
	"github.com/stocksense/backend-go/internal/config"
	"github.com/stocksense/backend-go/internal/forecast"
	"github.com/stocksense/backend-go/internal/repository/postgres"
	"github.com/stocksense/backend-go/internal/service"
	"github.com/stocksense/backend-go/pkg/logger"
)

// The worker sweeps for users whose forecast set has passed its TTL and
// regenerates them from the stored sales snapshot.
func main() {
	cfg := config.Load()
	logger.SetLevel(cfg.Server.Mode)

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

	policy := forecast.DefaultPolicy()
	if cfg.Forecast.Decay30 > 0 {
		policy.Decay30 = cfg.Forecast.Decay30
	}
	if cfg.Forecast.Decay90 > 0 {
		policy.Decay90 = cfg.Forecast.Decay90
	}
	if cfg.Forecast.Decay365 > 0 {
		policy.Decay365 = cfg.Forecast.Decay365
	}

	forecastService := service.NewForecastService(
		postgres.NewForecastRepository(db),
		postgres.NewSalesRepository(db),
		postgres.NewProductRepository(db),
		policy,
		dashboardCache,
		time.Duration(cfg.Forecast.TTLHours)*time.Hour,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go serveHealth(cfg.Server.Port)

	interval := time.Duration(cfg.Forecast.WorkerIntervalMins) * time.Minute
	if interval <= 0 {
		interval = 15 * time.Minute
	}

	logger.Log.Info().Dur("interval", interval).Msg("Forecast worker started")
	sweep(ctx, forecastService, cfg.Forecast.WorkerParallelism)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Log.Info().Msg("Forecast worker exiting")
			return
		case <-ticker.C:
			sweep(ctx, forecastService, cfg.Forecast.WorkerParallelism)
		}
	}
}

func sweep(ctx context.Context, svc *service.ForecastService, parallelism int) {
	refreshed, err := svc.RegenerateExpired(ctx, parallelism)
	if err != nil {
		logger.Log.Error().Err(err).Msg("Forecast sweep failed")
		return
	}
	if refreshed > 0 {
		logger.Log.Info().Int("users", refreshed).Msg("Refreshed expired forecasts")
	}
}

// serveHealth exposes a liveness endpoint so the worker can sit behind the
// same deployment health checks as the API.
func serveHealth(port string) {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	addr := fmt.Sprintf(":%s", port)
	if err := http.ListenAndServe(addr, r); err != nil {
		logger.Log.Error().Err(err).Msg("Health endpoint stopped")
		os.Exit(1)
	}
}
