package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/cache"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/forecast"
	"github.com/stocksense/backend-go/internal/repository"
	"golang.org/x/sync/errgroup"
)

// ForecastService serves stored forecasts and regenerates expired sets from
// the persisted sales snapshot.
type ForecastService struct {
	forecasts repository.ForecastRepository
	sales     repository.SalesRepository
	products  repository.ProductRepository
	calc      *forecast.Calculator
	cache     cache.DashboardCache
	ttl       time.Duration
}

func NewForecastService(
	forecasts repository.ForecastRepository,
	sales repository.SalesRepository,
	products repository.ProductRepository,
	policy forecast.Policy,
	c cache.DashboardCache,
	ttl time.Duration,
) *ForecastService {
	if c == nil {
		c = cache.NewNoopDashboardCache()
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ForecastService{
		forecasts: forecasts,
		sales:     sales,
		products:  products,
		calc:      forecast.NewCalculator(policy),
		cache:     c,
		ttl:       ttl,
	}
}

// ListByUser returns the stored forecast set. An expired record is still
// returned; freshness is the worker's concern, staleness is visible via
// expires_at.
func (s *ForecastService) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ForecastRecord, error) {
	return s.forecasts.ListByUser(ctx, userID)
}

// Regenerate recomputes the user's whole forecast set from the current sales
// snapshot and swaps it in transactionally.
func (s *ForecastService) Regenerate(ctx context.Context, userID uuid.UUID) ([]domain.ForecastRecord, error) {
	products, err := s.products.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	sales, err := s.sales.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	salesByProduct := make(map[int64][]domain.SalesRecord)
	for _, sale := range sales {
		salesByProduct[sale.ProductID] = append(salesByProduct[sale.ProductID], sale)
	}

	now := time.Now()
	fresh := make([]domain.ForecastRecord, 0, len(products))
	for _, p := range products {
		history := salesByProduct[p.ID]
		if len(history) == 0 {
			continue
		}

		horizons := s.calc.Forecast(history)
		fresh = append(fresh, domain.ForecastRecord{
			UserID:          userID,
			ProductID:       p.ID,
			ProductName:     p.Name,
			Forecast7d:      horizons.Forecast7d,
			Forecast30d:     horizons.Forecast30d,
			Forecast90d:     horizons.Forecast90d,
			Forecast365d:    horizons.Forecast365d,
			TrendStatus:     horizons.TrendStatus,
			ConfidenceScore: horizons.ConfidenceScore,
			GeneratedAt:     now,
			ExpiresAt:       now.Add(s.ttl),
		})
	}

	if err := s.forecasts.ReplaceForUser(ctx, userID, fresh); err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("forecast: cache invalidation failed")
	}

	return fresh, nil
}

// RegenerateExpired refreshes every user whose forecast set has passed its
// TTL, with bounded parallelism. One failed user does not abort the sweep.
func (s *ForecastService) RegenerateExpired(ctx context.Context, parallelism int) (int, error) {
	if parallelism <= 0 {
		parallelism = 1
	}

	users, err := s.forecasts.ExpiredUsers(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if len(users) == 0 {
		return 0, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)

	for _, userID := range users {
		g.Go(func() error {
			if _, err := s.Regenerate(gctx, userID); err != nil {
				log.Error().Err(err).Str("user_id", userID.String()).Msg("forecast: regeneration failed")
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(users), nil
}
