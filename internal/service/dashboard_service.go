package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/cache"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

// DashboardService assembles the per-user dashboard summary, cached behind
// redis when available.
type DashboardService struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	metrics  repository.MetricsRepository
	casts    repository.ForecastRepository
	cache    cache.DashboardCache
}

func NewDashboardService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	metrics repository.MetricsRepository,
	casts repository.ForecastRepository,
	c cache.DashboardCache,
) *DashboardService {
	if c == nil {
		c = cache.NewNoopDashboardCache()
	}
	return &DashboardService{
		products: products,
		sales:    sales,
		metrics:  metrics,
		casts:    casts,
		cache:    c,
	}
}

// Summary returns the aggregated dashboard view. Cache failures fall through
// to the database.
func (s *DashboardService) Summary(ctx context.Context, userID uuid.UUID) (*domain.DashboardSummary, error) {
	if summary, ok, err := s.cache.Get(ctx, userID); err == nil && ok {
		return summary, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("dashboard: cache get failed")
	}

	summary, err := s.buildSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, userID, summary); err != nil {
		log.Warn().Err(err).Msg("dashboard: cache set failed")
	}

	return summary, nil
}

// Metrics returns the derived inventory metrics, optionally filtered by stock
// status.
func (s *DashboardService) Metrics(ctx context.Context, userID uuid.UUID, status domain.StockStatus) ([]domain.InventoryMetric, error) {
	if status == "" {
		return s.metrics.ListByUser(ctx, userID)
	}
	return s.metrics.ListByStatus(ctx, userID, status)
}

// Products lists the user's product catalog.
func (s *DashboardService) Products(ctx context.Context, userID uuid.UUID) ([]domain.Product, error) {
	return s.products.List(ctx, userID)
}

func (s *DashboardService) buildSummary(ctx context.Context, userID uuid.UUID) (*domain.DashboardSummary, error) {
	productCount, err := s.products.Count(ctx, userID)
	if err != nil {
		return nil, err
	}

	salesCount, err := s.sales.Count(ctx, userID)
	if err != nil {
		return nil, err
	}

	statusCounts, err := s.metrics.StatusSummary(ctx, userID)
	if err != nil {
		return nil, err
	}

	critical, err := s.metrics.ListByStatus(ctx, userID, domain.StockCritical)
	if err != nil {
		return nil, err
	}

	forecasts, err := s.casts.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &domain.DashboardSummary{
		TotalProducts:     productCount,
		TotalSalesRecords: salesCount,
		StatusCounts:      statusCounts,
		CriticalProducts:  critical,
		Forecasts:         forecasts,
		GeneratedAt:       time.Now(),
	}, nil
}
