package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/insight"
	"github.com/stocksense/backend-go/internal/repository"
)

// ErrNoProducts is returned when an insight is requested before any data has
// been ingested for the user.
var ErrNoProducts = fmt.Errorf("no products available for insight generation")

// InsightService gathers product context, calls the external text generator,
// and stores the resulting narrative. Narratives carry no computed numbers:
// DataAvailable stays false until a numeric analysis pipeline exists.
type InsightService struct {
	provider insight.TextInsightProvider
	insights repository.InsightRepository
	products repository.ProductRepository
	metrics  repository.MetricsRepository
	casts    repository.ForecastRepository
}

func NewInsightService(
	provider insight.TextInsightProvider,
	insights repository.InsightRepository,
	products repository.ProductRepository,
	metrics repository.MetricsRepository,
	casts repository.ForecastRepository,
) *InsightService {
	return &InsightService{
		provider: provider,
		insights: insights,
		products: products,
		metrics:  metrics,
		casts:    casts,
	}
}

// Generate produces and stores one insight of the given kind. productName
// narrows the context to a single product when non-empty.
func (s *InsightService) Generate(ctx context.Context, userID uuid.UUID, kind, productName string) (*domain.Insight, error) {
	if !domain.ValidInsightKind(kind) {
		return nil, fmt.Errorf("unsupported insight kind %q", kind)
	}
	if s.provider == nil {
		return nil, fmt.Errorf("insight provider is not configured: %w", insight.ErrRemote)
	}

	ic, err := s.buildContext(ctx, userID, kind, productName)
	if err != nil {
		return nil, err
	}

	narrative, err := s.provider.Generate(ctx, ic)
	if err != nil {
		return nil, err
	}

	record := &domain.Insight{
		UserID:      userID,
		Kind:        kind,
		ProductName: productName,
		Narrative:   narrative,
		// The narrative is free text from an external model; nothing numeric
		// in it was computed here.
		DataAvailable: false,
	}
	if err := s.insights.Insert(ctx, record); err != nil {
		return nil, err
	}

	return record, nil
}

// ListByUser returns stored insights, optionally filtered by kind.
func (s *InsightService) ListByUser(ctx context.Context, userID uuid.UUID, kind string) ([]domain.Insight, error) {
	if kind != "" && !domain.ValidInsightKind(kind) {
		return nil, fmt.Errorf("unsupported insight kind %q", kind)
	}
	return s.insights.ListByUser(ctx, userID, kind)
}

func (s *InsightService) buildContext(ctx context.Context, userID uuid.UUID, kind, productName string) (insight.Context, error) {
	products, err := s.products.List(ctx, userID)
	if err != nil {
		return insight.Context{}, err
	}

	metrics, err := s.metrics.ListByUser(ctx, userID)
	if err != nil {
		return insight.Context{}, err
	}

	forecasts, err := s.casts.ListByUser(ctx, userID)
	if err != nil {
		return insight.Context{}, err
	}

	if productName != "" {
		products = filterProducts(products, productName)
		metrics = filterMetrics(metrics, productName)
		forecasts = filterForecasts(forecasts, productName)
	}
	if len(products) == 0 {
		return insight.Context{}, ErrNoProducts
	}

	return insight.Context{
		Kind:      kind,
		Products:  products,
		Metrics:   metrics,
		Forecasts: forecasts,
	}, nil
}

func filterProducts(in []domain.Product, name string) []domain.Product {
	out := in[:0:0]
	for _, p := range in {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}

func filterMetrics(in []domain.InventoryMetric, name string) []domain.InventoryMetric {
	out := in[:0:0]
	for _, m := range in {
		if m.ProductName == name {
			out = append(out, m)
		}
	}
	return out
}

func filterForecasts(in []domain.ForecastRecord, name string) []domain.ForecastRecord {
	out := in[:0:0]
	for _, f := range in {
		if f.ProductName == name {
			out = append(out, f)
		}
	}
	return out
}
