package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

type metricsRepository struct {
	db *DB
}

func NewMetricsRepository(db *DB) repository.MetricsRepository {
	return &metricsRepository{db: db}
}

func (r *metricsRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.InventoryMetric, error) {
	query := `
		SELECT m.id, m.user_id, m.product_id, p.name AS product_name,
			m.current_stock, m.daily_avg_sales, m.days_until_sellout,
			m.status, m.computed_at
		FROM inventory_metrics m
		JOIN products p ON m.product_id = p.id
		WHERE m.user_id = $1
		ORDER BY m.days_until_sellout ASC
	`

	var metrics []domain.InventoryMetric
	if err := sqlx.SelectContext(ctx, r.db, &metrics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list inventory metrics: %w", err)
	}

	return metrics, nil
}

func (r *metricsRepository) ListByStatus(ctx context.Context, userID uuid.UUID, status domain.StockStatus) ([]domain.InventoryMetric, error) {
	query := `
		SELECT m.id, m.user_id, m.product_id, p.name AS product_name,
			m.current_stock, m.daily_avg_sales, m.days_until_sellout,
			m.status, m.computed_at
		FROM inventory_metrics m
		JOIN products p ON m.product_id = p.id
		WHERE m.user_id = $1 AND m.status = $2
		ORDER BY m.days_until_sellout ASC
	`

	var metrics []domain.InventoryMetric
	if err := sqlx.SelectContext(ctx, r.db, &metrics, query, userID, status); err != nil {
		return nil, fmt.Errorf("failed to list inventory metrics by status: %w", err)
	}

	return metrics, nil
}

func (r *metricsRepository) StatusSummary(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT status, COUNT(*) AS count
		FROM inventory_metrics
		WHERE user_id = $1
		GROUP BY status
	`

	rows := []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}{}
	if err := sqlx.SelectContext(ctx, r.db, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to summarize metric statuses: %w", err)
	}

	summary := make(map[string]int, len(rows))
	for _, row := range rows {
		summary[row.Status] = row.Count
	}
	return summary, nil
}
