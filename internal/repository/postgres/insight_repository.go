package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

type insightRepository struct {
	db *DB
}

func NewInsightRepository(db *DB) repository.InsightRepository {
	return &insightRepository{db: db}
}

func (r *insightRepository) Insert(ctx context.Context, insight *domain.Insight) error {
	query := `
		INSERT INTO insights (
			user_id, kind, product_name, narrative, data_available, generated_at
		) VALUES ($1, $2, $3, $4, $5, NOW())
		RETURNING id, generated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		insight.UserID, insight.Kind, insight.ProductName,
		insight.Narrative, insight.DataAvailable,
	).Scan(&insight.ID, &insight.GeneratedAt)
	if err != nil {
		return fmt.Errorf("failed to insert insight: %w", err)
	}
	return nil
}

func (r *insightRepository) ListByUser(ctx context.Context, userID uuid.UUID, kind string) ([]domain.Insight, error) {
	query := `
		SELECT id, user_id, kind, product_name, narrative, data_available, generated_at
		FROM insights
		WHERE user_id = $1 AND ($2 = '' OR kind = $2)
		ORDER BY generated_at DESC
	`

	var insights []domain.Insight
	if err := sqlx.SelectContext(ctx, r.db, &insights, query, userID, kind); err != nil {
		return nil, fmt.Errorf("failed to list insights: %w", err)
	}

	return insights, nil
}
