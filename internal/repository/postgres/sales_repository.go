package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

type salesRepository struct {
	db *DB
}

func NewSalesRepository(db *DB) repository.SalesRepository {
	return &salesRepository{db: db}
}

func (r *salesRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SalesRecord, error) {
	query := `
		SELECT id, user_id, product_id, date, quantity_sold, unit_price, created_at
		FROM sales_records
		WHERE user_id = $1
		ORDER BY product_id, date
	`

	var records []domain.SalesRecord
	if err := sqlx.SelectContext(ctx, r.db, &records, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sales records: %w", err)
	}

	return records, nil
}

func (r *salesRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM sales_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count sales records: %w", err)
	}
	return count, nil
}
