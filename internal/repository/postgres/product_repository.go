package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

type productRepository struct {
	db *DB
}

func NewProductRepository(db *DB) repository.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) List(ctx context.Context, userID uuid.UUID) ([]domain.Product, error) {
	query := `
		SELECT id, user_id, name, sku, category, supplier, cost_price,
			current_price, current_stock, min_stock_level, max_stock_level,
			reorder_quantity, created_at, updated_at
		FROM products
		WHERE user_id = $1
		ORDER BY name
	`

	var products []domain.Product
	if err := sqlx.SelectContext(ctx, r.db, &products, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (r *productRepository) Count(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM products WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return count, nil
}

// UpsertBulk applies the strict bulk product format: every row carries the
// full commercial and stocking attributes, keyed by (user_id, name).
func (r *productRepository) UpsertBulk(ctx context.Context, userID uuid.UUID, products []domain.Product) (int, error) {
	query := `
		INSERT INTO products (
			user_id, name, sku, category, supplier, cost_price, current_price,
			current_stock, min_stock_level, max_stock_level, reorder_quantity,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (user_id, name) DO UPDATE SET
			sku = EXCLUDED.sku,
			category = EXCLUDED.category,
			supplier = EXCLUDED.supplier,
			cost_price = EXCLUDED.cost_price,
			current_price = EXCLUDED.current_price,
			current_stock = EXCLUDED.current_stock,
			min_stock_level = EXCLUDED.min_stock_level,
			max_stock_level = EXCLUDED.max_stock_level,
			reorder_quantity = EXCLUDED.reorder_quantity,
			updated_at = NOW()
	`

	var applied int
	err := r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range products {
			if _, err := stmt.ExecContext(ctx,
				userID, p.Name, p.SKU, p.Category, p.Supplier, p.CostPrice,
				p.CurrentPrice, p.CurrentStock, p.MinStockLevel, p.MaxStockLevel,
				p.ReorderQuantity,
			); err != nil {
				return fmt.Errorf("failed to upsert product %q: %w", p.Name, err)
			}
			applied++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return applied, nil
}
