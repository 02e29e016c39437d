package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/repository"
)

type ingestRepository struct {
	db *DB
}

func NewIngestRepository(db *DB) repository.IngestRepository {
	return &ingestRepository{db: db}
}

// ApplyUpload upserts products by (user_id, name) and replaces the user's
// sales, metric, and forecast sets inside one transaction. Two uploads
// racing for the same user serialize at the database instead of interleaving
// deletes and inserts.
func (r *ingestRepository) ApplyUpload(ctx context.Context, batch repository.UploadBatch) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		productIDs := make(map[string]int64, len(batch.Items))
		for _, item := range batch.Items {
			id, err := upsertProduct(ctx, tx, batch.UserID, item)
			if err != nil {
				return fmt.Errorf("failed to upsert product %q: %w", item.Product.Name, err)
			}
			productIDs[item.Product.Name] = id
		}

		for _, table := range []string{"sales_records", "inventory_metrics", "forecast_records"} {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", table), batch.UserID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for _, item := range batch.Items {
			productID := productIDs[item.Product.Name]

			for _, sale := range item.Sales {
				if err := insertSale(ctx, tx, batch.UserID, productID, sale.Date, sale.QuantitySold, sale.UnitPrice); err != nil {
					return fmt.Errorf("failed to insert sales record: %w", err)
				}
			}

			if item.Metric != nil {
				if err := insertMetric(ctx, tx, batch.UserID, productID, item); err != nil {
					return fmt.Errorf("failed to insert inventory metric: %w", err)
				}
			}

			if item.Forecast != nil {
				if err := insertForecast(ctx, tx, batch.UserID, productID, item); err != nil {
					return fmt.Errorf("failed to insert forecast: %w", err)
				}
			}
		}

		if err := insertUpload(ctx, tx, batch); err != nil {
			return fmt.Errorf("failed to record upload: %w", err)
		}

		return nil
	})
}

// ResetUserData removes every row belonging to the user. This is the only
// hard delete of products.
func (r *ingestRepository) ResetUserData(ctx context.Context, userID uuid.UUID) error {
	tables := []string{
		"insights",
		"forecast_records",
		"inventory_metrics",
		"sales_records",
		"uploaded_files",
		"products",
	}

	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		for _, table := range tables {
			if _, err := tx.ExecContext(ctx,
				fmt.Sprintf("DELETE FROM %s WHERE user_id = $1", table), userID); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}
		return nil
	})
}

func upsertProduct(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, item repository.ProductBatch) (int64, error) {
	p := item.Product

	// Keep an existing category/supplier; only fill the placeholder when the
	// stored value is blank. Prices update only when the upload carries one.
	query := `
		INSERT INTO products (
			user_id, name, sku, category, supplier, cost_price, current_price,
			current_stock, min_stock_level, max_stock_level, reorder_quantity,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, NOW(), NOW())
		ON CONFLICT (user_id, name) DO UPDATE SET
			sku = CASE WHEN EXCLUDED.sku <> '' THEN EXCLUDED.sku ELSE products.sku END,
			category = CASE WHEN products.category = '' THEN EXCLUDED.category ELSE products.category END,
			supplier = CASE WHEN products.supplier = '' THEN EXCLUDED.supplier ELSE products.supplier END,
			cost_price = CASE WHEN EXCLUDED.cost_price > 0 THEN EXCLUDED.cost_price ELSE products.cost_price END,
			current_price = CASE WHEN EXCLUDED.current_price > 0 THEN EXCLUDED.current_price ELSE products.current_price END,
			current_stock = CASE WHEN EXCLUDED.current_stock > 0 THEN EXCLUDED.current_stock ELSE products.current_stock END,
			updated_at = NOW()
		RETURNING id
	`

	var id int64
	err := tx.QueryRowContext(ctx, query,
		userID, p.Name, p.SKU, p.Category, p.Supplier, p.CostPrice, p.CurrentPrice,
		p.CurrentStock, p.MinStockLevel, p.MaxStockLevel, p.ReorderQuantity,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func insertSale(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, productID int64, date time.Time, quantity int, unitPrice float64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO sales_records (user_id, product_id, date, quantity_sold, unit_price, created_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
	`, userID, productID, date, quantity, unitPrice)
	return err
}

func insertMetric(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, productID int64, item repository.ProductBatch) error {
	m := item.Metric
	_, err := tx.ExecContext(ctx, `
		INSERT INTO inventory_metrics (
			user_id, product_id, current_stock, daily_avg_sales,
			days_until_sellout, status, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, NOW())
	`, userID, productID, m.CurrentStock, m.DailyAvgSales, m.DaysUntilSellout, m.Status)
	return err
}

func insertForecast(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, productID int64, item repository.ProductBatch) error {
	f := item.Forecast
	_, err := tx.ExecContext(ctx, `
		INSERT INTO forecast_records (
			user_id, product_id, forecast_7d, forecast_30d, forecast_90d,
			forecast_365d, trend_status, confidence_score, generated_at, expires_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, userID, productID, f.Forecast7d, f.Forecast30d, f.Forecast90d, f.Forecast365d,
		f.TrendStatus, f.ConfidenceScore, f.GeneratedAt, f.ExpiresAt)
	return err
}

func insertUpload(ctx context.Context, tx *sqlx.Tx, batch repository.UploadBatch) error {
	u := batch.Upload
	_, err := tx.ExecContext(ctx, `
		INSERT INTO uploaded_files (
			user_id, filename, size_bytes, rows_total, rows_valid,
			rows_cleaned, rows_warning, archive_key, uploaded_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())
	`, batch.UserID, u.Filename, u.SizeBytes, u.RowsTotal, u.RowsValid,
		u.RowsCleaned, u.RowsWarning, u.ArchiveKey)
	return err
}
