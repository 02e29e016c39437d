package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

type forecastRepository struct {
	db *DB
}

func NewForecastRepository(db *DB) repository.ForecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ForecastRecord, error) {
	query := `
		SELECT f.id, f.user_id, f.product_id, p.name AS product_name,
			f.forecast_7d, f.forecast_30d, f.forecast_90d, f.forecast_365d,
			f.trend_status, f.confidence_score, f.generated_at, f.expires_at
		FROM forecast_records f
		JOIN products p ON f.product_id = p.id
		WHERE f.user_id = $1
		ORDER BY p.name
	`

	var forecasts []domain.ForecastRecord
	if err := sqlx.SelectContext(ctx, r.db, &forecasts, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list forecasts: %w", err)
	}

	return forecasts, nil
}

// ReplaceForUser regenerates the user's forecast set wholesale. Staleness is
// all-or-nothing per user: the delete and inserts share one transaction.
func (r *forecastRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, forecasts []domain.ForecastRecord) error {
	return r.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM forecast_records WHERE user_id = $1`, userID); err != nil {
			return fmt.Errorf("failed to clear forecasts: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO forecast_records (
				user_id, product_id, forecast_7d, forecast_30d, forecast_90d,
				forecast_365d, trend_status, confidence_score, generated_at, expires_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, f := range forecasts {
			if _, err := stmt.ExecContext(ctx,
				userID, f.ProductID, f.Forecast7d, f.Forecast30d, f.Forecast90d,
				f.Forecast365d, f.TrendStatus, f.ConfidenceScore, f.GeneratedAt, f.ExpiresAt,
			); err != nil {
				return fmt.Errorf("failed to insert forecast: %w", err)
			}
		}

		return nil
	})
}

func (r *forecastRepository) ExpiredUsers(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT user_id
		FROM forecast_records
		WHERE expires_at <= $1
	`

	var users []uuid.UUID
	if err := sqlx.SelectContext(ctx, r.db, &users, query, now); err != nil {
		return nil, fmt.Errorf("failed to list users with expired forecasts: %w", err)
	}

	return users, nil
}
