package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
)

type uploadRepository struct {
	db *DB
}

func NewUploadRepository(db *DB) repository.UploadRepository {
	return &uploadRepository{db: db}
}

func (r *uploadRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UploadedFile, error) {
	query := `
		SELECT id, user_id, filename, size_bytes, rows_total, rows_valid,
			rows_cleaned, rows_warning, archive_key, uploaded_at
		FROM uploaded_files
		WHERE user_id = $1
		ORDER BY uploaded_at DESC
	`

	var uploads []domain.UploadedFile
	if err := sqlx.SelectContext(ctx, r.db, &uploads, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list uploads: %w", err)
	}

	return uploads, nil
}
