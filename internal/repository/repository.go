package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend-go/internal/domain"
)

// ProductBatch groups one product with everything derived from it in a
// single upload. Product IDs are resolved inside the repository during the
// upsert, so Sales/Metric/Forecast entries carry no product_id yet.
type ProductBatch struct {
	Product  domain.Product
	Sales    []domain.SalesRecord
	Metric   *domain.InventoryMetric
	Forecast *domain.ForecastRecord
}

// UploadBatch is the full write set of one processed upload for one user.
type UploadBatch struct {
	UserID uuid.UUID
	Upload domain.UploadedFile
	Items  []ProductBatch
}

// IngestRepository applies the replace-style writes of the ingestion flow.
// ApplyUpload runs in a single transaction: products are upserted by
// (user_id, name), then the user's sales, metric, and forecast sets are
// replaced wholesale. Either everything lands or nothing does.
type IngestRepository interface {
	ApplyUpload(ctx context.Context, batch UploadBatch) error
	ResetUserData(ctx context.Context, userID uuid.UUID) error
}

// ProductRepository reads and bulk-writes the product catalog.
type ProductRepository interface {
	List(ctx context.Context, userID uuid.UUID) ([]domain.Product, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
	UpsertBulk(ctx context.Context, userID uuid.UUID, products []domain.Product) (int, error)
}

// SalesRepository reads the sales snapshot.
type SalesRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.SalesRecord, error)
	Count(ctx context.Context, userID uuid.UUID) (int, error)
}

// MetricsRepository reads and replaces the derived inventory metrics.
type MetricsRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.InventoryMetric, error)
	ListByStatus(ctx context.Context, userID uuid.UUID, status domain.StockStatus) ([]domain.InventoryMetric, error)
	StatusSummary(ctx context.Context, userID uuid.UUID) (map[string]int, error)
}

// ForecastRepository reads and regenerates the forecast sets.
type ForecastRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.ForecastRecord, error)
	// ReplaceForUser deletes the user's forecasts and inserts the fresh set
	// in one transaction.
	ReplaceForUser(ctx context.Context, userID uuid.UUID, forecasts []domain.ForecastRecord) error
	// ExpiredUsers returns the users whose forecast set has passed its TTL
	// as of now.
	ExpiredUsers(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// UploadRepository reads the upload history ledger.
type UploadRepository interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.UploadedFile, error)
}

// InsightRepository stores generated insight narratives.
type InsightRepository interface {
	Insert(ctx context.Context, insight *domain.Insight) error
	ListByUser(ctx context.Context, userID uuid.UUID, kind string) ([]domain.Insight, error)
}
