package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/cache"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/forecast"
	"github.com/stocksense/backend-go/internal/ingest"
	"github.com/stocksense/backend-go/internal/repository"
	"github.com/stocksense/backend-go/internal/storage"
)

// Placeholder values for product attributes a sales upload cannot supply.
const (
	placeholderCategory = "Uncategorized"
	placeholderSupplier = "Unknown Supplier"
)

// IngestService runs the upload pipeline: validate, clean, compute derived
// metrics, and persist everything for one user in one transactional batch.
type IngestService struct {
	repo     repository.IngestRepository
	products repository.ProductRepository
	cleaner  *ingest.Cleaner
	calc     *forecast.Calculator
	archive  storage.ObjectStorage
	cache    cache.DashboardCache
	ttl      time.Duration
	maxBytes int64
}

type IngestServiceOptions struct {
	Archive        storage.ObjectStorage // nil disables archiving
	Cache          cache.DashboardCache
	ForecastTTL    time.Duration
	MaxUploadBytes int64
	Policy         forecast.Policy
}

func NewIngestService(repo repository.IngestRepository, products repository.ProductRepository, opts IngestServiceOptions) *IngestService {
	if opts.Cache == nil {
		opts.Cache = cache.NewNoopDashboardCache()
	}
	if opts.ForecastTTL <= 0 {
		opts.ForecastTTL = 24 * time.Hour
	}
	return &IngestService{
		repo:     repo,
		products: products,
		cleaner:  ingest.NewCleaner(),
		calc:     forecast.NewCalculator(opts.Policy),
		archive:  opts.Archive,
		cache:    opts.Cache,
		ttl:      opts.ForecastTTL,
		maxBytes: opts.MaxUploadBytes,
	}
}

// CleanFile runs only the pure cleaning step, for preview/export without
// persistence.
func (s *IngestService) CleanFile(r io.Reader) ([]ingest.CleanedRow, error) {
	return s.cleaner.Clean(r)
}

// ProcessUpload ingests one sales file for one user. Rows with zero quantity
// or price are kept in the cleaned output but excluded from the persisted
// sales snapshot. Any persistence failure rolls the whole batch back.
func (s *IngestService) ProcessUpload(ctx context.Context, userID uuid.UUID, filename string, size int64, r io.Reader) (*domain.IngestResult, []ingest.CleanedRow, error) {
	if err := ingest.ValidateFile(filename, size, s.maxBytes); err != nil {
		return nil, nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read upload: %w", err)
	}

	// The original bytes are archived; XLSX is converted only for cleaning.
	csvData := raw
	if strings.EqualFold(filepath.Ext(filename), ".xlsx") {
		csvData, err = ingest.XLSXToCSVBytes(raw)
		if err != nil {
			return nil, nil, err
		}
	}

	rows, err := s.cleaner.Clean(bytes.NewReader(csvData))
	if err != nil {
		return nil, nil, err
	}

	// Stock lives on the stored product rows (a bulk product upload sets it);
	// the sales file itself carries no stock column.
	existing, err := s.products.List(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load products: %w", err)
	}
	stock := make(map[string]int, len(existing))
	for _, p := range existing {
		stock[p.Name] = p.CurrentStock
	}

	batch := s.buildBatch(userID, filename, int64(len(raw)), rows, stock)
	batch.Upload.ArchiveKey = s.archiveUpload(ctx, userID, filename, raw)

	if err := s.repo.ApplyUpload(ctx, batch); err != nil {
		return nil, nil, err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("ingest: cache invalidation failed")
	}

	result := &domain.IngestResult{
		Filename:     filename,
		RowsTotal:    batch.Upload.RowsTotal,
		RowsValid:    batch.Upload.RowsValid,
		RowsCleaned:  batch.Upload.RowsCleaned,
		RowsWarning:  batch.Upload.RowsWarning,
		ProductCount: len(batch.Items),
		ProcessedAt:  time.Now(),
	}
	return result, rows, nil
}

// BulkUpsertProducts applies the strict bulk product format.
func (s *IngestService) BulkUpsertProducts(ctx context.Context, userID uuid.UUID, r io.Reader) (int, error) {
	products, err := ingest.ParseBulkProducts(r)
	if err != nil {
		return 0, err
	}

	applied, err := s.products.UpsertBulk(ctx, userID, products)
	if err != nil {
		return 0, err
	}

	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("ingest: cache invalidation failed")
	}

	return applied, nil
}

// ResetUserData removes everything stored for the user.
func (s *IngestService) ResetUserData(ctx context.Context, userID uuid.UUID) error {
	if err := s.repo.ResetUserData(ctx, userID); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, userID); err != nil {
		log.Warn().Err(err).Str("user_id", userID.String()).Msg("ingest: cache invalidation failed")
	}
	return nil
}

// buildBatch groups cleaned rows by product and computes the derived metric
// and forecast for each product that has persistable sales. stock maps product
// name to the stored stock level so metrics reflect real inventory.
func (s *IngestService) buildBatch(userID uuid.UUID, filename string, size int64, rows []ingest.CleanedRow, stock map[string]int) repository.UploadBatch {
	now := time.Now()

	byProduct := make(map[string][]domain.SalesRecord)
	order := make([]string, 0)
	lastPrice := make(map[string]float64)

	var valid, cleaned, warning int
	for _, row := range rows {
		switch row.Status {
		case domain.RowValid:
			valid++
		case domain.RowCleaned:
			cleaned++
		case domain.RowWarning:
			warning++
		}

		if _, seen := byProduct[row.ProductName]; !seen {
			order = append(order, row.ProductName)
			byProduct[row.ProductName] = nil
		}

		// Only real sales enter the snapshot; flagged zero rows stay in the
		// cleaned output but carry no signal.
		if row.QuantitySold > 0 && row.UnitPrice > 0 {
			byProduct[row.ProductName] = append(byProduct[row.ProductName], domain.SalesRecord{
				Date:         row.Date,
				QuantitySold: row.QuantitySold,
				UnitPrice:    row.UnitPrice,
			})
			lastPrice[row.ProductName] = row.UnitPrice
		}
	}

	items := make([]repository.ProductBatch, 0, len(order))
	for _, name := range order {
		sales := byProduct[name]

		item := repository.ProductBatch{
			Product: domain.Product{
				Name:         name,
				Category:     placeholderCategory,
				Supplier:     placeholderSupplier,
				CurrentPrice: lastPrice[name],
				CurrentStock: stock[name],
			},
			Sales: sales,
		}

		if len(sales) > 0 {
			metrics := s.calc.Metrics(item.Product.CurrentStock, sales)
			item.Metric = &domain.InventoryMetric{
				CurrentStock:     item.Product.CurrentStock,
				DailyAvgSales:    metrics.DailyAvgSales,
				DaysUntilSellout: metrics.DaysUntilSellout,
				Status:           metrics.Status,
			}

			horizons := s.calc.Forecast(sales)
			item.Forecast = &domain.ForecastRecord{
				Forecast7d:      horizons.Forecast7d,
				Forecast30d:     horizons.Forecast30d,
				Forecast90d:     horizons.Forecast90d,
				Forecast365d:    horizons.Forecast365d,
				TrendStatus:     horizons.TrendStatus,
				ConfidenceScore: horizons.ConfidenceScore,
				GeneratedAt:     now,
				ExpiresAt:       now.Add(s.ttl),
			}
		}

		items = append(items, item)
	}

	return repository.UploadBatch{
		UserID: userID,
		Upload: domain.UploadedFile{
			UserID:      userID,
			Filename:    filename,
			SizeBytes:   size,
			RowsTotal:   len(rows),
			RowsValid:   valid,
			RowsCleaned: cleaned,
			RowsWarning: warning,
		},
		Items: items,
	}
}

// archiveUpload stores the raw bytes in object storage. Postgres is the
// ledger of record, so a failed archive only logs a warning.
func (s *IngestService) archiveUpload(ctx context.Context, userID uuid.UUID, filename string, raw []byte) string {
	if s.archive == nil {
		return ""
	}

	key := fmt.Sprintf("uploads/%s/%s-%s", userID, uuid.NewString(), filename)
	if err := s.archive.UploadObject(ctx, key, raw); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("ingest: failed to archive upload")
		return ""
	}
	return key
}
