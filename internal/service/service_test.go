package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/forecast"
	"github.com/stocksense/backend-go/internal/ingest"
	"github.com/stocksense/backend-go/internal/insight"
	"github.com/stocksense/backend-go/internal/repository"
)

// In-memory fakes. Only the behavior the services touch is modeled.

type fakeIngestRepo struct {
	applied []repository.UploadBatch
	resets  []uuid.UUID
	fail    error
}

func (f *fakeIngestRepo) ApplyUpload(_ context.Context, batch repository.UploadBatch) error {
	if f.fail != nil {
		return f.fail
	}
	f.applied = append(f.applied, batch)
	return nil
}

func (f *fakeIngestRepo) ResetUserData(_ context.Context, userID uuid.UUID) error {
	f.resets = append(f.resets, userID)
	return nil
}

type fakeProductRepo struct {
	products []domain.Product
	upserted []domain.Product
}

func (f *fakeProductRepo) List(_ context.Context, _ uuid.UUID) ([]domain.Product, error) {
	return f.products, nil
}

func (f *fakeProductRepo) Count(_ context.Context, _ uuid.UUID) (int, error) {
	return len(f.products), nil
}

func (f *fakeProductRepo) UpsertBulk(_ context.Context, _ uuid.UUID, products []domain.Product) (int, error) {
	f.upserted = append(f.upserted, products...)
	return len(products), nil
}

type fakeSalesRepo struct {
	sales []domain.SalesRecord
}

func (f *fakeSalesRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]domain.SalesRecord, error) {
	return f.sales, nil
}

func (f *fakeSalesRepo) Count(_ context.Context, _ uuid.UUID) (int, error) {
	return len(f.sales), nil
}

type fakeMetricsRepo struct {
	metrics []domain.InventoryMetric
}

func (f *fakeMetricsRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]domain.InventoryMetric, error) {
	return f.metrics, nil
}

func (f *fakeMetricsRepo) ListByStatus(_ context.Context, _ uuid.UUID, status domain.StockStatus) ([]domain.InventoryMetric, error) {
	var out []domain.InventoryMetric
	for _, m := range f.metrics {
		if m.Status == status {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMetricsRepo) StatusSummary(_ context.Context, _ uuid.UUID) (map[string]int, error) {
	out := make(map[string]int)
	for _, m := range f.metrics {
		out[string(m.Status)]++
	}
	return out, nil
}

type fakeForecastRepo struct {
	stored  []domain.ForecastRecord
	expired []uuid.UUID
}

func (f *fakeForecastRepo) ListByUser(_ context.Context, _ uuid.UUID) ([]domain.ForecastRecord, error) {
	return f.stored, nil
}

func (f *fakeForecastRepo) ReplaceForUser(_ context.Context, userID uuid.UUID, forecasts []domain.ForecastRecord) error {
	var kept []domain.ForecastRecord
	for _, r := range f.stored {
		if r.UserID != userID {
			kept = append(kept, r)
		}
	}
	f.stored = append(kept, forecasts...)
	return nil
}

func (f *fakeForecastRepo) ExpiredUsers(_ context.Context, _ time.Time) ([]uuid.UUID, error) {
	return f.expired, nil
}

type fakeInsightRepo struct {
	inserted []domain.Insight
}

func (f *fakeInsightRepo) Insert(_ context.Context, record *domain.Insight) error {
	record.ID = int64(len(f.inserted) + 1)
	record.GeneratedAt = time.Now()
	f.inserted = append(f.inserted, *record)
	return nil
}

func (f *fakeInsightRepo) ListByUser(_ context.Context, _ uuid.UUID, kind string) ([]domain.Insight, error) {
	if kind == "" {
		return f.inserted, nil
	}
	var out []domain.Insight
	for _, r := range f.inserted {
		if r.Kind == kind {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Generate(_ context.Context, _ insight.Context) (string, error) {
	return f.text, f.err
}

type spyCache struct {
	summary       *domain.DashboardSummary
	sets          int
	invalidations int
}

func (c *spyCache) Get(_ context.Context, _ uuid.UUID) (*domain.DashboardSummary, bool, error) {
	return c.summary, c.summary != nil, nil
}

func (c *spyCache) Set(_ context.Context, _ uuid.UUID, summary *domain.DashboardSummary) error {
	c.summary = summary
	c.sets++
	return nil
}

func (c *spyCache) Invalidate(_ context.Context, _ uuid.UUID) error {
	c.summary = nil
	c.invalidations++
	return nil
}

func TestIngestServiceProcessUpload(t *testing.T) {
	repo := &fakeIngestRepo{}
	cacheSpy := &spyCache{}
	svc := NewIngestService(repo, &fakeProductRepo{}, IngestServiceOptions{
		Cache:  cacheSpy,
		Policy: forecast.DefaultPolicy(),
	})

	userID := uuid.New()
	input := "date,productName,quantitySold,unitPrice\n" +
		"2026-08-20,Widget,3,10\n" +
		"2026-08-21,Widget,5,10\n" +
		"2026-08-20,Gadget,0,4\n" +
		"2026/08/22,Widget,2,10\n"

	result, rows, err := svc.ProcessUpload(context.Background(), userID, "sales.csv",
		int64(len(input)), strings.NewReader(input))
	if err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	if result.RowsTotal != 4 || result.RowsValid != 3 || result.RowsCleaned != 1 {
		t.Errorf("unexpected row counts: %+v", result)
	}
	if len(rows) != 4 {
		t.Errorf("got %d cleaned rows, want 4", len(rows))
	}
	if result.ProductCount != 2 {
		t.Errorf("ProductCount = %d, want 2", result.ProductCount)
	}

	if len(repo.applied) != 1 {
		t.Fatalf("ApplyUpload called %d times, want 1", len(repo.applied))
	}
	batch := repo.applied[0]
	if batch.UserID != userID {
		t.Errorf("batch UserID = %v, want %v", batch.UserID, userID)
	}
	if len(batch.Items) != 2 {
		t.Fatalf("batch has %d items, want 2", len(batch.Items))
	}

	var widget, gadget *repository.ProductBatch
	for i := range batch.Items {
		switch batch.Items[i].Product.Name {
		case "Widget":
			widget = &batch.Items[i]
		case "Gadget":
			gadget = &batch.Items[i]
		}
	}
	if widget == nil || gadget == nil {
		t.Fatalf("missing products in batch: %+v", batch.Items)
	}

	// Widget has three real sales and therefore a metric and forecast.
	if len(widget.Sales) != 3 {
		t.Errorf("Widget sales = %d, want 3", len(widget.Sales))
	}
	if widget.Metric == nil || widget.Forecast == nil {
		t.Error("Widget missing metric or forecast")
	}
	if widget.Forecast != nil && widget.Forecast.ExpiresAt.Before(widget.Forecast.GeneratedAt) {
		t.Error("forecast expires before it was generated")
	}

	// Gadget's only row has zero quantity: product is created but no sales
	// are persisted and no derived rows are built.
	if len(gadget.Sales) != 0 {
		t.Errorf("Gadget sales = %d, want 0", len(gadget.Sales))
	}
	if gadget.Metric != nil || gadget.Forecast != nil {
		t.Error("Gadget must not have derived rows without sales")
	}

	if cacheSpy.invalidations != 1 {
		t.Errorf("cache invalidations = %d, want 1", cacheSpy.invalidations)
	}
}

func TestIngestServiceMetricsUseStoredStock(t *testing.T) {
	repo := &fakeIngestRepo{}
	products := &fakeProductRepo{products: []domain.Product{
		{Name: "Widget", CurrentStock: 40},
	}}
	svc := NewIngestService(repo, products, IngestServiceOptions{})

	// 2 units/day against 40 in stock: 20 days of cover.
	input := "date,productName,quantitySold,unitPrice\n" +
		"2026-08-11,Widget,2,5\n" +
		"2026-08-12,Widget,2,5\n" +
		"2026-08-13,Widget,2,5\n" +
		"2026-08-14,Widget,2,5\n" +
		"2026-08-15,Widget,2,5\n"

	if _, _, err := svc.ProcessUpload(context.Background(), uuid.New(), "sales.csv",
		int64(len(input)), strings.NewReader(input)); err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	if len(repo.applied) != 1 || len(repo.applied[0].Items) != 1 {
		t.Fatalf("unexpected batch shape: %+v", repo.applied)
	}
	item := repo.applied[0].Items[0]

	if item.Product.CurrentStock != 40 {
		t.Errorf("Product.CurrentStock = %d, want 40", item.Product.CurrentStock)
	}
	if item.Metric == nil {
		t.Fatal("expected a metric for a product with sales")
	}
	if item.Metric.CurrentStock != 40 {
		t.Errorf("Metric.CurrentStock = %d, want 40", item.Metric.CurrentStock)
	}
	if item.Metric.DaysUntilSellout != 20 {
		t.Errorf("DaysUntilSellout = %d, want 20", item.Metric.DaysUntilSellout)
	}
	if item.Metric.Status != domain.StockOptimal {
		t.Errorf("Status = %q, want optimal", item.Metric.Status)
	}
}

type fakeArchive struct {
	keys []string
	fail error
}

func (f *fakeArchive) UploadObject(_ context.Context, key string, _ []byte) error {
	if f.fail != nil {
		return f.fail
	}
	f.keys = append(f.keys, key)
	return nil
}

func TestIngestServiceArchivesUpload(t *testing.T) {
	repo := &fakeIngestRepo{}
	archive := &fakeArchive{}
	svc := NewIngestService(repo, &fakeProductRepo{}, IngestServiceOptions{Archive: archive})

	input := "date,productName,quantitySold,unitPrice\n2026-08-20,Widget,1,1\n"
	if _, _, err := svc.ProcessUpload(context.Background(), uuid.New(), "sales.csv",
		int64(len(input)), strings.NewReader(input)); err != nil {
		t.Fatalf("ProcessUpload returned error: %v", err)
	}

	if len(archive.keys) != 1 {
		t.Fatalf("archive received %d objects, want 1", len(archive.keys))
	}
	if repo.applied[0].Upload.ArchiveKey != archive.keys[0] {
		t.Errorf("ArchiveKey = %q, want %q", repo.applied[0].Upload.ArchiveKey, archive.keys[0])
	}

	// Archiving is best effort: a storage failure must not fail the upload.
	failing := NewIngestService(repo, &fakeProductRepo{}, IngestServiceOptions{
		Archive: &fakeArchive{fail: errors.New("bucket offline")},
	})
	if _, _, err := failing.ProcessUpload(context.Background(), uuid.New(), "sales.csv",
		int64(len(input)), strings.NewReader(input)); err != nil {
		t.Fatalf("upload failed on archive error: %v", err)
	}
	if repo.applied[1].Upload.ArchiveKey != "" {
		t.Errorf("ArchiveKey = %q, want empty after archive failure", repo.applied[1].Upload.ArchiveKey)
	}
}

func TestIngestServiceDoubleUploadIdempotent(t *testing.T) {
	repo := &fakeIngestRepo{}
	svc := NewIngestService(repo, &fakeProductRepo{}, IngestServiceOptions{})

	userID := uuid.New()
	input := "date,productName,quantitySold,unitPrice\n" +
		"2026-08-20,Widget,3,10\n" +
		"2026-08-21,Gadget,2,4\n"

	for i := 0; i < 2; i++ {
		if _, _, err := svc.ProcessUpload(context.Background(), userID, "sales.csv",
			int64(len(input)), strings.NewReader(input)); err != nil {
			t.Fatalf("upload %d returned error: %v", i+1, err)
		}
	}

	if len(repo.applied) != 2 {
		t.Fatalf("ApplyUpload called %d times, want 2", len(repo.applied))
	}

	// Since each batch replaces the user's derived sets wholesale, identical
	// batches imply an identical final state.
	a, b := repo.applied[0], repo.applied[1]
	if len(a.Items) != len(b.Items) {
		t.Fatalf("batch sizes differ: %d vs %d", len(a.Items), len(b.Items))
	}
	for i := range a.Items {
		ai, bi := a.Items[i], b.Items[i]
		if ai.Product.Name != bi.Product.Name || len(ai.Sales) != len(bi.Sales) {
			t.Errorf("item %d differs: %+v vs %+v", i, ai.Product, bi.Product)
		}
		if (ai.Forecast == nil) != (bi.Forecast == nil) {
			t.Errorf("item %d forecast presence differs", i)
			continue
		}
		if ai.Forecast != nil && ai.Forecast.Forecast365d != bi.Forecast.Forecast365d {
			t.Errorf("item %d forecast differs: %d vs %d",
				i, ai.Forecast.Forecast365d, bi.Forecast.Forecast365d)
		}
	}
}

func TestIngestServiceRejectsBadFiles(t *testing.T) {
	svc := NewIngestService(&fakeIngestRepo{}, &fakeProductRepo{}, IngestServiceOptions{
		MaxUploadBytes: 100,
	})

	_, _, err := svc.ProcessUpload(context.Background(), uuid.New(), "sales.pdf", 10, strings.NewReader(""))
	if !errors.Is(err, ingest.ErrValidation) {
		t.Errorf("pdf upload: expected ErrValidation, got %v", err)
	}

	_, _, err = svc.ProcessUpload(context.Background(), uuid.New(), "sales.csv", 1000, strings.NewReader(""))
	if !errors.Is(err, ingest.ErrValidation) {
		t.Errorf("oversized upload: expected ErrValidation, got %v", err)
	}
}

func TestIngestServicePersistenceFailureSurfaces(t *testing.T) {
	repo := &fakeIngestRepo{fail: errors.New("db down")}
	svc := NewIngestService(repo, &fakeProductRepo{}, IngestServiceOptions{})

	input := "date,productName,quantitySold,unitPrice\n2026-08-20,Widget,1,1\n"
	_, _, err := svc.ProcessUpload(context.Background(), uuid.New(), "sales.csv",
		int64(len(input)), strings.NewReader(input))
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Errorf("expected repository error to surface, got %v", err)
	}
}

func TestForecastServiceRegenerate(t *testing.T) {
	userID := uuid.New()
	products := &fakeProductRepo{products: []domain.Product{
		{ID: 1, UserID: userID, Name: "Widget"},
		{ID: 2, UserID: userID, Name: "Dormant"},
	}}
	start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	sales := &fakeSalesRepo{sales: []domain.SalesRecord{
		{ProductID: 1, Date: start, QuantitySold: 2, UnitPrice: 5},
		{ProductID: 1, Date: start.AddDate(0, 0, 1), QuantitySold: 4, UnitPrice: 5},
		{ProductID: 1, Date: start.AddDate(0, 0, 2), QuantitySold: 6, UnitPrice: 5},
	}}
	casts := &fakeForecastRepo{}

	svc := NewForecastService(casts, sales, products, forecast.DefaultPolicy(), &spyCache{}, 24*time.Hour)

	first, err := svc.Regenerate(context.Background(), userID)
	if err != nil {
		t.Fatalf("Regenerate returned error: %v", err)
	}
	// Only products with sales get a forecast.
	if len(first) != 1 {
		t.Fatalf("got %d forecasts, want 1", len(first))
	}
	if first[0].ProductName != "Widget" {
		t.Errorf("ProductName = %q, want Widget", first[0].ProductName)
	}
	if !first[0].ExpiresAt.Equal(first[0].GeneratedAt.Add(24 * time.Hour)) {
		t.Errorf("ExpiresAt not GeneratedAt+TTL: %+v", first[0])
	}

	// Regenerating from the same snapshot yields the same numbers and
	// replaces rather than appends.
	second, err := svc.Regenerate(context.Background(), userID)
	if err != nil {
		t.Fatalf("second Regenerate returned error: %v", err)
	}
	if len(casts.stored) != 1 {
		t.Fatalf("store holds %d forecasts after regenerate, want 1", len(casts.stored))
	}
	if second[0].Forecast7d != first[0].Forecast7d ||
		second[0].Forecast365d != first[0].Forecast365d ||
		second[0].TrendStatus != first[0].TrendStatus {
		t.Errorf("regeneration not deterministic: %+v vs %+v", first[0], second[0])
	}
}

func TestForecastServiceRegenerateExpired(t *testing.T) {
	userA := uuid.New()
	userB := uuid.New()
	casts := &fakeForecastRepo{expired: []uuid.UUID{userA, userB}}
	cacheSpy := &spyCache{}

	svc := NewForecastService(casts, &fakeSalesRepo{}, &fakeProductRepo{},
		forecast.DefaultPolicy(), cacheSpy, 24*time.Hour)

	refreshed, err := svc.RegenerateExpired(context.Background(), 2)
	if err != nil {
		t.Fatalf("RegenerateExpired returned error: %v", err)
	}
	if refreshed != 2 {
		t.Errorf("refreshed = %d, want 2", refreshed)
	}
	if cacheSpy.invalidations != 2 {
		t.Errorf("cache invalidations = %d, want 2", cacheSpy.invalidations)
	}
}

func TestDashboardServiceSummary(t *testing.T) {
	userID := uuid.New()
	products := &fakeProductRepo{products: []domain.Product{{ID: 1, Name: "Widget"}}}
	sales := &fakeSalesRepo{sales: []domain.SalesRecord{{ProductID: 1, QuantitySold: 2}}}
	metrics := &fakeMetricsRepo{metrics: []domain.InventoryMetric{
		{ProductName: "Widget", Status: domain.StockCritical},
		{ProductName: "Other", Status: domain.StockOptimal},
	}}
	casts := &fakeForecastRepo{stored: []domain.ForecastRecord{{UserID: userID, ProductName: "Widget"}}}
	cacheSpy := &spyCache{}

	svc := NewDashboardService(products, sales, metrics, casts, cacheSpy)

	summary, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("Summary returned error: %v", err)
	}
	if summary.TotalProducts != 1 || summary.TotalSalesRecords != 1 {
		t.Errorf("unexpected totals: %+v", summary)
	}
	if summary.StatusCounts["critical"] != 1 || summary.StatusCounts["optimal"] != 1 {
		t.Errorf("unexpected status counts: %v", summary.StatusCounts)
	}
	if len(summary.CriticalProducts) != 1 || summary.CriticalProducts[0].ProductName != "Widget" {
		t.Errorf("unexpected critical products: %+v", summary.CriticalProducts)
	}
	if cacheSpy.sets != 1 {
		t.Errorf("cache sets = %d, want 1", cacheSpy.sets)
	}

	// A second call is served from the cache.
	again, err := svc.Summary(context.Background(), userID)
	if err != nil {
		t.Fatalf("cached Summary returned error: %v", err)
	}
	if cacheSpy.sets != 1 {
		t.Errorf("cache sets after hit = %d, want 1", cacheSpy.sets)
	}
	if again.TotalProducts != summary.TotalProducts {
		t.Errorf("cached summary differs: %+v vs %+v", again, summary)
	}
}

func TestInsightServiceGenerate(t *testing.T) {
	userID := uuid.New()
	products := &fakeProductRepo{products: []domain.Product{{Name: "Widget"}}}
	repo := &fakeInsightRepo{}

	svc := NewInsightService(&fakeProvider{text: "Raise the price."}, repo,
		products, &fakeMetricsRepo{}, &fakeForecastRepo{})

	record, err := svc.Generate(context.Background(), userID, domain.InsightPricing, "")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if record.Narrative != "Raise the price." {
		t.Errorf("Narrative = %q", record.Narrative)
	}
	if record.DataAvailable {
		t.Error("DataAvailable must be false for narrative-only insights")
	}
	if len(repo.inserted) != 1 {
		t.Errorf("inserted %d insights, want 1", len(repo.inserted))
	}

	if _, err := svc.Generate(context.Background(), userID, "astrology", ""); err == nil {
		t.Error("expected error for unknown insight kind")
	}
}

func TestInsightServiceNoProducts(t *testing.T) {
	svc := NewInsightService(&fakeProvider{text: "x"}, &fakeInsightRepo{},
		&fakeProductRepo{}, &fakeMetricsRepo{}, &fakeForecastRepo{})

	_, err := svc.Generate(context.Background(), uuid.New(), domain.InsightAlert, "")
	if !errors.Is(err, ErrNoProducts) {
		t.Errorf("expected ErrNoProducts, got %v", err)
	}
}

func TestInsightServiceRemoteFailureNotStored(t *testing.T) {
	repo := &fakeInsightRepo{}
	svc := NewInsightService(&fakeProvider{err: insight.ErrRemote}, repo,
		&fakeProductRepo{products: []domain.Product{{Name: "Widget"}}},
		&fakeMetricsRepo{}, &fakeForecastRepo{})

	_, err := svc.Generate(context.Background(), uuid.New(), domain.InsightAlert, "")
	if !errors.Is(err, insight.ErrRemote) {
		t.Errorf("expected ErrRemote, got %v", err)
	}
	if len(repo.inserted) != 0 {
		t.Errorf("failed generation must not store an insight, got %d", len(repo.inserted))
	}
}
