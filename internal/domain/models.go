package domain

import (
	"time"

	"github.com/google/uuid"
)

// Product is a stocked item owned by one user. Products are created on the
// first appearance of a name in an uploaded file and updated on re-upload;
// they are only removed by a full user-data reset.
type Product struct {
	ID              int64     `json:"id" db:"id"`
	UserID          uuid.UUID `json:"user_id" db:"user_id"`
	Name            string    `json:"name" db:"name"`
	SKU             string    `json:"sku" db:"sku"`
	Category        string    `json:"category" db:"category"`
	Supplier        string    `json:"supplier" db:"supplier"`
	CostPrice       float64   `json:"cost_price" db:"cost_price"`
	CurrentPrice    float64   `json:"current_price" db:"current_price"`
	CurrentStock    int       `json:"current_stock" db:"current_stock"`
	MinStockLevel   int       `json:"min_stock_level" db:"min_stock_level"`
	MaxStockLevel   int       `json:"max_stock_level" db:"max_stock_level"`
	ReorderQuantity int       `json:"reorder_quantity" db:"reorder_quantity"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// SalesRecord is one sale line from an uploaded file. The set for a user is a
// last-write-wins snapshot: each upload replaces it wholesale.
type SalesRecord struct {
	ID           int64     `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	ProductID    int64     `json:"product_id" db:"product_id"`
	Date         time.Time `json:"date" db:"date"`
	QuantitySold int       `json:"quantity_sold" db:"quantity_sold"`
	UnitPrice    float64   `json:"unit_price" db:"unit_price"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// InventoryMetric is derived, one per product, and regenerated wholesale
// after each ingestion.
type InventoryMetric struct {
	ID               int64       `json:"id" db:"id"`
	UserID           uuid.UUID   `json:"user_id" db:"user_id"`
	ProductID        int64       `json:"product_id" db:"product_id"`
	ProductName      string      `json:"product_name" db:"product_name"`
	CurrentStock     int         `json:"current_stock" db:"current_stock"`
	DailyAvgSales    float64     `json:"daily_avg_sales" db:"daily_avg_sales"`
	DaysUntilSellout int         `json:"days_until_sellout" db:"days_until_sellout"`
	Status           StockStatus `json:"status" db:"status"`
	ComputedAt       time.Time   `json:"computed_at" db:"computed_at"`
}

// ForecastRecord holds the multi-horizon unit forecasts for one product.
// The whole set for a user expires together and is regenerated wholesale.
type ForecastRecord struct {
	ID              int64       `json:"id" db:"id"`
	UserID          uuid.UUID   `json:"user_id" db:"user_id"`
	ProductID       int64       `json:"product_id" db:"product_id"`
	ProductName     string      `json:"product_name" db:"product_name"`
	Forecast7d      int         `json:"forecast_7d" db:"forecast_7d"`
	Forecast30d     int         `json:"forecast_30d" db:"forecast_30d"`
	Forecast90d     int         `json:"forecast_90d" db:"forecast_90d"`
	Forecast365d    int         `json:"forecast_365d" db:"forecast_365d"`
	TrendStatus     TrendStatus `json:"trend_status" db:"trend_status"`
	ConfidenceScore float64     `json:"confidence_score" db:"confidence_score"`
	GeneratedAt     time.Time   `json:"generated_at" db:"generated_at"`
	ExpiresAt       time.Time   `json:"expires_at" db:"expires_at"`
}

// UploadedFile records one processed sales upload and where the raw file was
// archived.
type UploadedFile struct {
	ID           int64     `json:"id" db:"id"`
	UserID       uuid.UUID `json:"user_id" db:"user_id"`
	Filename     string    `json:"filename" db:"filename"`
	SizeBytes    int64     `json:"size_bytes" db:"size_bytes"`
	RowsTotal    int       `json:"rows_total" db:"rows_total"`
	RowsValid    int       `json:"rows_valid" db:"rows_valid"`
	RowsCleaned  int       `json:"rows_cleaned" db:"rows_cleaned"`
	RowsWarning  int       `json:"rows_warning" db:"rows_warning"`
	ArchiveKey   string    `json:"archive_key" db:"archive_key"`
	UploadedAt   time.Time `json:"uploaded_at" db:"uploaded_at"`
}

// Insight is the stored result of one external text-generation call. The
// narrative text and any numeric fields are generated independently and must
// not be assumed mutually consistent.
type Insight struct {
	ID          int64     `json:"id" db:"id"`
	UserID      uuid.UUID `json:"user_id" db:"user_id"`
	Kind        string    `json:"kind" db:"kind"`
	ProductName string    `json:"product_name" db:"product_name"`
	Narrative   string    `json:"narrative" db:"narrative"`
	// DataAvailable is false when no computed numeric analysis backs this
	// insight; callers render "not yet computed" instead of numbers.
	DataAvailable bool      `json:"data_available" db:"data_available"`
	GeneratedAt   time.Time `json:"generated_at" db:"generated_at"`
}

// DashboardSummary is the aggregated view the dashboard landing page renders.
type DashboardSummary struct {
	TotalProducts    int               `json:"total_products"`
	TotalSalesRecords int              `json:"total_sales_records"`
	StatusCounts     map[string]int    `json:"status_counts"`
	CriticalProducts []InventoryMetric `json:"critical_products"`
	Forecasts        []ForecastRecord  `json:"forecasts"`
	GeneratedAt      time.Time         `json:"generated_at"`
}

// IngestResult summarises one completed upload.
type IngestResult struct {
	Filename     string    `json:"filename"`
	RowsTotal    int       `json:"rows_total"`
	RowsValid    int       `json:"rows_valid"`
	RowsCleaned  int       `json:"rows_cleaned"`
	RowsWarning  int       `json:"rows_warning"`
	ProductCount int       `json:"product_count"`
	ProcessedAt  time.Time `json:"processed_at"`
}
