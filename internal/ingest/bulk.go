package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/stocksense/backend-go/internal/domain"
)

// bulkRequiredColumns must all be present in a bulk product upload. Unlike
// the sales format, a missing column rejects the whole file.
var bulkRequiredColumns = []string{"name", "sku", "category", "cost_price", "current_price"}

// ParseBulkProducts parses the strict bulk product format. Optional columns
// (supplier, current_stock, min_stock_level, max_stock_level,
// reorder_quantity) default to zero values when absent.
func ParseBulkProducts(r io.Reader) ([]domain.Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	idx := make(map[string]int)
	for i, col := range header {
		idx[strings.ToLower(strings.TrimSpace(col))] = i
	}

	var missing []string
	for _, col := range bulkRequiredColumns {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required columns: %s", ErrValidation, strings.Join(missing, ", "))
	}

	field := func(record []string, key string) string {
		if i, ok := idx[key]; ok && i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	floatField := func(record []string, key string) float64 {
		f, _ := strconv.ParseFloat(field(record, key), 64)
		return f
	}
	intField := func(record []string, key string) int {
		f, _ := strconv.ParseFloat(field(record, key), 64)
		return int(f)
	}

	var products []domain.Product
	line := 1
	for {
		line++
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record at line %d: %w", line, err)
		}

		name := field(record, "name")
		if name == "" {
			return nil, fmt.Errorf("%w: blank product name at line %d", ErrValidation, line)
		}

		products = append(products, domain.Product{
			Name:            name,
			SKU:             field(record, "sku"),
			Category:        field(record, "category"),
			Supplier:        field(record, "supplier"),
			CostPrice:       floatField(record, "cost_price"),
			CurrentPrice:    floatField(record, "current_price"),
			CurrentStock:    intField(record, "current_stock"),
			MinStockLevel:   intField(record, "min_stock_level"),
			MaxStockLevel:   intField(record, "max_stock_level"),
			ReorderQuantity: intField(record, "reorder_quantity"),
		})
	}

	return products, nil
}
