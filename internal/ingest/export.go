package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// exportHeader mirrors the upload shape with the status and issues columns
// appended.
var exportHeader = []string{"date", "productName", "quantitySold", "unitPrice", "totalRevenue", "status", "issues"}

// WriteCSV regenerates a CSV from cleaned in-memory rows, in input order.
func WriteCSV(w io.Writer, rows []CleanedRow) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(exportHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range rows {
		record := []string{
			row.Date.Format(CanonicalDateLayout),
			row.ProductName,
			strconv.Itoa(row.QuantitySold),
			strconv.FormatFloat(row.UnitPrice, 'f', 2, 64),
			strconv.FormatFloat(row.TotalRevenue, 'f', 2, 64),
			string(row.Status),
			strings.Join(row.Issues, "; "),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}
