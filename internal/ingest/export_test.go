package ingest

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestWriteCSVRoundTrip(t *testing.T) {
	input := "date,productName,quantitySold,unitPrice\n" +
		"2026-08-20,Widget,3,9.99\n" +
		"2026/08/21,,bad,2\n"

	c := newTestCleaner()
	rows, err := c.Clean(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Clean returned error: %v", err)
	}

	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		t.Fatalf("WriteCSV returned error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	if lines[0] != "date,productName,quantitySold,unitPrice,totalRevenue,status,issues" {
		t.Errorf("unexpected header: %s", lines[0])
	}
	if lines[1] != "2026-08-20,Widget,3,9.99,29.97,valid," {
		t.Errorf("unexpected valid row: %s", lines[1])
	}
	if !strings.Contains(lines[2], "warning") {
		t.Errorf("broken row not tagged warning: %s", lines[2])
	}
	if !strings.Contains(lines[2], "Date format normalized; ") {
		t.Errorf("issues not joined with semicolons: %s", lines[2])
	}

	// The exported rows survive another cleaning pass with identical values.
	recleaned, err := c.Clean(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("re-clean returned error: %v", err)
	}
	for i, row := range recleaned {
		if !row.Date.Equal(rows[i].Date) || row.ProductName != rows[i].ProductName ||
			row.QuantitySold != rows[i].QuantitySold || row.UnitPrice != rows[i].UnitPrice {
			t.Errorf("row %d changed after export/re-clean: %+v vs %+v", i, rows[i], row)
		}
	}
}

func TestValidateFile(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		size     int64
		max      int64
		wantErr  bool
	}{
		{"csv accepted", "sales.csv", 100, 1000, false},
		{"xlsx accepted", "sales.XLSX", 100, 1000, false},
		{"pdf rejected", "sales.pdf", 100, 1000, true},
		{"no extension rejected", "sales", 100, 1000, true},
		{"oversized rejected", "sales.csv", 2000, 1000, true},
		{"no limit configured", "sales.csv", 1 << 30, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateFile(tt.filename, tt.size, tt.max)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateFile = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("error is not ErrValidation: %v", err)
			}
		})
	}
}

func TestParseBulkProducts(t *testing.T) {
	t.Run("complete file", func(t *testing.T) {
		input := "name,sku,category,cost_price,current_price,current_stock\n" +
			"Widget,W-1,Gadgets,2.50,5.00,40\n" +
			"Gadget,G-1,Gadgets,1.00,3.00,10\n"

		products, err := ParseBulkProducts(strings.NewReader(input))
		if err != nil {
			t.Fatalf("ParseBulkProducts returned error: %v", err)
		}
		if len(products) != 2 {
			t.Fatalf("got %d products, want 2", len(products))
		}
		if products[0].Name != "Widget" || products[0].CostPrice != 2.5 || products[0].CurrentStock != 40 {
			t.Errorf("unexpected first product: %+v", products[0])
		}
	})

	t.Run("missing required columns reject whole file", func(t *testing.T) {
		input := "name,sku\nWidget,W-1\n"

		_, err := ParseBulkProducts(strings.NewReader(input))
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
		for _, col := range []string{"category", "cost_price", "current_price"} {
			if !strings.Contains(err.Error(), col) {
				t.Errorf("error does not name missing column %q: %v", col, err)
			}
		}
	})

	t.Run("blank name rejects whole file", func(t *testing.T) {
		input := "name,sku,category,cost_price,current_price\n" +
			"Widget,W-1,Gadgets,1,2\n" +
			",G-1,Gadgets,1,2\n"

		_, err := ParseBulkProducts(strings.NewReader(input))
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})

	t.Run("empty file", func(t *testing.T) {
		_, err := ParseBulkProducts(strings.NewReader(""))
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("expected ErrValidation, got %v", err)
		}
	})
}
