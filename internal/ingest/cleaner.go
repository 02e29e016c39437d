package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/stocksense/backend-go/internal/domain"
)

// CanonicalDateLayout is the date form cleaned rows are normalized to.
const CanonicalDateLayout = "2006-01-02"

// dateLayouts are tried in order when parsing an incoming date value. The
// canonical layout comes first so well-formed rows stay tagged valid.
var dateLayouts = []string{
	CanonicalDateLayout,
	time.RFC3339,
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"Jan 2, 2006",
	"2 Jan 2006",
	"01-02-2006",
	"2006.01.02",
}

// Issue strings surfaced per row. Tests and the exported CSV depend on the
// exact wording.
const (
	IssueMissingDate    = "Missing date"
	IssueInvalidDate    = "Invalid date"
	IssueDateNormalized = "Date format normalized"
	IssueMissingProduct = "Missing product name"
	IssueInvalidQty     = "Invalid quantity"
	IssueQtyRounded     = "Quantity rounded"
	IssueInvalidPrice   = "Invalid price"
)

// DefaultProductName substitutes a blank product name.
const DefaultProductName = "Unknown Product"

// RawRow is one uncleaned row from an uploaded sales file, fields as raw
// strings in input order.
type RawRow struct {
	Date        string
	ProductName string
	Quantity    string
	UnitPrice   string
}

// CleanedRow is the result of applying the per-field cleaning rules to one
// RawRow. Rows are never dropped: invalid fields are substituted with
// defaults and the row tagged accordingly.
type CleanedRow struct {
	Date         time.Time
	ProductName  string
	QuantitySold int
	UnitPrice    float64
	TotalRevenue float64
	Status       domain.RowStatus
	Issues       []string
}

// Cleaner applies the row cleaning rules. Now is injectable so tests can pin
// "today".
type Cleaner struct {
	Now func() time.Time
}

func NewCleaner() *Cleaner {
	return &Cleaner{Now: time.Now}
}

// Clean parses delimited text with a header row and returns one cleaned row
// per input row, preserving input order. It is a pure transformation: no row
// is dropped and nothing is persisted.
func (c *Cleaner) Clean(r io.Reader) ([]CleanedRow, error) {
	raws, err := ReadRawRows(r)
	if err != nil {
		return nil, err
	}

	rows := make([]CleanedRow, 0, len(raws))
	for _, raw := range raws {
		rows = append(rows, c.CleanRow(raw))
	}
	return rows, nil
}

// CleanRow applies the per-field rules independently of other rows.
func (c *Cleaner) CleanRow(raw RawRow) CleanedRow {
	row := CleanedRow{Status: domain.RowValid}

	demote := func(to domain.RowStatus, issue string) {
		row.Issues = append(row.Issues, issue)
		if row.Status == domain.RowWarning {
			return
		}
		if to == domain.RowWarning || row.Status == domain.RowValid {
			row.Status = to
		}
	}

	// Date: substitute today on failure, normalize non-canonical forms.
	dateStr := strings.TrimSpace(raw.Date)
	if dateStr == "" {
		row.Date = truncateToDay(c.Now())
		demote(domain.RowWarning, IssueMissingDate)
	} else if parsed, layout, ok := parseDate(dateStr); ok {
		row.Date = truncateToDay(parsed)
		if layout != CanonicalDateLayout {
			demote(domain.RowCleaned, IssueDateNormalized)
		}
	} else {
		row.Date = truncateToDay(c.Now())
		demote(domain.RowWarning, IssueInvalidDate)
	}

	// Product name: blank gets the placeholder.
	name := strings.TrimSpace(raw.ProductName)
	if name == "" {
		name = DefaultProductName
		demote(domain.RowWarning, IssueMissingProduct)
	}
	row.ProductName = name

	// Quantity: non-numeric or negative becomes 0; fractional values are
	// rounded and flagged so the coercion stays visible.
	if qty, rounded, ok := parseQuantity(raw.Quantity); ok {
		row.QuantitySold = qty
		if rounded {
			demote(domain.RowCleaned, IssueQtyRounded)
		}
	} else {
		row.QuantitySold = 0
		demote(domain.RowWarning, IssueInvalidQty)
	}

	// Unit price: non-numeric or negative becomes 0.
	if price, ok := parsePrice(raw.UnitPrice); ok {
		row.UnitPrice = price
	} else {
		row.UnitPrice = 0
		demote(domain.RowWarning, IssueInvalidPrice)
	}

	// Revenue is never trusted from input.
	row.TotalRevenue = float64(row.QuantitySold) * row.UnitPrice

	return row
}

// header aliases, matched case-insensitively
var columnAliases = map[string][]string{
	"date":     {"date"},
	"product":  {"productname", "product name", "product"},
	"quantity": {"quantitysold", "quantity sold", "quantity"},
	"price":    {"unitprice", "unit price", "price"},
}

// ReadRawRows reads the header and all data rows of a sales CSV. Columns are
// resolved by alias; a missing column yields blank values for that field,
// which the cleaner then flags per row. A file with no recognized columns at
// all is rejected.
func ReadRawRows(r io.Reader) ([]RawRow, error) {
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

	idx := resolveColumns(header)
	if len(idx) == 0 {
		return nil, fmt.Errorf("%w: no recognized columns in header", ErrValidation)
	}

	field := func(record []string, key string) string {
		if i, ok := idx[key]; ok && i < len(record) {
			return record[i]
		}
		return ""
	}

	var raws []RawRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV record: %w", err)
		}

		raws = append(raws, RawRow{
			Date:        field(record, "date"),
			ProductName: field(record, "product"),
			Quantity:    field(record, "quantity"),
			UnitPrice:   field(record, "price"),
		})
	}

	return raws, nil
}

func resolveColumns(header []string) map[string]int {
	idx := make(map[string]int)
	for i, col := range header {
		normalized := strings.ToLower(strings.TrimSpace(col))
		for key, aliases := range columnAliases {
			if _, done := idx[key]; done {
				continue
			}
			for _, alias := range aliases {
				if normalized == alias {
					idx[key] = i
					break
				}
			}
		}
	}
	return idx
}

func parseDate(value string) (time.Time, string, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, layout, true
		}
	}
	return time.Time{}, "", false
}

func parseQuantity(value string) (qty int, rounded, ok bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false, false
	}
	n := math.Round(f)
	return int(n), n != f, true
}

func parsePrice(value string) (float64, bool) {
	s := strings.TrimSpace(value)
	if s == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, false
	}
	return f, true
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
