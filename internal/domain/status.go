package domain

import "strings"

// StockStatus classifies how long current stock lasts at the observed daily
// sale rate.
type StockStatus string

const (
	StockCritical  StockStatus = "critical"
	StockLow       StockStatus = "low"
	StockOptimal   StockStatus = "optimal"
	StockOverstock StockStatus = "overstock"
)

// Day thresholds for stock classification. Comparisons are strict: exactly 7
// days is low, exactly 14 is optimal, exactly 60 is optimal.
const (
	CriticalBelowDays  = 7
	LowBelowDays       = 14
	OverstockAboveDays = 60
)

// SelloutSentinel stands in for days-until-sellout when the daily average
// sale rate is zero.
const SelloutSentinel = 999

// ClassifyStock maps days of remaining cover to a stock status.
func ClassifyStock(daysUntilSellout int) StockStatus {
	switch {
	case daysUntilSellout < CriticalBelowDays:
		return StockCritical
	case daysUntilSellout < LowBelowDays:
		return StockLow
	case daysUntilSellout > OverstockAboveDays:
		return StockOverstock
	default:
		return StockOptimal
	}
}

// TrendStatus labels the direction of the fitted sales trend.
type TrendStatus string

const (
	TrendUp     TrendStatus = "trending"
	TrendDown   TrendStatus = "declining"
	TrendStable TrendStatus = "stable"
)

// RowStatus tags each cleaned CSV row.
type RowStatus string

const (
	RowValid   RowStatus = "valid"
	RowCleaned RowStatus = "cleaned"
	RowWarning RowStatus = "warning"
)

// ParseRowStatus returns the row status for a label (case-insensitive).
func ParseRowStatus(label string) (RowStatus, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "valid":
		return RowValid, true
	case "cleaned":
		return RowCleaned, true
	case "warning":
		return RowWarning, true
	}
	return "", false
}

// InsightKind names the supported externally generated insight types.
const (
	InsightPricing    = "pricing"
	InsightCompetitor = "competitor"
	InsightMarketing  = "marketing"
	InsightAlert      = "alert"
)

// ValidInsightKind reports whether kind names a supported insight type.
func ValidInsightKind(kind string) bool {
	switch kind {
	case InsightPricing, InsightCompetitor, InsightMarketing, InsightAlert:
		return true
	}
	return false
}
