package forecast

import (
	"testing"
	"time"

	"github.com/stocksense/backend-go/internal/domain"
)

func salesSeries(quantities ...int) []domain.SalesRecord {
	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	sales := make([]domain.SalesRecord, len(quantities))
	for i, q := range quantities {
		sales[i] = domain.SalesRecord{
			Date:         start.AddDate(0, 0, i),
			QuantitySold: q,
			UnitPrice:    10,
		}
	}
	return sales
}

func TestMetricsNoSalesUsesSentinel(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	m := c.Metrics(50, nil)
	if m.DailyAvgSales != 0 {
		t.Errorf("DailyAvgSales = %v, want 0", m.DailyAvgSales)
	}
	if m.DaysUntilSellout != domain.SelloutSentinel {
		t.Errorf("DaysUntilSellout = %d, want %d", m.DaysUntilSellout, domain.SelloutSentinel)
	}
	if m.Status != domain.StockOverstock {
		t.Errorf("Status = %q, want overstock", m.Status)
	}
}

func TestMetricsDailyAverageAndStatus(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	// 10 days at 2 units/day, 10 units in stock: 5 days of cover.
	sales := salesSeries(2, 2, 2, 2, 2, 2, 2, 2, 2, 2)
	m := c.Metrics(10, sales)

	if m.DailyAvgSales != 2 {
		t.Errorf("DailyAvgSales = %v, want 2", m.DailyAvgSales)
	}
	if m.DaysUntilSellout != 5 {
		t.Errorf("DaysUntilSellout = %d, want 5", m.DaysUntilSellout)
	}
	if m.Status != domain.StockCritical {
		t.Errorf("Status = %q, want critical", m.Status)
	}
}

func TestMetricsUsesRecentWindowOnly(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	// 40 days of history: 10 old days at 100/day, then 30 recent days at
	// 1/day. Only the most recent 30 count.
	quantities := make([]int, 0, 40)
	for i := 0; i < 10; i++ {
		quantities = append(quantities, 100)
	}
	for i := 0; i < 30; i++ {
		quantities = append(quantities, 1)
	}

	m := c.Metrics(30, salesSeries(quantities...))
	if m.DailyAvgSales != 1 {
		t.Errorf("DailyAvgSales = %v, want 1 (old records must not count)", m.DailyAvgSales)
	}
}

func TestMetricsSelloutNonIncreasingInAverage(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	// For fixed stock, a faster sale rate can only shorten the cover.
	const stock = 100
	prev := -1
	for rate := 1; rate <= 20; rate++ {
		quantities := make([]int, 10)
		for i := range quantities {
			quantities[i] = rate
		}
		m := c.Metrics(stock, salesSeries(quantities...))
		if prev >= 0 && m.DaysUntilSellout > prev {
			t.Fatalf("rate %d: DaysUntilSellout %d > previous %d", rate, m.DaysUntilSellout, prev)
		}
		prev = m.DaysUntilSellout
	}
}

func TestClassifyStockThresholdsAreStrict(t *testing.T) {
	tests := []struct {
		days int
		want domain.StockStatus
	}{
		{0, domain.StockCritical},
		{6, domain.StockCritical},
		{7, domain.StockLow},
		{13, domain.StockLow},
		{14, domain.StockOptimal},
		{60, domain.StockOptimal},
		{61, domain.StockOverstock},
		{domain.SelloutSentinel, domain.StockOverstock},
	}

	for _, tt := range tests {
		if got := domain.ClassifyStock(tt.days); got != tt.want {
			t.Errorf("ClassifyStock(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestForecastHorizonsNondecreasing(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	series := [][]int{
		{5, 5, 5, 5, 5},
		{1, 2, 3, 4, 5, 6, 7},
		{9, 7, 5, 3, 1},
		{3},
	}

	for _, quantities := range series {
		h := c.Forecast(salesSeries(quantities...))
		if h.Forecast7d < 0 {
			t.Errorf("%v: negative 7d forecast %d", quantities, h.Forecast7d)
		}
		if h.Forecast30d < h.Forecast7d || h.Forecast90d < h.Forecast30d || h.Forecast365d < h.Forecast90d {
			t.Errorf("%v: horizons not nondecreasing: %d %d %d %d",
				quantities, h.Forecast7d, h.Forecast30d, h.Forecast90d, h.Forecast365d)
		}
	}
}

func TestForecastSinglePointIsStable(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	h := c.Forecast(salesSeries(4))
	if h.TrendStatus != domain.TrendStable {
		t.Errorf("TrendStatus = %q, want stable", h.TrendStatus)
	}
	if h.GrowthFactor != 1.0 {
		t.Errorf("GrowthFactor = %v, want 1.0", h.GrowthFactor)
	}
	// One point at 4/day: 7d forecast is 4*7.
	if h.Forecast7d != 28 {
		t.Errorf("Forecast7d = %d, want 28", h.Forecast7d)
	}
}

func TestForecastTrendDirection(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	up := c.Forecast(salesSeries(1, 3, 5, 7, 9, 11))
	if up.TrendStatus != domain.TrendUp {
		t.Errorf("rising series TrendStatus = %q, want trending", up.TrendStatus)
	}

	down := c.Forecast(salesSeries(11, 9, 7, 5, 3, 1))
	if down.TrendStatus != domain.TrendDown {
		t.Errorf("falling series TrendStatus = %q, want declining", down.TrendStatus)
	}

	flat := c.Forecast(salesSeries(5, 5, 5, 5, 5, 5))
	if flat.TrendStatus != domain.TrendStable {
		t.Errorf("flat series TrendStatus = %q, want stable", flat.TrendStatus)
	}
}

func TestForecastGrowthFactorClamped(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	steepUp := c.Forecast(salesSeries(1, 20, 40, 60, 80, 100))
	if steepUp.GrowthFactor != 1.2 {
		t.Errorf("GrowthFactor = %v, want clamped to 1.2", steepUp.GrowthFactor)
	}

	steepDown := c.Forecast(salesSeries(100, 80, 60, 40, 20, 1))
	if steepDown.GrowthFactor != 0.8 {
		t.Errorf("GrowthFactor = %v, want clamped to 0.8", steepDown.GrowthFactor)
	}
}

func TestForecastConfidenceBounds(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	// Perfectly stable history clamps at the ceiling.
	stable := c.Forecast(salesSeries(5, 5, 5, 5, 5))
	if stable.ConfidenceScore != 0.95 {
		t.Errorf("stable ConfidenceScore = %v, want 0.95", stable.ConfidenceScore)
	}

	// All-zero history clamps at the floor.
	zero := c.Forecast(salesSeries(0, 0, 0))
	if zero.ConfidenceScore != 0.3 {
		t.Errorf("zero ConfidenceScore = %v, want 0.3", zero.ConfidenceScore)
	}

	// Wildly uneven history stays within bounds.
	noisy := c.Forecast(salesSeries(1, 90, 2, 85, 1, 95))
	if noisy.ConfidenceScore < 0.3 || noisy.ConfidenceScore > 0.95 {
		t.Errorf("noisy ConfidenceScore = %v, want within [0.3, 0.95]", noisy.ConfidenceScore)
	}
}

func TestForecastUnsortedInputHandled(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	start := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	// Rising trend delivered out of order.
	sales := []domain.SalesRecord{
		{Date: start.AddDate(0, 0, 4), QuantitySold: 9},
		{Date: start, QuantitySold: 1},
		{Date: start.AddDate(0, 0, 2), QuantitySold: 5},
		{Date: start.AddDate(0, 0, 1), QuantitySold: 3},
		{Date: start.AddDate(0, 0, 3), QuantitySold: 7},
	}

	h := c.Forecast(sales)
	if h.TrendStatus != domain.TrendUp {
		t.Errorf("TrendStatus = %q, want trending (dates must be sorted before fitting)", h.TrendStatus)
	}
}

func TestForecastZeroHistoryIsZero(t *testing.T) {
	c := NewCalculator(DefaultPolicy())

	h := c.Forecast(salesSeries(0, 0, 0, 0))
	if h.Forecast7d != 0 || h.Forecast365d != 0 {
		t.Errorf("zero history produced nonzero forecasts: %+v", h)
	}
}
