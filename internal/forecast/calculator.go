package forecast

import (
	"math"
	"sort"

	"github.com/stocksense/backend-go/internal/domain"
)

// Policy holds the forecast tuning knobs. The decay exponents shorten the
// effective growth compounding for longer horizons; the schedule is a fixed
// product decision, not a derived one.
type Policy struct {
	MaxHistory     int
	Decay30        float64
	Decay90        float64
	Decay365       float64
	GrowthMin      float64
	GrowthMax      float64
	ConfidenceMin  float64
	ConfidenceMax  float64
	TrendThreshold float64
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		MaxHistory:     30,
		Decay30:        0.9,
		Decay90:        0.8,
		Decay365:       0.7,
		GrowthMin:      0.8,
		GrowthMax:      1.2,
		ConfidenceMin:  0.3,
		ConfidenceMax:  0.95,
		TrendThreshold: 0.1,
	}
}

// Metrics is the per-product inventory snapshot derived from sales history.
type Metrics struct {
	DailyAvgSales    float64
	DaysUntilSellout int
	Status           domain.StockStatus
}

// Horizons is the set of unit forecasts for one product.
type Horizons struct {
	Forecast7d      int
	Forecast30d     int
	Forecast90d     int
	Forecast365d    int
	GrowthFactor    float64
	TrendStatus     domain.TrendStatus
	ConfidenceScore float64
}

// Calculator computes inventory metrics and naive linear-trend forecasts.
// It is a pure batch computation with no state.
type Calculator struct {
	policy Policy
}

func NewCalculator(policy Policy) *Calculator {
	if policy.MaxHistory <= 0 {
		policy = DefaultPolicy()
	}
	return &Calculator{policy: policy}
}

// Metrics computes the daily average sale rate over the most recent window
// of sales and classifies the current stock level.
func (c *Calculator) Metrics(currentStock int, sales []domain.SalesRecord) Metrics {
	recent := recentQuantities(sales, c.policy.MaxHistory)

	var total int
	for _, q := range recent {
		total += q
	}
	dailyAvg := float64(total) / math.Max(float64(len(recent)), 1)

	days := domain.SelloutSentinel
	if dailyAvg > 0 {
		days = int(math.Floor(float64(currentStock) / dailyAvg))
	}

	return Metrics{
		DailyAvgSales:    dailyAvg,
		DaysUntilSellout: days,
		Status:           domain.ClassifyStock(days),
	}
}

// Forecast extrapolates unit sales over the 7/30/90/365-day horizons from a
// linear-regression slope over the chronologically ordered quantity series.
func (c *Calculator) Forecast(sales []domain.SalesRecord) Horizons {
	quantities := chronologicalQuantities(sales)
	recent := recentQuantities(sales, c.policy.MaxHistory)

	var total int
	for _, q := range recent {
		total += q
	}
	dailyAvg := float64(total) / math.Max(float64(len(recent)), 1)

	slope := regressionSlope(capOutliers(quantities))
	growth := clamp(1+slope*0.1, c.policy.GrowthMin, c.policy.GrowthMax)

	project := func(horizonDays float64, decay float64) int {
		units := dailyAvg * horizonDays * math.Pow(growth, decay)
		return int(math.Round(math.Max(0, units)))
	}

	trend := domain.TrendStable
	switch {
	case slope > c.policy.TrendThreshold:
		trend = domain.TrendUp
	case slope < -c.policy.TrendThreshold:
		trend = domain.TrendDown
	}

	return Horizons{
		Forecast7d:      project(7, 1.0),
		Forecast30d:     project(30, c.policy.Decay30),
		Forecast90d:     project(90, c.policy.Decay90),
		Forecast365d:    project(365, c.policy.Decay365),
		GrowthFactor:    growth,
		TrendStatus:     trend,
		ConfidenceScore: c.confidence(quantities),
	}
}

// confidence scores the stability of the history via the coefficient of
// variation, clamped to the policy bounds.
func (c *Calculator) confidence(quantities []int) float64 {
	if len(quantities) == 0 {
		return c.policy.ConfidenceMin
	}

	var sum float64
	for _, q := range quantities {
		sum += float64(q)
	}
	mean := sum / float64(len(quantities))
	if mean <= 0 {
		return c.policy.ConfidenceMin
	}

	var variance float64
	for _, q := range quantities {
		d := float64(q) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(quantities)))

	return clamp(1-stddev/mean, c.policy.ConfidenceMin, c.policy.ConfidenceMax)
}

// regressionSlope fits quantity against its chronological index with least
// squares. Fewer than two points means no trend.
func regressionSlope(quantities []int) float64 {
	n := len(quantities)
	if n < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, q := range quantities {
		x := float64(i)
		y := float64(q)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := float64(n)*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (float64(n)*sumXY - sumX*sumY) / denom
}

// capOutliers clamps values beyond mean+3σ so a single spike does not swing
// the fitted slope.
func capOutliers(quantities []int) []int {
	if len(quantities) < 2 {
		return quantities
	}

	var sum float64
	for _, q := range quantities {
		sum += float64(q)
	}
	mean := sum / float64(len(quantities))

	var variance float64
	for _, q := range quantities {
		d := float64(q) - mean
		variance += d * d
	}
	stddev := math.Sqrt(variance / float64(len(quantities)))
	if stddev == 0 {
		return quantities
	}

	limit := mean + 3*stddev
	capped := make([]int, len(quantities))
	for i, q := range quantities {
		if float64(q) > limit {
			capped[i] = int(limit)
		} else {
			capped[i] = q
		}
	}
	return capped
}

// chronologicalQuantities orders the series oldest first.
func chronologicalQuantities(sales []domain.SalesRecord) []int {
	ordered := make([]domain.SalesRecord, len(sales))
	copy(ordered, sales)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Date.Before(ordered[j].Date)
	})

	quantities := make([]int, len(ordered))
	for i, s := range ordered {
		quantities[i] = s.QuantitySold
	}
	return quantities
}

// recentQuantities returns the quantities of the most recent max records, in
// chronological order.
func recentQuantities(sales []domain.SalesRecord, max int) []int {
	quantities := chronologicalQuantities(sales)
	if len(quantities) > max {
		quantities = quantities[len(quantities)-max:]
	}
	return quantities
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
