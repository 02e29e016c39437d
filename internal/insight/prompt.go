package insight

import (
	"fmt"
	"strings"

	"github.com/stocksense/backend-go/internal/domain"
)

// BuildPrompt renders the user prompt for one insight kind from the product
// context. Product data is embedded as plain lines; the model only ever sees
// text, never our schema.
func BuildPrompt(ic Context) string {
	var b strings.Builder

	switch ic.Kind {
	case domain.InsightPricing:
		b.WriteString("Review the following products and suggest pricing adjustments. ")
		b.WriteString("Consider cost price, current price, and how fast each product sells. ")
		b.WriteString("Give one short recommendation per product.\n\n")
	case domain.InsightCompetitor:
		b.WriteString("For each of the following products, describe what a shop owner should ")
		b.WriteString("check about competing offers in the same category, and what would make ")
		b.WriteString("this product stand out.\n\n")
	case domain.InsightMarketing:
		b.WriteString("Suggest marketing actions or promotional events for the following ")
		b.WriteString("products, taking their stock situation into account. Overstocked items ")
		b.WriteString("are promotion candidates; items about to sell out are not.\n\n")
	case domain.InsightAlert:
		b.WriteString("Write a short, plain-language alert summary for a shop owner about the ")
		b.WriteString("following inventory situation. Lead with the most urgent items.\n\n")
	default:
		b.WriteString("Summarize the following inventory data for a shop owner.\n\n")
	}

	b.WriteString("PRODUCTS:\n")
	for _, p := range ic.Products {
		fmt.Fprintf(&b, "- %s (category %s): cost %.2f, price %.2f, stock %d\n",
			p.Name, orUnknown(p.Category), p.CostPrice, p.CurrentPrice, p.CurrentStock)
	}

	if len(ic.Metrics) > 0 {
		b.WriteString("\nSTOCK METRICS:\n")
		for _, m := range ic.Metrics {
			fmt.Fprintf(&b, "- %s: %.2f avg daily sales, %d days until sellout, status %s\n",
				m.ProductName, m.DailyAvgSales, m.DaysUntilSellout, m.Status)
		}
	}

	if len(ic.Forecasts) > 0 {
		b.WriteString("\nFORECASTS (units):\n")
		for _, f := range ic.Forecasts {
			fmt.Fprintf(&b, "- %s: 7d=%d 30d=%d 90d=%d 365d=%d, trend %s\n",
				f.ProductName, f.Forecast7d, f.Forecast30d, f.Forecast90d, f.Forecast365d, f.TrendStatus)
		}
	}

	return b.String()
}

func systemPrompt(kind string) string {
	switch kind {
	case domain.InsightPricing:
		return "You are a retail pricing advisor. Answer in concise plain prose, no markdown tables."
	case domain.InsightCompetitor:
		return "You are a retail market analyst. Answer in concise plain prose. Never invent specific competitor prices or figures."
	case domain.InsightMarketing:
		return "You are a retail marketing advisor. Answer in concise plain prose."
	case domain.InsightAlert:
		return "You write short operational alerts for small retailers. Be direct and brief."
	}
	return "You are an inventory assistant for small retailers. Answer in concise plain prose."
}

func orUnknown(s string) string {
	if strings.TrimSpace(s) == "" {
		return "unknown"
	}
	return s
}
