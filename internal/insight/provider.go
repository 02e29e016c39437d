package insight

import (
	"context"
	"errors"

	"github.com/stocksense/backend-go/internal/domain"
)

// ErrRemote wraps failures of the external text-generation service so
// handlers can map them to a remote-call failure response.
var ErrRemote = errors.New("text generation failed")

// Context carries the structured product data a prompt is built from. Only
// Kind and Products are required; the rest enrich the prompt when present.
type Context struct {
	Kind      string
	Products  []domain.Product
	Metrics   []domain.InventoryMetric
	Forecasts []domain.ForecastRecord
}

// TextInsightProvider generates a narrative from product context. The
// response is unstructured prose with no numeric contract: callers must not
// treat anything in the text as computed data, and any numeric fields stored
// alongside it come from elsewhere or are explicitly marked unavailable.
type TextInsightProvider interface {
	Generate(ctx context.Context, ic Context) (string, error)
}
