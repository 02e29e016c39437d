package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/repository"
	"github.com/stocksense/backend-go/internal/service"
)

type DashboardHandler struct {
	dashboard *service.DashboardService
	uploads   repository.UploadRepository
}

func NewDashboardHandler(dashboard *service.DashboardService, uploads repository.UploadRepository) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, uploads: uploads}
}

// GetSummary returns the aggregated dashboard view for one user.
func (h *DashboardHandler) GetSummary(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	summary, err := h.dashboard.Summary(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to build dashboard summary")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dashboard summary"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

// ListProducts returns the user's product catalog.
func (h *DashboardHandler) ListProducts(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	products, err := h.dashboard.Products(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list products")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// ListMetrics returns derived inventory metrics, optionally filtered with
// ?status=critical|low|optimal|overstock.
func (h *DashboardHandler) ListMetrics(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	var status domain.StockStatus
	if raw := strings.TrimSpace(c.Query("status")); raw != "" {
		switch domain.StockStatus(strings.ToLower(raw)) {
		case domain.StockCritical, domain.StockLow, domain.StockOptimal, domain.StockOverstock:
			status = domain.StockStatus(strings.ToLower(raw))
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown stock status: " + raw})
			return
		}
	}

	metrics, err := h.dashboard.Metrics(c.Request.Context(), userID, status)
	if err != nil {
		log.Error().Err(err).Msg("failed to list metrics")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch metrics"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"metrics": metrics, "total": len(metrics)})
}

// ListUploads returns the user's upload history ledger.
func (h *DashboardHandler) ListUploads(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	uploads, err := h.uploads.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list uploads")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch uploads"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"uploads": uploads, "total": len(uploads)})
}
