package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/domain"
	"github.com/stocksense/backend-go/internal/insight"
	"github.com/stocksense/backend-go/internal/service"
)

type InsightHandler struct {
	insights *service.InsightService
}

func NewInsightHandler(insights *service.InsightService) *InsightHandler {
	return &InsightHandler{insights: insights}
}

// Generate creates one insight of the kind named in the path. The narrative
// is free text from the external model; when no computed analysis backs it,
// data_available is false and clients must render "not yet computed" rather
// than numbers from the prose.
func (h *InsightHandler) Generate(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	kind := strings.ToLower(c.Param("kind"))
	if !domain.ValidInsightKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown insight kind: " + kind})
		return
	}

	productName := strings.TrimSpace(c.Query("product"))

	record, err := h.insights.Generate(c.Request.Context(), userID, kind, productName)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNoProducts):
			c.JSON(http.StatusConflict, gin.H{"error": "no product data uploaded yet"})
		case errors.Is(err, insight.ErrRemote):
			log.Error().Err(err).Str("kind", kind).Msg("insight generation failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "insight service is unavailable"})
		default:
			log.Error().Err(err).Str("kind", kind).Msg("insight generation failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate insight"})
		}
		return
	}

	c.JSON(http.StatusOK, record)
}

// List returns stored insights, optionally filtered with ?kind=.
func (h *InsightHandler) List(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	kind := strings.ToLower(strings.TrimSpace(c.Query("kind")))
	if kind != "" && !domain.ValidInsightKind(kind) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown insight kind: " + kind})
		return
	}

	records, err := h.insights.ListByUser(c.Request.Context(), userID, kind)
	if err != nil {
		log.Error().Err(err).Msg("failed to list insights")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch insights"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"insights": records, "total": len(records)})
}
