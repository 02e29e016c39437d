package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/service"
)

type ForecastHandler struct {
	forecasts *service.ForecastService
}

func NewForecastHandler(forecasts *service.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecasts: forecasts}
}

// ListForecasts returns the stored forecast set for one user.
func (h *ForecastHandler) ListForecasts(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	forecasts, err := h.forecasts.ListByUser(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to list forecasts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch forecasts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts, "total": len(forecasts)})
}

// Regenerate recomputes the user's forecast set on demand.
func (h *ForecastHandler) Regenerate(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	forecasts, err := h.forecasts.Regenerate(c.Request.Context(), userID)
	if err != nil {
		log.Error().Err(err).Msg("forecast regeneration failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to regenerate forecasts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"forecasts": forecasts, "total": len(forecasts)})
}
