package api

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/stocksense/backend-go/internal/api/handlers"
	"github.com/stocksense/backend-go/internal/api/middleware"
	"github.com/stocksense/backend-go/internal/repository"
	"github.com/stocksense/backend-go/internal/service"
)

// Services bundles everything the router exposes. Insights stays nil when no
// provider is configured; its routes respond 503 in that case.
type Services struct {
	Ingest    *service.IngestService
	Dashboard *service.DashboardService
	Forecast  *service.ForecastService
	Insight   *service.InsightService
	Uploads   repository.UploadRepository
}

func NewRouter(services *Services, allowedOrigins []string) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	router.Use(cors.New(corsConfig(allowedOrigins)))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	uploadHandler := handlers.NewUploadHandler(services.Ingest)
	salesGroup := apiGroup.Group("/sales")
	{
		salesGroup.POST("/upload", uploadHandler.UploadSales)
		salesGroup.POST("/clean", uploadHandler.CleanSales)
	}
	apiGroup.POST("/products/bulk", uploadHandler.BulkProducts)
	apiGroup.DELETE("/users/:id/data", uploadHandler.ResetUserData)

	dashboardHandler := handlers.NewDashboardHandler(services.Dashboard, services.Uploads)
	apiGroup.GET("/dashboard", dashboardHandler.GetSummary)
	apiGroup.GET("/products", dashboardHandler.ListProducts)
	apiGroup.GET("/metrics", dashboardHandler.ListMetrics)
	apiGroup.GET("/uploads", dashboardHandler.ListUploads)

	forecastHandler := handlers.NewForecastHandler(services.Forecast)
	forecastGroup := apiGroup.Group("/forecasts")
	{
		forecastGroup.GET("", forecastHandler.ListForecasts)
		forecastGroup.POST("/regenerate", forecastHandler.Regenerate)
	}

	if services.Insight != nil {
		insightHandler := handlers.NewInsightHandler(services.Insight)
		insightGroup := apiGroup.Group("/insights")
		{
			insightGroup.GET("", insightHandler.List)
			insightGroup.POST("/:kind", insightHandler.Generate)
		}
	} else {
		apiGroup.Any("/insights/*rest", func(c *gin.Context) {
			c.JSON(503, gin.H{"error": "insight generation is not configured"})
		})
	}

	return router
}

func corsConfig(allowedOrigins []string) cors.Config {
	config := cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	if len(allowedOrigins) == 0 {
		return config
	}

	normalized, allowAll := normalizeAllowedOrigins(allowedOrigins)
	if allowAll {
		config.AllowOrigins = nil
		config.AllowOriginFunc = func(origin string) bool { return true }
	} else if len(normalized) > 0 {
		config.AllowOrigins = normalized
	}
	return config
}

func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		for _, part := range strings.Split(origin, ",") {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
