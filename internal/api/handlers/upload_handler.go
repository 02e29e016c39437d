package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/stocksense/backend-go/internal/ingest"
	"github.com/stocksense/backend-go/internal/service"
)

type UploadHandler struct {
	ingestService *service.IngestService
}

func NewUploadHandler(ingestService *service.IngestService) *UploadHandler {
	return &UploadHandler{ingestService: ingestService}
}

// UploadSales ingests one sales file for the user named in the user_id form
// field and returns the ingestion summary plus the cleaned rows.
func (h *UploadHandler) UploadSales(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	result, rows, err := h.ingestService.ProcessUpload(
		c.Request.Context(), userID, fileHeader.Filename, fileHeader.Size, file)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("sales upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": result,
		"rows":    rows,
	})
}

// CleanSales runs only the cleaning step and streams the cleaned CSV back,
// with status and issues columns appended. Nothing is persisted.
func (h *UploadHandler) CleanSales(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	rows, err := h.ingestService.CleanFile(file)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("sales cleaning failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clean file"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="cleaned_`+fileHeader.Filename+`"`)
	if err := ingest.WriteCSV(c.Writer, rows); err != nil {
		log.Error().Err(err).Msg("failed to stream cleaned csv")
	}
}

// BulkProducts applies the strict bulk product catalog format.
func (h *UploadHandler) BulkProducts(c *gin.Context) {
	userID, ok := userIDFromRequest(c)
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to open uploaded file"})
		return
	}
	defer file.Close()

	applied, err := h.ingestService.BulkUpsertProducts(c.Request.Context(), userID, file)
	if err != nil {
		if errors.Is(err, ingest.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Error().Err(err).Msg("bulk product upload failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply bulk products"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"products_applied": applied})
}

// ResetUserData deletes everything stored for the user in the path.
func (h *UploadHandler) ResetUserData(c *gin.Context) {
	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user id must be a valid UUID"})
		return
	}

	if err := h.ingestService.ResetUserData(c.Request.Context(), userID); err != nil {
		log.Error().Err(err).Str("user_id", userID.String()).Msg("user data reset failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reset user data"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}
