package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/service"
)

// ImportHandler handles import endpoints
type ImportHandler struct {
	services *service.Services
	cfg      *config.Config
	log      zerolog.Logger
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(services *service.Services, cfg *config.Config, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		services: services,
		cfg:      cfg,
		log:      log.With().Str("handler", "import").Logger(),
	}
}

// CreateImport handles POST /v1/imports
// Accepts a multipart file upload or a raw NDJSON body
func (h *ImportHandler) CreateImport(c *gin.Context) {
	ctx := c.Request.Context()
	maxSize := h.cfg.Import.MaxUploadSize

	var (
		body   io.Reader
		source string
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		file, header, err := c.Request.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file upload is required"})
			return
		}
		defer file.Close()

		// Validate file size
		if header.Size > maxSize {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("file too large, max size is %d MB", maxSize/(1024*1024)),
			})
			return
		}

		ext := strings.ToLower(filepath.Ext(header.Filename))
		if ext != ".ndjson" && ext != ".jsonl" && ext != ".json" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "articles import requires an NDJSON file"})
			return
		}
		body, source = file, header.Filename
	} else {
		if c.ContentType() != "application/x-ndjson" {
			c.JSON(http.StatusUnsupportedMediaType, gin.H{"error": "send a multipart file or an application/x-ndjson body"})
			return
		}
		body, source = http.MaxBytesReader(c.Writer, c.Request.Body, maxSize), "body"
	}

	result, err := h.services.Import.ImportArticles(ctx, body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": fmt.Sprintf("body too large, max size is %d MB", maxSize/(1024*1024)),
			})
			return
		}
		writeServiceError(c, h.log, err)
		return
	}

	h.log.Info().
		Str("source", source).
		Int("total", result.TotalRecords).
		Int("successful", result.SuccessfulCount).
		Int("failed", result.FailedCount).
		Msg("Import completed")

	c.JSON(http.StatusOK, result)
}
