package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/service"
)

// NewRouter creates and configures the Gin router. ctx bounds the lifetime of the
// rate limiter's cleanup goroutine.
func NewRouter(ctx context.Context, services *service.Services, cfg *config.Config, log zerolog.Logger) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(recoveryMiddleware(log))
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware(cfg.Server.AllowedOrigins))

	// Handlers
	articleHandler := NewArticleHandler(services, log)
	editorHandler := NewEditorHandler(services, cfg, log)
	importHandler := NewImportHandler(services, cfg, log)
	exportHandler := NewExportHandler(services, log)
	publicHandler := NewPublicHandler(services, log)

	// Health check
	router.GET("/health", healthCheck)
	router.GET("/metrics", metricsHandler(services))

	// Public article pages
	router.GET("/articles/:slug", publicHandler.ShowArticle)

	// API v1
	v1 := router.Group("/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(rateLimitMiddleware(ctx, cfg.RateLimit, log))
	}
	{
		v1.GET("/block-types", articleHandler.BlockTypes)

		articles := v1.Group("/articles")
		{
			articles.POST("", articleHandler.Create)
			articles.GET("", articleHandler.List)
			articles.GET("/:id", articleHandler.Get)
			articles.PATCH("/:id", articleHandler.Update)
			articles.DELETE("/:id", articleHandler.Delete)
			articles.POST("/:id/publish", articleHandler.Publish)
			articles.GET("/:id/content", articleHandler.GetContent)
			articles.PUT("/:id/content", articleHandler.ReplaceContent)
			articles.GET("/:id/render", articleHandler.Render)
			articles.GET("/:id/issues", articleHandler.Issues)
		}

		sessions := v1.Group("/editor/sessions")
		{
			sessions.POST("", editorHandler.Open)
			sessions.GET("/:session_id", editorHandler.Get)
			sessions.DELETE("/:session_id", editorHandler.Close)
			sessions.POST("/:session_id/blocks", editorHandler.AddBlock)
			sessions.PATCH("/:session_id/blocks/:block_id", editorHandler.UpdateBlock)
			sessions.DELETE("/:session_id/blocks/:block_id", editorHandler.RemoveBlock)
			sessions.POST("/:session_id/blocks/:block_id/duplicate", editorHandler.DuplicateBlock)
			sessions.POST("/:session_id/reorder", editorHandler.Reorder)
			sessions.POST("/:session_id/drag", editorHandler.Drag)
			sessions.POST("/:session_id/keys", editorHandler.Key)
			sessions.GET("/:session_id/preview", editorHandler.Preview)
			sessions.GET("/:session_id/forms", editorHandler.Forms)
			sessions.POST("/:session_id/save", editorHandler.Save)
			sessions.GET("/:session_id/ws", editorHandler.Stream)
		}

		v1.POST("/imports", importHandler.CreateImport)
		v1.GET("/exports", exportHandler.StreamExport)
	}

	return router
}

// healthCheck returns the health status
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"service":   "news-composer",
	})
}

// metricsHandler returns article and editing metrics
func metricsHandler(services *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		articlesCount, _ := services.Export.GetCount(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"database": gin.H{
				"articles": articlesCount,
			},
			"editor": gin.H{
				"open_sessions": services.Editor.Count(),
			},
			"timestamp": time.Now().Format(time.RFC3339),
		})
	}
}
