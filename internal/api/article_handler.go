package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/service"
)

// ArticleHandler handles article endpoints
type ArticleHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewArticleHandler creates a new ArticleHandler
func NewArticleHandler(services *service.Services, log zerolog.Logger) *ArticleHandler {
	return &ArticleHandler{
		services: services,
		log:      log.With().Str("handler", "article").Logger(),
	}
}

// Create handles POST /v1/articles
func (h *ArticleHandler) Create(c *gin.Context) {
	var req models.CreateArticleRequest
	if !bindJSON(c, &req) {
		return
	}

	article, err := h.services.Article.Create(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, article)
}

// List handles GET /v1/articles?status=&limit=&offset=
func (h *ArticleHandler) List(c *gin.Context) {
	var req models.ListArticlesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid query parameters", "details": err.Error()})
		return
	}
	if !validate(c, &req) {
		return
	}

	list, err := h.services.Article.List(c.Request.Context(), &req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Get handles GET /v1/articles/:id
func (h *ArticleHandler) Get(c *gin.Context) {
	article, err := h.services.Article.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Update handles PATCH /v1/articles/:id
func (h *ArticleHandler) Update(c *gin.Context) {
	var req models.UpdateArticleRequest
	if !bindJSON(c, &req) {
		return
	}

	article, err := h.services.Article.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// Delete handles DELETE /v1/articles/:id
func (h *ArticleHandler) Delete(c *gin.Context) {
	if err := h.services.Article.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Publish handles POST /v1/articles/:id/publish
func (h *ArticleHandler) Publish(c *gin.Context) {
	article, err := h.services.Article.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

// GetContent handles GET /v1/articles/:id/content
func (h *ArticleHandler) GetContent(c *gin.Context) {
	content, err := h.services.Article.LoadComposition(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// ReplaceContent handles PUT /v1/articles/:id/content
func (h *ArticleHandler) ReplaceContent(c *gin.Context) {
	var req models.ReplaceContentRequest
	if !bindJSON(c, &req) {
		return
	}

	content, err := h.services.Article.ReplaceComposition(c.Request.Context(), c.Param("id"), req.Content)
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"content": content})
}

// Render handles GET /v1/articles/:id/render
func (h *ArticleHandler) Render(c *gin.Context) {
	outputs, err := h.services.Article.Render(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"blocks": outputs})
}

// Issues handles GET /v1/articles/:id/issues
func (h *ArticleHandler) Issues(c *gin.Context) {
	issues, err := h.services.Article.Issues(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"issues": issues, "count": len(issues)})
}

// BlockTypes handles GET /v1/block-types
func (h *ArticleHandler) BlockTypes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"block_types": h.services.Article.BlockTypes()})
}
