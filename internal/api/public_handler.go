package api

import (
	"bytes"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/service"
)

var articlePage = template.Must(template.New("article").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{ .Title }}</title>
</head>
<body>
  <article class="article" data-article-id="{{ .ID }}">
    <h1 class="article__title">{{ .Title }}</h1>
    {{- with .PublishedAt }}
    <time class="article__date" datetime="{{ .Format "2006-01-02T15:04:05Z07:00" }}">{{ .Format "January 2, 2006" }}</time>
    {{- end }}
    {{ .Body }}
  </article>
</body>
</html>
`))

// PublicHandler serves published articles as HTML
type PublicHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(services *service.Services, log zerolog.Logger) *PublicHandler {
	return &PublicHandler{
		services: services,
		log:      log.With().Str("handler", "public").Logger(),
	}
}

// ShowArticle handles GET /articles/:slug
func (h *PublicHandler) ShowArticle(c *gin.Context) {
	article, body, err := h.services.Article.RenderPublic(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeServiceError(c, h.log, err)
		return
	}

	var buf bytes.Buffer
	err = articlePage.Execute(&buf, struct {
		ID          string
		Title       string
		PublishedAt *time.Time
		Body        template.HTML
	}{article.ID, article.Title, article.PublishedAt, body})
	if err != nil {
		h.log.Error().Err(err).Str("article_id", article.ID).Msg("Failed to render article page")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to render article"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
