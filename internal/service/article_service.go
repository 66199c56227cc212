package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/render"
	"github.com/news-composer/internal/repository"
	"github.com/news-composer/internal/validation"
)

// openSessions is the part of the editor that must follow content overwritten or
// deleted through the article API.
type openSessions interface {
	ReplaceArticle(articleID string, c composition.Composition) int
	CloseArticle(articleID string) int
}

// articleService is the concrete implementation of ArticleService
type articleService struct {
	repo     repository.ArticleRepository
	sessions openSessions
	registry *blocks.Registry
	cfg      *config.Config
	log      zerolog.Logger
}

// newArticleService creates a new ArticleService
func newArticleService(repo repository.ArticleRepository, sessions openSessions, registry *blocks.Registry, cfg *config.Config, log zerolog.Logger) *articleService {
	return &articleService{
		repo:     repo,
		sessions: sessions,
		registry: registry,
		cfg:      cfg,
		log:      log.With().Str("service", "article").Logger(),
	}
}

// Create creates a draft article with an empty composition
func (s *articleService) Create(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error) {
	id := uuid.NewString()

	articleSlug := req.Slug
	if articleSlug == "" {
		articleSlug = deriveSlug(req.Title, id)
	}
	taken, err := s.repo.SlugExists(ctx, articleSlug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		return nil, ErrSlugTaken
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}
	article := &models.Article{
		ID:       id,
		Slug:     articleSlug,
		Title:    strings.TrimSpace(req.Title),
		Content:  "[]",
		AuthorID: req.AuthorID,
		Tags:     tags,
		Status:   models.StatusDraft,
	}
	if err := s.repo.Create(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to create article: %w", err)
	}

	s.log.Info().Str("article_id", article.ID).Str("slug", article.Slug).Msg("Article created")
	return article, nil
}

// Get returns an article with its content deserialized
func (s *articleService) Get(ctx context.Context, id string) (*models.ArticleResponse, error) {
	article, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return &models.ArticleResponse{Article: article, Content: s.deserialize(article.ID, article.Content)}, nil
}

// Update changes article metadata
func (s *articleService) Update(ctx context.Context, id string, req *models.UpdateArticleRequest) (*models.Article, error) {
	article, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil && *req.Slug != article.Slug {
		taken, err := s.repo.SlugExists(ctx, *req.Slug)
		if err != nil {
			return nil, fmt.Errorf("failed to check slug: %w", err)
		}
		if taken {
			return nil, ErrSlugTaken
		}
		article.Slug = *req.Slug
	}
	if req.Tags != nil {
		article.Tags = *req.Tags
	}

	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to update article: %w", err)
	}
	return article, nil
}

// Delete removes an article and its composition
func (s *articleService) Delete(ctx context.Context, id string) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete article: %w", err)
	}
	if !deleted {
		return ErrArticleNotFound
	}
	if s.sessions != nil {
		s.sessions.CloseArticle(id)
	}
	s.log.Info().Str("article_id", id).Msg("Article deleted")
	return nil
}

// Publish marks an article published. The first publication time is kept on
// later calls.
func (s *articleService) Publish(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	article.Status = models.StatusPublished
	if article.PublishedAt == nil {
		now := time.Now().UTC().Truncate(time.Second)
		article.PublishedAt = &now
	}
	if err := s.repo.Update(ctx, article); err != nil {
		return nil, fmt.Errorf("failed to publish article: %w", err)
	}
	s.log.Info().Str("article_id", id).Msg("Article published")
	return article, nil
}

// List returns a page of articles
func (s *articleService) List(ctx context.Context, req *models.ListArticlesRequest) (*models.ArticleList, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 50
	}
	articles, total, err := s.repo.List(ctx, repository.ArticleFilter{
		Status: req.Status,
		Limit:  limit,
		Offset: req.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	return &models.ArticleList{Articles: articles, Total: total, Limit: limit, Offset: req.Offset}, nil
}

// LoadComposition fetches and deserializes an article's content
func (s *articleService) LoadComposition(ctx context.Context, id string) (composition.Composition, error) {
	content, found, err := s.repo.GetContent(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load content: %w", err)
	}
	if !found {
		return nil, ErrArticleNotFound
	}
	return s.deserialize(id, content), nil
}

// ReplaceComposition overwrites an article's content. Legacy shapes are normalized
// into a block array before they are stored.
func (s *articleService) ReplaceComposition(ctx context.Context, id string, content json.RawMessage) (composition.Composition, error) {
	if limit := s.cfg.Editor.MaxContentBytes; limit > 0 && len(content) > limit {
		return nil, ErrContentTooLarge
	}

	c, report := composition.DeserializeWithReport(contentInput(content))
	if report.Legacy {
		s.log.Debug().Str("article_id", id).Msg("Replacement content stored as legacy text block")
	}
	serialized, err := composition.Serialize(c)
	if err != nil {
		return nil, err
	}
	found, err := s.repo.UpdateContent(ctx, id, serialized)
	if err != nil {
		return nil, fmt.Errorf("failed to replace content: %w", err)
	}
	if !found {
		return nil, ErrArticleNotFound
	}
	// Open sessions continue from the new content
	if s.sessions != nil {
		s.sessions.ReplaceArticle(id, c)
	}
	return c, nil
}

// Render renders an article's composition in preview mode
func (s *articleService) Render(ctx context.Context, id string) ([]render.Output, error) {
	c, err := s.LoadComposition(ctx, id)
	if err != nil {
		return nil, err
	}
	renderer := render.New(s.registry, blocks.ModePreview,
		render.WithCarouselInterval(s.cfg.Editor.CarouselInterval),
		render.WithRawHTML(s.cfg.Render.AllowRawHTML),
	)
	defer renderer.Close()
	return renderer.Render(c), nil
}

// RenderPublic renders the body of a published article. Drafts are not found.
func (s *articleService) RenderPublic(ctx context.Context, articleSlug string) (*models.Article, template.HTML, error) {
	article, err := s.repo.GetBySlug(ctx, articleSlug)
	if err != nil {
		return nil, "", fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil || article.Status != models.StatusPublished {
		return nil, "", ErrArticleNotFound
	}

	renderer := render.New(s.registry, blocks.ModePublic,
		render.WithCarouselInterval(s.cfg.Editor.CarouselInterval),
		render.WithRawHTML(s.cfg.Render.AllowRawHTML),
	)
	defer renderer.Close()
	return article, renderer.RenderHTML(s.deserialize(article.ID, article.Content)), nil
}

// Issues lists blocks the renderer skips or whose data breaks their type's schema
func (s *articleService) Issues(ctx context.Context, id string) ([]models.ContentIssue, error) {
	c, err := s.LoadComposition(ctx, id)
	if err != nil {
		return nil, err
	}
	return validation.Diagnose(s.registry, c), nil
}

// BlockTypes lists the registered block types
func (s *articleService) BlockTypes() []models.BlockType {
	types := s.registry.Types()
	out := make([]models.BlockType, 0, len(types))
	for _, t := range types {
		def, _ := s.registry.Definition(t)
		out = append(out, models.BlockType{
			Type:    string(t),
			Label:   def.Label,
			Default: s.registry.DefaultData(t),
			Schema:  def.Schema,
		})
	}
	return out
}

// Count returns the number of articles
func (s *articleService) Count(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *articleService) find(ctx context.Context, id string) (*models.Article, error) {
	article, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get article: %w", err)
	}
	if article == nil {
		return nil, ErrArticleNotFound
	}
	return article, nil
}

func (s *articleService) deserialize(articleID, content string) composition.Composition {
	c, report := composition.DeserializeWithReport(content)
	if report.Legacy || report.RepairedIDs > 0 || report.Malformed > 0 {
		s.log.Debug().
			Str("article_id", articleID).
			Bool("legacy", report.Legacy).
			Int("repaired_ids", report.RepairedIDs).
			Int("malformed", report.Malformed).
			Msg("Recovered stored content")
	}
	return c
}

// contentInput unwraps a JSON string so legacy text reaches the deserializer as
// text rather than as a quoted JSON value.
func contentInput(raw json.RawMessage) any {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var text string
		if err := json.Unmarshal(trimmed, &text); err == nil {
			return text
		}
	}
	return []byte(trimmed)
}

// deriveSlug builds a slug from a title, falling back to one based on the id
func deriveSlug(title, id string) string {
	if normalized, err := slug.Normalize(title); err == nil && normalized != "" {
		return normalized
	}
	return "article-" + strings.SplitN(id, "-", 2)[0]
}
