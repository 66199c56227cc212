package repository

import (
	"context"

	"github.com/news-composer/internal/database"
	"github.com/news-composer/internal/models"
)

// ArticleFilter narrows List results
type ArticleFilter struct {
	Status string
	Limit  int
	Offset int
}

// ArticleRepository defines the interface for article data operations. GetContent
// and UpdateContent are the load and save collaborators of the editor.
type ArticleRepository interface {
	Create(ctx context.Context, article *models.Article) error
	BatchInsert(ctx context.Context, articles []*models.Article) (int, error)
	GetByID(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) (bool, error)
	List(ctx context.Context, filter ArticleFilter) ([]*models.Article, int, error)
	Exists(ctx context.Context, id string) (bool, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	GetContent(ctx context.Context, id string) (string, bool, error)
	UpdateContent(ctx context.Context, id, content string) (bool, error)
	Count(ctx context.Context) (int, error)
	StreamAll(ctx context.Context, callback func(*models.Article) error) error
}

// Repositories holds all repository interfaces
type Repositories struct {
	Article ArticleRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Article: NewArticleRepo(db),
	}
}
