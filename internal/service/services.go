package service

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/render"
	"github.com/news-composer/internal/repository"
)

var (
	ErrArticleNotFound   = errors.New("article not found")
	ErrSessionNotFound   = errors.New("editing session not found")
	ErrSlugTaken         = errors.New("slug already in use")
	ErrContentTooLarge   = errors.New("content exceeds maximum size")
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// ArticleService defines the interface for article operations
type ArticleService interface {
	Create(ctx context.Context, req *models.CreateArticleRequest) (*models.Article, error)
	Get(ctx context.Context, id string) (*models.ArticleResponse, error)
	Update(ctx context.Context, id string, req *models.UpdateArticleRequest) (*models.Article, error)
	Delete(ctx context.Context, id string) error
	Publish(ctx context.Context, id string) (*models.Article, error)
	List(ctx context.Context, req *models.ListArticlesRequest) (*models.ArticleList, error)
	LoadComposition(ctx context.Context, id string) (composition.Composition, error)
	ReplaceComposition(ctx context.Context, id string, content json.RawMessage) (composition.Composition, error)
	Render(ctx context.Context, id string) ([]render.Output, error)
	RenderPublic(ctx context.Context, slug string) (*models.Article, template.HTML, error)
	Issues(ctx context.Context, id string) ([]models.ContentIssue, error)
	BlockTypes() []models.BlockType
	Count(ctx context.Context) (int, error)
}

// EditorService defines the interface for editing sessions. Mutations that name a
// block id the session does not hold are no-ops reported through the bool result.
type EditorService interface {
	Open(ctx context.Context, articleID string) (*models.SessionView, error)
	Get(sessionID string) (*models.SessionView, error)
	AddBlock(sessionID string, t blocks.Type) (blocks.Block, bool, error)
	UpdateBlock(sessionID, blockID string, data blocks.Data) (bool, error)
	RemoveBlock(sessionID, blockID string) (bool, error)
	DuplicateBlock(sessionID, blockID string) (blocks.Block, bool, error)
	Reorder(sessionID string, from, to int) (bool, error)
	Drag(sessionID string, req *models.DragEventRequest) (models.DragView, bool, error)
	Key(sessionID, blockID, key string) (bool, error)
	Preview(sessionID string) ([]render.Output, error)
	Forms(sessionID string) ([]models.BlockForm, error)
	Save(ctx context.Context, sessionID string) (models.SaveStatus, error)
	Close(ctx context.Context, sessionID string) error
	Subscribe(sessionID string) (<-chan models.PreviewEvent, func(), error)
	ReplaceArticle(articleID string, c composition.Composition) int
	CloseArticle(articleID string) int
	ReapIdle(now time.Time) int
	CloseAll(ctx context.Context)
	Count() int
}

// Autosaver persists serialized compositions in the background. The latest content
// enqueued for an article wins; older pending content is never written after it.
type Autosaver interface {
	Enqueue(articleID, content string) uint64
	Flush(ctx context.Context, articleID string) (models.SaveStatus, error)
	FlushAll(ctx context.Context)
	Status(articleID string) models.SaveStatus
	OnTick(fn func(now time.Time))
	Discard(articleID string)
	StartProcessor(ctx context.Context)
	StopProcessor()
}

// ImportService defines the interface for import operations
type ImportService interface {
	ImportArticles(ctx context.Context, r io.Reader) (*models.ImportResult, error)
}

// ExportService defines the interface for export operations
type ExportService interface {
	StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error
	GetCount(ctx context.Context) (int, error)
}

// Services holds all service interfaces
type Services struct {
	Article   ArticleService
	Editor    EditorService
	Autosaver Autosaver
	Import    ImportService
	Export    ExportService
}

// NewServices creates all services
func NewServices(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *Services {
	registry := blocks.Default()

	autosaver := newAutosaver(repos.Article, cfg.Editor, log)
	editorSvc := newEditorService(repos.Article, autosaver, registry, cfg, log)
	articleSvc := newArticleService(repos.Article, editorSvc, registry, cfg, log)
	importSvc := newImportService(repos, cfg, log)
	exportSvc := newExportService(repos, log)

	// Idle sessions are reaped on the autosave ticker
	autosaver.OnTick(func(now time.Time) { editorSvc.ReapIdle(now) })

	return &Services{
		Article:   articleSvc,
		Editor:    editorSvc,
		Autosaver: autosaver,
		Import:    importSvc,
		Export:    exportSvc,
	}
}
