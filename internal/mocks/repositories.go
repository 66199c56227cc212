package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/repository"
)

// Verify interface compliance
var _ repository.ArticleRepository = (*MockArticleRepository)(nil)

// MockArticleRepository is an in-memory implementation of ArticleRepository.
// It is safe for concurrent use so autosave workers can write through it.
type MockArticleRepository struct {
	mu                 sync.Mutex
	Articles           map[string]*models.Article
	SlugToArticle      map[string]*models.Article
	InsertError        error
	InsertedCount      int
	BatchInsertFunc    func(ctx context.Context, articles []*models.Article) (int, error)
	BatchInsertCalls   int
	UpdateContentFunc  func(ctx context.Context, id, content string) (bool, error)
	UpdateContentCalls int
	GetContentError    error
}

func NewMockArticleRepository() *MockArticleRepository {
	return &MockArticleRepository{
		Articles:      make(map[string]*models.Article),
		SlugToArticle: make(map[string]*models.Article),
	}
}

func copyArticle(a *models.Article) *models.Article {
	clone := *a
	clone.Tags = append([]string(nil), a.Tags...)
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		clone.PublishedAt = &t
	}
	return &clone
}

func (m *MockArticleRepository) Create(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return m.InsertError
	}
	if _, taken := m.SlugToArticle[article.Slug]; taken {
		return fmt.Errorf("duplicate slug %q", article.Slug)
	}
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	if article.Content == "" {
		article.Content = "[]"
	}
	stored := copyArticle(article)
	m.Articles[article.ID] = stored
	m.SlugToArticle[article.Slug] = stored
	return nil
}

func (m *MockArticleRepository) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	m.mu.Lock()
	m.BatchInsertCalls++
	fn := m.BatchInsertFunc
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, articles)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.InsertError != nil {
		return 0, m.InsertError
	}
	for _, a := range articles {
		stored := copyArticle(a)
		m.Articles[a.ID] = stored
		m.SlugToArticle[a.Slug] = stored
	}
	m.InsertedCount += len(articles)
	return len(articles), nil
}

func (m *MockArticleRepository) GetByID(ctx context.Context, id string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		return copyArticle(a), nil
	}
	return nil, nil
}

func (m *MockArticleRepository) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.SlugToArticle[slug]; ok {
		return copyArticle(a), nil
	}
	return nil, nil
}

func (m *MockArticleRepository) Update(ctx context.Context, article *models.Article) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Articles[article.ID]
	if !ok {
		return fmt.Errorf("article %s not found", article.ID)
	}
	delete(m.SlugToArticle, existing.Slug)
	article.UpdatedAt = time.Now().UTC()
	stored := copyArticle(article)
	stored.Content = existing.Content
	m.Articles[article.ID] = stored
	m.SlugToArticle[stored.Slug] = stored
	return nil
}

func (m *MockArticleRepository) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.Articles[id]
	if !ok {
		return false, nil
	}
	delete(m.Articles, id)
	delete(m.SlugToArticle, existing.Slug)
	return true, nil
}

func (m *MockArticleRepository) List(ctx context.Context, filter repository.ArticleFilter) ([]*models.Article, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	matching := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		if filter.Status == "" || a.Status == filter.Status {
			matching = append(matching, copyArticle(a))
		}
	}
	sort.Slice(matching, func(i, j int) bool {
		if matching[i].CreatedAt.Equal(matching[j].CreatedAt) {
			return matching[i].ID < matching[j].ID
		}
		return matching[i].CreatedAt.After(matching[j].CreatedAt)
	})

	total := len(matching)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset >= total {
		return []*models.Article{}, total, nil
	}
	end := filter.Offset + limit
	if end > total {
		end = total
	}
	return matching[filter.Offset:end], total, nil
}

func (m *MockArticleRepository) Exists(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.Articles[id]
	return exists, nil
}

func (m *MockArticleRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.SlugToArticle[slug]
	return exists, nil
}

func (m *MockArticleRepository) GetContent(ctx context.Context, id string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetContentError != nil {
		return "", false, m.GetContentError
	}
	a, ok := m.Articles[id]
	if !ok {
		return "", false, nil
	}
	return a.Content, true, nil
}

func (m *MockArticleRepository) UpdateContent(ctx context.Context, id, content string) (bool, error) {
	m.mu.Lock()
	m.UpdateContentCalls++
	fn := m.UpdateContentFunc
	m.mu.Unlock()
	if fn != nil {
		if ok, err := fn(ctx, id, content); err != nil || !ok {
			return ok, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.Articles[id]
	if !ok {
		return false, nil
	}
	a.Content = content
	a.UpdatedAt = time.Now().UTC()
	return true, nil
}

// Content returns the stored content of an article
func (m *MockArticleRepository) Content(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if a, ok := m.Articles[id]; ok {
		return a.Content
	}
	return ""
}

// Calls returns how many times UpdateContent ran
func (m *MockArticleRepository) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.UpdateContentCalls
}

func (m *MockArticleRepository) Count(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Articles), nil
}

func (m *MockArticleRepository) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	m.mu.Lock()
	all := make([]*models.Article, 0, len(m.Articles))
	for _, a := range m.Articles {
		all = append(all, copyArticle(a))
	}
	m.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})
	for _, article := range all {
		if err := callback(article); err != nil {
			return err
		}
	}
	return nil
}
