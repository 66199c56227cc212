package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/news-composer/internal/database"
	"github.com/news-composer/internal/models"
)

const articleColumns = "id, slug, title, content, author_id, tags, status, published_at, created_at, updated_at"

// articleRepo is the concrete implementation of ArticleRepository
type articleRepo struct {
	db *database.DB
}

// NewArticleRepo creates a new article repository
func NewArticleRepo(db *database.DB) ArticleRepository {
	return &articleRepo{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*models.Article, error) {
	var article models.Article
	var tagsJSON string
	var publishedAt sql.NullTime

	err := row.Scan(
		&article.ID, &article.Slug, &article.Title, &article.Content, &article.AuthorID,
		&tagsJSON, &article.Status, &publishedAt, &article.CreatedAt, &article.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tagsJSON), &article.Tags); err != nil || article.Tags == nil {
		article.Tags = []string{}
	}
	if publishedAt.Valid {
		t := publishedAt.Time
		article.PublishedAt = &t
	}
	return &article, nil
}

func tagsValue(tags []string) string {
	if tags == nil {
		return "[]"
	}
	encoded, err := json.Marshal(tags)
	if err != nil {
		return "[]"
	}
	return string(encoded)
}

func contentValue(content string) string {
	if strings.TrimSpace(content) == "" {
		return "[]"
	}
	return content
}

func publishedValue(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Create inserts a new article
func (r *articleRepo) Create(ctx context.Context, article *models.Article) error {
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now

	query := r.db.Rebind(`
		INSERT INTO articles (` + articleColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		article.ID, article.Slug, article.Title, contentValue(article.Content), article.AuthorID,
		tagsValue(article.Tags), article.Status, publishedValue(article.PublishedAt),
		article.CreatedAt.UTC(), article.UpdatedAt,
	)
	return err
}

// BatchInsert inserts multiple articles, using COPY on PostgreSQL
func (r *articleRepo) BatchInsert(ctx context.Context, articles []*models.Article) (int, error) {
	if len(articles) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var stmt *sql.Stmt
	if r.db.Driver() == database.DriverPostgres {
		stmt, err = tx.PrepareContext(ctx, pq.CopyIn("articles",
			"id", "slug", "title", "content", "author_id", "tags", "status", "published_at", "created_at", "updated_at",
		))
	} else {
		stmt, err = tx.PrepareContext(ctx, `
			INSERT INTO articles (`+articleColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
	}
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	now := time.Now().UTC()
	inserted := 0

	for _, article := range articles {
		createdAt := article.CreatedAt
		if createdAt.IsZero() {
			createdAt = now
		}
		_, err := stmt.ExecContext(ctx,
			article.ID, article.Slug, article.Title, contentValue(article.Content), article.AuthorID,
			tagsValue(article.Tags), article.Status, publishedValue(article.PublishedAt),
			createdAt.UTC(), now,
		)
		if err != nil {
			continue
		}
		inserted++
	}

	if r.db.Driver() == database.DriverPostgres {
		if _, err := stmt.ExecContext(ctx); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}

	return inserted, nil
}

// GetByID retrieves an article by ID
func (r *articleRepo) GetByID(ctx context.Context, id string) (*models.Article, error) {
	query := r.db.Rebind("SELECT " + articleColumns + " FROM articles WHERE id = ?")

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return article, err
}

// GetBySlug retrieves an article by slug
func (r *articleRepo) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	query := r.db.Rebind("SELECT " + articleColumns + " FROM articles WHERE slug = ?")

	article, err := scanArticle(r.db.QueryRowContext(ctx, query, slug))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return article, err
}

// Update writes article metadata. Content is left to UpdateContent.
func (r *articleRepo) Update(ctx context.Context, article *models.Article) error {
	article.UpdatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		UPDATE articles
		SET slug = ?, title = ?, author_id = ?, tags = ?, status = ?, published_at = ?, updated_at = ?
		WHERE id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		article.Slug, article.Title, article.AuthorID, tagsValue(article.Tags),
		article.Status, publishedValue(article.PublishedAt), article.UpdatedAt, article.ID,
	)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("article %s not found", article.ID)
	}
	return nil
}

// Delete removes an article and reports whether it existed
func (r *articleRepo) Delete(ctx context.Context, id string) (bool, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM articles WHERE id = ?"), id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// List returns a page of articles, newest first, and the total matching count
func (r *articleRepo) List(ctx context.Context, filter ArticleFilter) ([]*models.Article, int, error) {
	where := ""
	var args []any
	if filter.Status != "" {
		where = " WHERE status = ?"
		args = append(args, filter.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM articles"+where), args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query := r.db.Rebind("SELECT " + articleColumns + " FROM articles" + where + " ORDER BY created_at DESC, id LIMIT ? OFFSET ?")
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, filter.Offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	articles := []*models.Article{}
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		articles = append(articles, article)
	}
	return articles, total, rows.Err()
}

// Exists checks if an article with the given ID exists
func (r *articleRepo) Exists(ctx context.Context, id string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM articles WHERE id = ?"), id).Scan(&count)
	return count > 0, err
}

// SlugExists checks if an article with the given slug exists
func (r *articleRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT COUNT(*) FROM articles WHERE slug = ?"), slug).Scan(&count)
	return count > 0, err
}

// GetContent returns the persisted content of an article
func (r *articleRepo) GetContent(ctx context.Context, id string) (string, bool, error) {
	var content string
	err := r.db.QueryRowContext(ctx, r.db.Rebind("SELECT content FROM articles WHERE id = ?"), id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return content, true, nil
}

// UpdateContent overwrites the persisted content of an article
func (r *articleRepo) UpdateContent(ctx context.Context, id, content string) (bool, error) {
	query := r.db.Rebind("UPDATE articles SET content = ?, updated_at = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, contentValue(content), time.Now().UTC(), id)
	if err != nil {
		return false, err
	}
	rows, err := result.RowsAffected()
	return rows > 0, err
}

// Count returns the total number of articles
func (r *articleRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM articles").Scan(&count)
	return count, err
}

// StreamAll streams all articles for export
func (r *articleRepo) StreamAll(ctx context.Context, callback func(*models.Article) error) error {
	rows, err := r.db.QueryContext(ctx, "SELECT "+articleColumns+" FROM articles ORDER BY created_at, id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return err
		}
		if err := callback(article); err != nil {
			return err
		}
	}

	return rows.Err()
}
