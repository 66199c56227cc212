package models

import (
	"encoding/json"
	"time"

	"github.com/news-composer/internal/composition"
)

// Article statuses
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
)

// Article represents an article in the system. Content holds the serialized
// block composition exactly as persisted.
type Article struct {
	ID          string     `json:"id" db:"id"`
	Slug        string     `json:"slug" db:"slug"`
	Title       string     `json:"title" db:"title"`
	Content     string     `json:"-" db:"content"`
	AuthorID    string     `json:"author_id" db:"author_id"`
	Tags        []string   `json:"tags" db:"-"` // Stored as JSON string in DB
	Status      string     `json:"status" db:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty" db:"published_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
}

// ValidStatuses defines allowed article statuses
var ValidStatuses = map[string]bool{
	StatusDraft:     true,
	StatusPublished: true,
}

// ArticleResponse is the API representation of an article with its content decoded
type ArticleResponse struct {
	*Article
	Content composition.Composition `json:"content"`
}

// ArticleList is a page of articles
type ArticleList struct {
	Articles []*Article `json:"articles"`
	Total    int        `json:"total"`
	Limit    int        `json:"limit"`
	Offset   int        `json:"offset"`
}

// ArticleNDJSON represents an article record from NDJSON import or export.
// Content may be a block array or a legacy plain string.
type ArticleNDJSON struct {
	ID          string          `json:"id"`
	Slug        string          `json:"slug"`
	Title       string          `json:"title"`
	Content     json.RawMessage `json:"content,omitempty"`
	AuthorID    string          `json:"author_id"`
	Tags        []string        `json:"tags"`
	Status      string          `json:"status"`
	PublishedAt string          `json:"published_at,omitempty"`
}
