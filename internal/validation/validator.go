package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/goliatone/go-slug"
	"github.com/google/uuid"

	"github.com/news-composer/internal/models"
)

// ValidationError represents a single validation error
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Validator checks import records. It remembers ids and slugs seen in the current
// import so duplicates inside one file are caught before they reach the database.
type Validator struct {
	articleSlugCache map[string]bool
	articleIDCache   map[string]bool
	maxContentBytes  int
}

// NewValidator creates a new validator instance. maxContentBytes <= 0 disables the
// content size check.
func NewValidator(maxContentBytes int) *Validator {
	return &Validator{
		articleSlugCache: make(map[string]bool),
		articleIDCache:   make(map[string]bool),
		maxContentBytes:  maxContentBytes,
	}
}

// AddArticleSlug adds a slug to the uniqueness cache
func (v *Validator) AddArticleSlug(slug string) {
	v.articleSlugCache[slug] = true
}

// AddArticleID adds an id to the uniqueness cache
func (v *Validator) AddArticleID(id string) {
	v.articleIDCache[id] = true
}

// ValidateArticle validates an article import record
func (v *Validator) ValidateArticle(article *models.ArticleNDJSON) []ValidationError {
	var errors []ValidationError

	// Validate ID
	if article.ID == "" {
		errors = append(errors, ValidationError{Field: "id", Message: "id is required"})
	} else if !isValidUUID(article.ID) {
		errors = append(errors, ValidationError{Field: "id", Message: "invalid UUID format", Value: article.ID})
	} else if v.articleIDCache[article.ID] {
		errors = append(errors, ValidationError{Field: "id", Message: "duplicate id", Value: article.ID})
	}

	// Validate slug
	if article.Slug == "" {
		errors = append(errors, ValidationError{Field: "slug", Message: "slug is required"})
	} else if !slug.IsValid(article.Slug) {
		errors = append(errors, ValidationError{Field: "slug", Message: "slug must be kebab-case (lowercase letters, numbers, hyphens)", Value: article.Slug})
	} else if v.articleSlugCache[article.Slug] {
		errors = append(errors, ValidationError{Field: "slug", Message: "duplicate slug", Value: article.Slug})
	}

	// Validate title
	if article.Title == "" {
		errors = append(errors, ValidationError{Field: "title", Message: "title is required"})
	}

	// Validate content shape. Arrays and legacy strings are both accepted.
	if len(article.Content) > 0 {
		if v.maxContentBytes > 0 && len(article.Content) > v.maxContentBytes {
			errors = append(errors, ValidationError{
				Field:   "content",
				Message: fmt.Sprintf("content exceeds maximum of %d bytes", v.maxContentBytes),
			})
		} else if !contentShapeOK(article.Content) {
			errors = append(errors, ValidationError{Field: "content", Message: "content must be a block array, a string or null"})
		}
	}

	// Validate status
	if article.Status != "" && !models.ValidStatuses[article.Status] {
		errors = append(errors, ValidationError{
			Field:   "status",
			Message: "invalid status, must be one of: draft, published",
			Value:   article.Status,
		})
	}

	// Validate draft must not have published_at
	if article.Status == models.StatusDraft && article.PublishedAt != "" {
		errors = append(errors, ValidationError{Field: "published_at", Message: "draft articles must not have published_at"})
	}

	// Validate published_at format if present
	if article.PublishedAt != "" {
		if _, err := time.Parse(time.RFC3339, article.PublishedAt); err != nil {
			errors = append(errors, ValidationError{Field: "published_at", Message: "invalid ISO 8601 date format", Value: article.PublishedAt})
		}
	}

	return errors
}

func contentShapeOK(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return true
	}
	switch trimmed[0] {
	case '[', '"':
		return json.Valid(trimmed)
	case 'n':
		return bytes.Equal(trimmed, []byte("null"))
	default:
		return false
	}
}

// isValidUUID checks if a string is a valid UUID
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
