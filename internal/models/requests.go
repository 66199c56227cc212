package models

import (
	"encoding/json"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/goliatone/go-slug"

	"github.com/news-composer/internal/blocks"
)

// CreateArticleRequest creates a draft article
type CreateArticleRequest struct {
	Title    string   `json:"title"`
	Slug     string   `json:"slug,omitempty"`
	AuthorID string   `json:"author_id,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// Validate checks the request fields
func (r CreateArticleRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Title, validation.Required, validation.Length(1, 500)),
		validation.Field(&r.Slug, validation.Length(0, 255), validation.By(validSlug)),
		validation.Field(&r.AuthorID, validation.Length(0, 64)),
		validation.Field(&r.Tags, validation.Length(0, 50), validation.Each(validation.Length(1, 64))),
	)
}

// UpdateArticleRequest changes article metadata. Nil fields are left unchanged.
type UpdateArticleRequest struct {
	Title *string   `json:"title,omitempty"`
	Slug  *string   `json:"slug,omitempty"`
	Tags  *[]string `json:"tags,omitempty"`
}

// Validate checks the request fields
func (r UpdateArticleRequest) Validate() error {
	errs := validation.Errors{}
	if r.Title != nil && strings.TrimSpace(*r.Title) == "" {
		errs["title"] = validation.NewError("article.title_required", "title cannot be blank")
	}
	if r.Slug != nil {
		if err := validSlug(*r.Slug); err != nil || *r.Slug == "" {
			errs["slug"] = validation.NewError("article.slug_invalid", "slug must be kebab-case (lowercase letters, numbers, hyphens)")
		}
	}
	if r.Tags != nil && len(*r.Tags) > 50 {
		errs["tags"] = validation.NewError("article.tags_too_many", "at most 50 tags are allowed")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ListArticlesRequest filters the article list
type ListArticlesRequest struct {
	Status string `form:"status"`
	Limit  int    `form:"limit"`
	Offset int    `form:"offset"`
}

// Validate checks the request fields
func (r ListArticlesRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Status, validation.In(StatusDraft, StatusPublished)),
		validation.Field(&r.Limit, validation.Min(0), validation.Max(200)),
		validation.Field(&r.Offset, validation.Min(0)),
	)
}

// ReplaceContentRequest overwrites an article's content wholesale. Content may be a
// block array, a serialized array string or legacy plain text.
type ReplaceContentRequest struct {
	Content json.RawMessage `json:"content"`
}

// Validate checks the request fields
func (r ReplaceContentRequest) Validate() error {
	if len(r.Content) == 0 {
		return validation.Errors{"content": validation.NewError("content.required", "content is required")}
	}
	return nil
}

// OpenSessionRequest opens an editing session on an article
type OpenSessionRequest struct {
	ArticleID string `json:"article_id"`
}

// Validate checks the request fields
func (r OpenSessionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ArticleID, validation.Required, is.UUID),
	)
}

// AddBlockRequest appends a block of the given type
type AddBlockRequest struct {
	Type string `json:"type"`
}

// Validate checks the type against the registered block types
func (r AddBlockRequest) Validate() error {
	types := blocks.Default().Types()
	allowed := make([]interface{}, len(types))
	for i, t := range types {
		allowed[i] = string(t)
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required, validation.In(allowed...)),
	)
}

// UpdateBlockRequest merges data into a block
type UpdateBlockRequest struct {
	Data blocks.Data `json:"data"`
}

// Validate checks the request fields
func (r UpdateBlockRequest) Validate() error {
	if r.Data == nil {
		return validation.Errors{"data": validation.NewError("block.data_required", "data is required")}
	}
	return nil
}

// ReorderRequest moves a block between positions
type ReorderRequest struct {
	From *int `json:"from"`
	To   *int `json:"to"`
}

// Validate checks the request fields
func (r ReorderRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.From, validation.NotNil, validation.Min(0)),
		validation.Field(&r.To, validation.NotNil, validation.Min(0)),
	)
}

// Drag gesture events
const (
	DragStart  = "start"
	DragOver   = "over"
	DragEnd    = "end"
	DragCancel = "cancel"
)

// DragEventRequest reports one step of a pointer drag gesture
type DragEventRequest struct {
	Event   string `json:"event"`
	BlockID string `json:"block_id,omitempty"`
}

// Validate checks the request fields
func (r DragEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Event, validation.Required, validation.In(DragStart, DragOver, DragEnd, DragCancel)),
		validation.Field(&r.BlockID, validation.When(r.Event == DragStart, validation.Required)),
	)
}

// KeyRequest reports a key press on a focused block
type KeyRequest struct {
	BlockID string `json:"block_id"`
	Key     string `json:"key"`
}

// Validate checks the request fields
func (r KeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.BlockID, validation.Required),
		validation.Field(&r.Key, validation.Required, validation.In("ArrowUp", "ArrowDown", "ArrowLeft", "ArrowRight", "Escape")),
	)
}

func validSlug(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if !slug.IsValid(s) {
		return validation.NewError("article.slug_invalid", "slug must be kebab-case (lowercase letters, numbers, hyphens)")
	}
	return nil
}
