package service

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/repository"
	"github.com/news-composer/internal/validation"
)

// maxReportedErrors caps the validation errors returned in an ImportResult
const maxReportedErrors = 1000

// importService is the concrete implementation of ImportService
type importService struct {
	repos *repository.Repositories
	cfg   *config.Config
	log   zerolog.Logger
}

// newImportService creates a new ImportService
func newImportService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *importService {
	return &importService{
		repos: repos,
		cfg:   cfg,
		log:   log.With().Str("service", "import").Logger(),
	}
}

// ImportArticles reads NDJSON articles from r and inserts the valid ones in
// batches. Content is normalized into a block array before insert.
func (s *importService) ImportArticles(ctx context.Context, r io.Reader) (*models.ImportResult, error) {
	startTime := time.Now()
	result := &models.ImportResult{}

	scanner := bufio.NewScanner(r)
	// Increase buffer size for long lines
	buf := make([]byte, 0, 64*1024)
	maxLine := s.cfg.Editor.MaxContentBytes + 64*1024
	if maxLine < 1024*1024 {
		maxLine = 1024 * 1024
	}
	scanner.Buffer(buf, maxLine)

	validator := validation.NewValidator(s.cfg.Editor.MaxContentBytes)
	batchSize := s.cfg.Import.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	var batch []*models.Article
	lineNum := 0

	addErrors := func(errs ...models.ValidationError) {
		result.FailedCount++
		for _, e := range errs {
			if len(result.Errors) < maxReportedErrors {
				result.Errors = append(result.Errors, e)
			}
		}
	}

	flush := func() {
		if len(batch) == 0 {
			return
		}
		inserted, err := s.repos.Article.BatchInsert(ctx, batch)
		if err != nil {
			s.log.Error().Err(err).Int("batch_size", len(batch)).Msg("Batch insert failed")
			result.FailedCount += len(batch)
		} else {
			result.SuccessfulCount += inserted
		}
		batch = batch[:0]
	}

	for scanner.Scan() {
		lineNum++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			continue
		}

		result.TotalRecords++

		// Respect context cancellation for long-running imports
		if lineNum%1000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		var record models.ArticleNDJSON
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			addErrors(models.ValidationError{
				Line:    lineNum,
				Field:   "json",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}

		if errs := validator.ValidateArticle(&record); len(errs) > 0 {
			converted := make([]models.ValidationError, len(errs))
			for i, e := range errs {
				converted[i] = models.ValidationError{Line: lineNum, Field: e.Field, Message: e.Message, Value: e.Value}
			}
			addErrors(converted...)
			continue
		}

		if errs, err := s.checkExisting(ctx, &record, lineNum); err != nil {
			return nil, err
		} else if len(errs) > 0 {
			addErrors(errs...)
			continue
		}

		article, legacy, err := convertNDJSONToArticle(&record)
		if err != nil {
			addErrors(models.ValidationError{Line: lineNum, Field: "content", Message: err.Error()})
			continue
		}
		if legacy {
			result.LegacyCount++
		}

		batch = append(batch, article)
		validator.AddArticleSlug(record.Slug)
		validator.AddArticleID(record.ID)

		if len(batch) >= batchSize {
			flush()
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	// Process remaining batch
	flush()

	duration := time.Since(startTime)
	result.DurationMs = duration.Milliseconds()
	if result.TotalRecords > 0 && duration.Seconds() > 0 {
		result.RowsPerSec = float64(result.TotalRecords) / duration.Seconds()
	}

	s.log.Info().
		Int("total", result.TotalRecords).
		Int("successful", result.SuccessfulCount).
		Int("failed", result.FailedCount).
		Int("legacy_content", result.LegacyCount).
		Int64("duration_ms", result.DurationMs).
		Float64("rows_per_sec", result.RowsPerSec).
		Msg("Import completed")

	return result, nil
}

// checkExisting rejects records whose id or slug is already stored
func (s *importService) checkExisting(ctx context.Context, record *models.ArticleNDJSON, line int) ([]models.ValidationError, error) {
	var errs []models.ValidationError

	exists, err := s.repos.Article.Exists(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check article id: %w", err)
	}
	if exists {
		errs = append(errs, models.ValidationError{Line: line, Field: "id", Message: "article already exists", Value: record.ID})
	}

	taken, err := s.repos.Article.SlugExists(ctx, record.Slug)
	if err != nil {
		return nil, fmt.Errorf("failed to check slug: %w", err)
	}
	if taken {
		errs = append(errs, models.ValidationError{Line: line, Field: "slug", Message: "slug already in use", Value: record.Slug})
	}
	return errs, nil
}

// convertNDJSONToArticle converts an import record to an Article with canonical
// content. It reports whether the content was legacy text.
func convertNDJSONToArticle(record *models.ArticleNDJSON) (*models.Article, bool, error) {
	c, report := composition.DeserializeWithReport(contentInput(record.Content))
	content, err := composition.Serialize(c)
	if err != nil {
		return nil, false, err
	}

	status := record.Status
	if status == "" {
		status = models.StatusDraft
	}
	tags := record.Tags
	if tags == nil {
		tags = []string{}
	}

	article := &models.Article{
		ID:       record.ID,
		Slug:     record.Slug,
		Title:    record.Title,
		Content:  content,
		AuthorID: record.AuthorID,
		Tags:     tags,
		Status:   status,
	}
	if record.PublishedAt != "" {
		if t, err := time.Parse(time.RFC3339, record.PublishedAt); err == nil {
			article.PublishedAt = &t
		}
	}
	return article, report.Legacy, nil
}
