package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/repository"
)

// exportService is the concrete implementation of ExportService
type exportService struct {
	repos *repository.Repositories
	log   zerolog.Logger
}

// newExportService creates a new ExportService
func newExportService(repos *repository.Repositories, log zerolog.Logger) *exportService {
	return &exportService{
		repos: repos,
		log:   log.With().Str("service", "export").Logger(),
	}
}

// StreamArticles streams articles in the specified format
func (s *exportService) StreamArticles(ctx context.Context, w http.ResponseWriter, format string) error {
	s.log.Info().Str("format", format).Msg("Starting articles export")

	switch format {
	case "ndjson":
		return s.streamArticlesNDJSON(ctx, w)
	case "json":
		return s.streamArticlesJSON(ctx, w)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}

// GetCount returns the number of articles
func (s *exportService) GetCount(ctx context.Context) (int, error) {
	return s.repos.Article.Count(ctx)
}

func (s *exportService) streamArticlesNDJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/x-ndjson")
	w.Header().Set("Content-Disposition", "attachment; filename=articles.ndjson")

	flusher, _ := w.(http.Flusher)
	count := 0

	err := s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		data, err := encodeExportRecord(article)
		if err != nil {
			return err
		}
		w.Write(data)
		w.Write([]byte("\n"))
		count++

		// Flush every 100 records for streaming
		if count%100 == 0 && flusher != nil {
			flusher.Flush()
		}
		return nil
	})

	s.log.Info().Int("count", count).Msg("Articles export completed")
	return err
}

func (s *exportService) streamArticlesJSON(ctx context.Context, w http.ResponseWriter) error {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", "attachment; filename=articles.json")

	w.Write([]byte("["))
	first := true
	count := 0

	err := s.repos.Article.StreamAll(ctx, func(article *models.Article) error {
		if !first {
			w.Write([]byte(","))
		}
		first = false

		data, err := encodeExportRecord(article)
		if err != nil {
			return err
		}
		w.Write(data)
		count++
		return nil
	})

	w.Write([]byte("]"))
	s.log.Info().Int("count", count).Msg("Articles export completed")
	return err
}

// encodeExportRecord writes an article in the import record shape, with its
// content re-serialized canonically so legacy rows export as block arrays.
func encodeExportRecord(article *models.Article) ([]byte, error) {
	content, err := composition.Serialize(composition.Deserialize(article.Content))
	if err != nil {
		return nil, err
	}
	record := models.ArticleNDJSON{
		ID:       article.ID,
		Slug:     article.Slug,
		Title:    article.Title,
		Content:  json.RawMessage(content),
		AuthorID: article.AuthorID,
		Tags:     article.Tags,
		Status:   article.Status,
	}
	if record.Tags == nil {
		record.Tags = []string{}
	}
	if article.PublishedAt != nil {
		record.PublishedAt = article.PublishedAt.UTC().Format(time.RFC3339)
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(record); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
