package models

import (
	"encoding/json"
	"strings"
	"testing"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
)

func intPtr(i int) *int { return &i }

func strPtr(s string) *string { return &s }

func TestRequestValidation(t *testing.T) {
	tests := []struct {
		name       string
		req        validation.Validatable
		wantFields []string
	}{
		{"create valid", CreateArticleRequest{Title: "Budget vote", Slug: "budget-vote"}, nil},
		{"create without title", CreateArticleRequest{}, []string{"title"}},
		{"create with bad slug", CreateArticleRequest{Title: "x", Slug: "Not A Slug"}, []string{"slug"}},
		{"update blank title", UpdateArticleRequest{Title: strPtr("  ")}, []string{"title"}},
		{"update bad slug", UpdateArticleRequest{Slug: strPtr("Bad_Slug")}, []string{"slug"}},
		{"update nothing", UpdateArticleRequest{}, nil},
		{"list bad status", ListArticlesRequest{Status: "archived"}, []string{"status"}},
		{"list limit too high", ListArticlesRequest{Limit: 1000}, []string{"limit"}},
		{"content missing", ReplaceContentRequest{}, []string{"content"}},
		{"content legacy string", ReplaceContentRequest{Content: json.RawMessage(`"plain"`)}, nil},
		{"session bad id", OpenSessionRequest{ArticleID: "abc"}, []string{"article_id"}},
		{"session ok", OpenSessionRequest{ArticleID: "550e8400-e29b-41d4-a716-446655440000"}, nil},
		{"add registered type", AddBlockRequest{Type: "carousel"}, nil},
		{"add unknown type", AddBlockRequest{Type: "poll"}, []string{"type"}},
		{"update block without data", UpdateBlockRequest{}, []string{"data"}},
		{"reorder missing to", ReorderRequest{From: intPtr(1)}, []string{"to"}},
		{"reorder negative", ReorderRequest{From: intPtr(-1), To: intPtr(0)}, []string{"from"}},
		{"reorder ok", ReorderRequest{From: intPtr(0), To: intPtr(2)}, nil},
		{"drag start without block", DragEventRequest{Event: DragStart}, []string{"block_id"}},
		{"drag end", DragEventRequest{Event: DragEnd}, nil},
		{"drag unknown event", DragEventRequest{Event: "hover"}, []string{"event"}},
		{"key unsupported", KeyRequest{BlockID: "b1", Key: "Enter"}, []string{"key"}},
		{"key ok", KeyRequest{BlockID: "b1", Key: "ArrowUp"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			errs, ok := err.(validation.Errors)
			if !ok {
				t.Fatalf("expected validation.Errors, got %T (%v)", err, err)
			}
			for _, field := range tt.wantFields {
				if _, ok := errs[field]; !ok {
					t.Errorf("expected error on %q, got %v", field, errs)
				}
			}
		})
	}
}

func TestArticleResponseEncodesComposition(t *testing.T) {
	resp := ArticleResponse{
		Article: &Article{ID: "a1", Title: "T", Content: `[{"id":"b1","type":"text","data":{"content":"x"}}]`},
		Content: composition.Composition{{ID: "b1", Type: blocks.TypeText, Data: blocks.Data{"content": "x"}}},
	}

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(out), `"content":[{"id":"b1","type":"text","data":{"content":"x"}}]`) {
		t.Errorf("expected content as structured JSON, got %s", out)
	}
	if !strings.Contains(string(out), `"title":"T"`) {
		t.Errorf("expected article fields to be inlined, got %s", out)
	}
}
