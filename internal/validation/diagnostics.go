package validation

import (
	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/models"
)

// Diagnose lists the blocks of c that the renderer will skip or whose data does not
// match its type's schema. A block with schema issues is not also reported as
// incomplete. It never changes c.
func Diagnose(registry *blocks.Registry, c composition.Composition) []models.ContentIssue {
	issues := []models.ContentIssue{}
	for i, b := range c {
		schemaIssues := registry.Validate(b)
		for _, issue := range schemaIssues {
			issues = append(issues, models.ContentIssue{
				Index:   i,
				BlockID: b.ID,
				Type:    string(b.Type),
				Field:   issue.Field,
				Message: issue.Message,
			})
		}
		if len(schemaIssues) > 0 || !registry.Has(b.Type) {
			continue
		}
		if _, ok := registry.View(b.Type)(b, blocks.RenderContext{Mode: blocks.ModePublic}); !ok {
			issues = append(issues, models.ContentIssue{
				Index:   i,
				BlockID: b.ID,
				Type:    string(b.Type),
				Message: "block is incomplete and will not be rendered",
			})
		}
	}
	return issues
}
