package models

import (
	"html/template"
	"time"

	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/render"
)

// SaveState represents the state of an article's autosave
type SaveState string

const (
	SaveStateIdle    SaveState = "idle"
	SaveStatePending SaveState = "pending"
	SaveStateSaving  SaveState = "saving"
	SaveStateSaved   SaveState = "saved"
	SaveStateFailed  SaveState = "failed"
)

// SaveStatus reports the latest persistence outcome for an article
type SaveStatus struct {
	State    SaveState  `json:"state"`
	Sequence uint64     `json:"sequence"`
	Error    string     `json:"error,omitempty"`
	SavedAt  *time.Time `json:"saved_at,omitempty"`
}

// SessionView is the API representation of an editing session
type SessionView struct {
	ID        string                  `json:"session_id"`
	ArticleID string                  `json:"article_id"`
	Content   composition.Composition `json:"content"`
	Drag      DragView                `json:"drag"`
	Save      SaveStatus              `json:"save"`
	OpenedAt  time.Time               `json:"opened_at"`
}

// DragView exposes the drag controller state
type DragView struct {
	State  string `json:"state"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// BlockForm is the editor form of one block
type BlockForm struct {
	BlockID    string        `json:"block_id"`
	Type       string        `json:"type"`
	Supported  bool          `json:"supported"`
	Renderable bool          `json:"renderable"`
	IssueCount int           `json:"issue_count"`
	HTML       template.HTML `json:"html"`
}

// PreviewEvent is pushed to preview subscribers after every change
type PreviewEvent struct {
	Type      string          `json:"type"` // "preview" or "tick"
	SessionID string          `json:"session_id"`
	Blocks    []render.Output `json:"blocks"`
	Save      SaveStatus      `json:"save"`
}

// BlockType describes one registered block type
type BlockType struct {
	Type    string         `json:"type"`
	Label   string         `json:"label"`
	Default map[string]any `json:"default"`
	Schema  map[string]any `json:"schema,omitempty"`
}

// ContentIssue is one problem found in an article's composition
type ContentIssue struct {
	Index   int    `json:"index"`
	BlockID string `json:"block_id"`
	Type    string `json:"type"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ValidationError represents a single import validation error
type ValidationError struct {
	Line    int         `json:"line"`
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// ImportResult summarizes a synchronous import
type ImportResult struct {
	TotalRecords    int               `json:"total_records"`
	SuccessfulCount int               `json:"successful"`
	FailedCount     int               `json:"failed"`
	LegacyCount     int               `json:"legacy_content"`
	DurationMs      int64             `json:"duration_ms"`
	RowsPerSec      float64           `json:"rows_per_sec"`
	Errors          []ValidationError `json:"errors,omitempty"`
}
