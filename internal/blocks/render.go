package blocks

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
)

// Mode selects which rendering context a view is produced for.
type Mode int

const (
	// ModePublic renders markup for the public article page.
	ModePublic Mode = iota
	// ModePreview renders the editor's live preview.
	ModePreview
)

func (m Mode) String() string {
	if m == ModePreview {
		return "preview"
	}
	return "public"
}

// RenderContext carries per-block rendering state supplied by the renderer.
type RenderContext struct {
	Mode Mode
	// AllowRawHTML lets inline HTML inside text content through the markdown renderer.
	AllowRawHTML bool
	// ActiveSlide is the carousel slide currently shown. Ignored by other types.
	ActiveSlide int
	// CarouselInterval is advertised to clients so they can rotate slides themselves.
	CarouselInterval time.Duration
}

// ViewFunc renders the read-only markup of a block. It reports false when the block
// lacks the data it needs, in which case the block produces no output at all.
type ViewFunc func(b Block, ctx RenderContext) (template.HTML, bool)

// EditorFunc renders the editing form of a block.
type EditorFunc func(b Block) template.HTML

func noopView(Block, RenderContext) (template.HTML, bool) { return "", false }

func noopEditor(Block) template.HTML { return "" }

var templateFuncs = template.FuncMap{
	"add": func(a, b int) int { return a + b },
	"ms":  func(d time.Duration) int64 { return d.Milliseconds() },
}

func mustTemplate(name, src string) *template.Template {
	return template.Must(template.New(name).Funcs(templateFuncs).Parse(src))
}

// execute runs tpl and reports false instead of failing when execution breaks.
func execute(tpl *template.Template, data any) (template.HTML, bool) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", false
	}
	return template.HTML(strings.TrimSpace(buf.String())), true
}

func executeEditor(tpl *template.Template, data any) template.HTML {
	out, _ := execute(tpl, data)
	return out
}

var (
	safeMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)
	rawMarkdown = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		goldmark.WithRendererOptions(html.WithUnsafe()),
	)
)

// RenderText converts text block content (Markdown, optionally with inline HTML)
// into markup. Blank content renders as "".
func RenderText(content string, allowRawHTML bool) template.HTML {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	engine := safeMarkdown
	if allowRawHTML {
		engine = rawMarkdown
	}
	var buf bytes.Buffer
	if err := engine.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(strings.TrimSpace(buf.String()))
}

var unsupportedTemplate = mustTemplate("unsupported", `
<div class="block-editor block-editor--unsupported" data-block-id="{{ .ID }}" data-block-type="{{ .Type }}">
  <p class="block-editor__notice">Unsupported block type {{ printf "%q" .Type }}. Its content is kept as is and is not shown on the article page.</p>
</div>`)

// UnsupportedNotice renders the editor placeholder for a block whose type is not
// registered, so authors can still see and remove it.
func UnsupportedNotice(b Block) template.HTML {
	return executeEditor(unsupportedTemplate, b)
}
