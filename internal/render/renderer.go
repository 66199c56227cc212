// Package render walks a composition and produces article markup, dispatching
// each block to the view registered for its type.
package render

import (
	"bytes"
	"html/template"
	"strings"
	"sync"
	"time"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
)

// Output is the rendered markup of one block.
type Output struct {
	BlockID string        `json:"block_id"`
	Type    blocks.Type   `json:"type"`
	HTML    template.HTML `json:"html"`
}

// TickFunc is called when a carousel rotator advances.
type TickFunc func(blockID string, active int)

// Option configures a Renderer.
type Option func(*Renderer)

// WithCarouselInterval sets the carousel rotation interval.
func WithCarouselInterval(d time.Duration) Option {
	return func(r *Renderer) { r.interval = d }
}

// WithAutoAdvance runs server side carousel rotators and calls onTick on every
// advance. Without it the active slide stays at 0 and clients rotate on their own.
func WithAutoAdvance(onTick TickFunc) Option {
	return func(r *Renderer) {
		r.autoAdvance = true
		r.onTick = onTick
	}
}

// WithRawHTML lets inline HTML in text content through.
func WithRawHTML(allow bool) Option {
	return func(r *Renderer) { r.allowRawHTML = allow }
}

// Renderer renders compositions for one context. Each instance owns the carousel
// rotators of the compositions it renders; Close stops them.
type Renderer struct {
	registry     *blocks.Registry
	mode         blocks.Mode
	interval     time.Duration
	allowRawHTML bool
	autoAdvance  bool
	onTick       TickFunc

	mu       sync.Mutex
	rotators map[string]*Rotator
	closed   bool
}

// New creates a renderer.
func New(registry *blocks.Registry, mode blocks.Mode, opts ...Option) *Renderer {
	if registry == nil {
		registry = blocks.Default()
	}
	r := &Renderer{
		registry: registry,
		mode:     mode,
		rotators: make(map[string]*Rotator),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the rendering context.
func (r *Renderer) Mode() blocks.Mode {
	return r.mode
}

// Render returns the markup of every block that has what its type needs, in
// composition order. Blocks of unknown type or with incomplete data produce nothing.
func (r *Renderer) Render(c composition.Composition) []Output {
	snapshot := c.Clone()
	r.syncRotators(snapshot)

	outputs := make([]Output, 0, len(snapshot))
	for _, b := range snapshot {
		html, ok := r.renderBlock(b)
		if !ok || html == "" {
			continue
		}
		if r.mode == blocks.ModePreview {
			html = wrapPreview(b, html)
		}
		outputs = append(outputs, Output{BlockID: b.ID, Type: b.Type, HTML: html})
	}
	return outputs
}

// Sync starts, resets and stops carousel rotators to match c without rendering.
func (r *Renderer) Sync(c composition.Composition) {
	r.syncRotators(c.Clone())
}

// RenderHTML renders c as one article body fragment.
func (r *Renderer) RenderHTML(c composition.Composition) template.HTML {
	outputs := r.Render(c)
	var sb strings.Builder
	sb.WriteString(`<div class="article-body">`)
	for _, out := range outputs {
		sb.WriteString("\n")
		sb.WriteString(string(out.HTML))
	}
	sb.WriteString("\n</div>")
	return template.HTML(sb.String())
}

func (r *Renderer) renderBlock(b blocks.Block) (html template.HTML, ok bool) {
	defer func() {
		if recover() != nil {
			html, ok = "", false
		}
	}()
	ctx := blocks.RenderContext{
		Mode:             r.mode,
		AllowRawHTML:     r.allowRawHTML,
		ActiveSlide:      r.ActiveSlide(b.ID),
		CarouselInterval: r.interval,
	}
	return r.registry.View(b.Type)(b, ctx)
}

// syncRotators keeps one rotator per carousel with at least two valid slides.
// A rotator is reset when its slide count changes and stopped when its block is gone.
func (r *Renderer) syncRotators(c composition.Composition) {
	r.mu.Lock()
	defer r.mu.Unlock()

	present := make(map[string]bool)
	for _, b := range c {
		if b.Type != blocks.TypeCarousel {
			continue
		}
		present[b.ID] = true
		slides := len(blocks.CarouselSlides(b.Data))

		if existing, ok := r.rotators[b.ID]; ok && existing.Slides() != slides {
			existing.Stop()
			delete(r.rotators, b.ID)
		}
		if _, ok := r.rotators[b.ID]; ok || r.closed || !r.autoAdvance || slides < 2 || r.interval <= 0 {
			continue
		}
		rotator := NewRotator(slides, r.interval, r.tickFor(b.ID))
		if rotator.Start() {
			r.rotators[b.ID] = rotator
		}
	}

	for id, rotator := range r.rotators {
		if !present[id] {
			rotator.Stop()
			delete(r.rotators, id)
		}
	}
}

func (r *Renderer) tickFor(blockID string) func(int) {
	return func(active int) {
		if r.onTick != nil {
			r.onTick(blockID, active)
		}
	}
}

// ActiveSlide returns the slide a carousel block currently shows.
func (r *Renderer) ActiveSlide(blockID string) int {
	r.mu.Lock()
	rotator, ok := r.rotators[blockID]
	r.mu.Unlock()
	if !ok {
		return 0
	}
	return rotator.Active()
}

// Rotating reports whether a rotator runs for blockID.
func (r *Renderer) Rotating(blockID string) bool {
	r.mu.Lock()
	rotator, ok := r.rotators[blockID]
	r.mu.Unlock()
	return ok && rotator.Running()
}

// Close stops every rotator. Later renders start none.
func (r *Renderer) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	for id, rotator := range r.rotators {
		rotator.Stop()
		delete(r.rotators, id)
	}
}

var previewWrapper = template.Must(template.New("preview").Parse(
	`<section class="block block--{{ .Type }}" data-block-id="{{ .ID }}" data-block-type="{{ .Type }}">{{ .HTML }}</section>`))

func wrapPreview(b blocks.Block, html template.HTML) template.HTML {
	var buf bytes.Buffer
	err := previewWrapper.Execute(&buf, struct {
		ID   string
		Type blocks.Type
		HTML template.HTML
	}{b.ID, b.Type, html})
	if err != nil {
		return html
	}
	return template.HTML(buf.String())
}
