package render

import (
	"html/template"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
)

func carousel(id string, urls ...string) blocks.Block {
	images := make([]any, len(urls))
	for i, url := range urls {
		images[i] = map[string]any{"url": url, "alt": "", "caption": "", "link": ""}
	}
	return blocks.Block{ID: id, Type: blocks.TypeCarousel, Data: blocks.Data{"images": images}}
}

func TestRenderTolerance(t *testing.T) {
	r := New(blocks.Default(), blocks.ModePublic)
	defer r.Close()

	c := composition.Composition{
		{ID: "unknown", Type: "poll", Data: blocks.Data{"question": "?"}},
		{ID: "empty-video", Type: blocks.TypeVideo, Data: blocks.Data{}},
		{ID: "nil-data", Type: blocks.TypeCover},
		{ID: "text", Type: blocks.TypeText, Data: blocks.Data{"content": "Hello"}},
		{ID: "untyped", Data: blocks.Data{"value": "stray"}},
	}

	outputs := r.Render(c)
	if len(outputs) != 1 {
		t.Fatalf("expected only the complete block to render, got %d outputs", len(outputs))
	}
	if outputs[0].BlockID != "text" || !strings.Contains(string(outputs[0].HTML), "Hello") {
		t.Errorf("unexpected output %+v", outputs[0])
	}
	if len(c) != 5 {
		t.Error("expected the composition to keep every block")
	}
}

func TestRenderRecoversFromPanickingView(t *testing.T) {
	reg := blocks.NewRegistry(
		blocks.Definition{Type: "boom", View: func(blocks.Block, blocks.RenderContext) (template.HTML, bool) {
			panic("broken view")
		}},
		blocks.Definition{Type: "ok", View: func(b blocks.Block, _ blocks.RenderContext) (template.HTML, bool) {
			return template.HTML("<p>" + template.HTMLEscapeString(b.ID) + "</p>"), true
		}},
	)
	r := New(reg, blocks.ModePublic)

	outputs := r.Render(composition.Composition{{ID: "1", Type: "boom"}, {ID: "2", Type: "ok"}})
	if len(outputs) != 1 || outputs[0].BlockID != "2" {
		t.Errorf("expected only the healthy block, got %+v", outputs)
	}
}

func TestRenderOrderAndPreviewWrapping(t *testing.T) {
	c := composition.Composition{
		{ID: "t1", Type: blocks.TypeText, Data: blocks.Data{"content": "First"}},
		{ID: "b1", Type: blocks.TypeButton, Data: blocks.Data{"text": "Go", "link": "/go"}},
		{ID: "t2", Type: blocks.TypeText, Data: blocks.Data{"content": "Last"}},
	}

	public := New(blocks.Default(), blocks.ModePublic).Render(c)
	preview := New(blocks.Default(), blocks.ModePreview).Render(c)

	if len(public) != 3 || len(preview) != 3 {
		t.Fatalf("expected 3 outputs each, got %d and %d", len(public), len(preview))
	}
	for i, id := range []string{"t1", "b1", "t2"} {
		if public[i].BlockID != id || preview[i].BlockID != id {
			t.Errorf("position %d: expected %s", i, id)
		}
	}
	if strings.Contains(string(public[0].HTML), "data-block-id") {
		t.Error("expected public output without editor attributes")
	}
	if !strings.HasPrefix(string(preview[1].HTML), `<section class="block block--button" data-block-id="b1" data-block-type="button">`) {
		t.Errorf("unexpected preview wrapper %s", preview[1].HTML)
	}
}

func TestRenderHTML(t *testing.T) {
	r := New(blocks.Default(), blocks.ModePublic)
	out := string(r.RenderHTML(composition.Composition{
		{ID: "t1", Type: blocks.TypeText, Data: blocks.Data{"content": "Body"}},
	}))

	if !strings.HasPrefix(out, `<div class="article-body">`) || !strings.HasSuffix(out, "</div>") {
		t.Errorf("unexpected article body %s", out)
	}
	if empty := string(r.RenderHTML(nil)); empty != "<div class=\"article-body\">\n</div>" {
		t.Errorf("unexpected empty body %q", empty)
	}
}

func TestCarouselSlideSafety(t *testing.T) {
	r := New(blocks.Default(), blocks.ModePreview,
		WithCarouselInterval(10*time.Millisecond), WithAutoAdvance(nil))
	defer r.Close()

	outputs := r.Render(composition.Composition{carousel("c1", "", "not-a-url")})
	if len(outputs) != 0 {
		t.Errorf("expected no output for a carousel without valid slides, got %d", len(outputs))
	}
	if r.Rotating("c1") {
		t.Error("expected no timer for a carousel without valid slides")
	}

	outputs = r.Render(composition.Composition{carousel("c1", "", "https://x/y.jpg")})
	if len(outputs) != 1 {
		t.Fatalf("expected one carousel output, got %d", len(outputs))
	}
	html := string(outputs[0].HTML)
	if strings.Count(html, "data-slide=") != 1 || strings.Contains(html, "block-carousel__prev") {
		t.Errorf("expected one slide without navigation, got %s", html)
	}
	if r.Rotating("c1") {
		t.Error("expected no timer for a single slide")
	}
}

func TestCarouselRotatorLifecycle(t *testing.T) {
	var (
		mu    sync.Mutex
		ticks = map[string]int{}
	)
	r := New(blocks.Default(), blocks.ModePreview,
		WithCarouselInterval(5*time.Millisecond),
		WithAutoAdvance(func(id string, active int) {
			mu.Lock()
			ticks[id]++
			mu.Unlock()
		}))

	c := composition.Composition{carousel("c1", "/a.jpg", "/b.jpg", "/c.jpg")}
	r.Render(c)
	if !r.Rotating("c1") {
		t.Fatal("expected a rotator for three slides")
	}

	deadline := time.Now().Add(time.Second)
	for {
		mu.Lock()
		n := ticks["c1"]
		mu.Unlock()
		if n > 0 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("expected the rotator to advance")
		}
		time.Sleep(time.Millisecond)
	}
	if active := r.ActiveSlide("c1"); active < 0 || active > 2 {
		t.Errorf("active slide %d out of range", active)
	}

	r.Render(composition.Composition{carousel("c1", "/a.jpg", "/b.jpg")})
	if !r.Rotating("c1") {
		t.Fatal("expected a fresh rotator after the slide list shrank")
	}
	if active := r.ActiveSlide("c1"); active > 1 {
		t.Errorf("active slide %d past the shrunk list", active)
	}

	r.Render(composition.Composition{})
	if r.Rotating("c1") {
		t.Error("expected rotator to stop when the block is removed")
	}

	r.Render(c)
	r.Close()
	if r.Rotating("c1") {
		t.Error("expected Close to stop rotators")
	}
	r.Render(c)
	if r.Rotating("c1") {
		t.Error("expected no rotators after Close")
	}
}

func TestPublicRendererRunsNoTimers(t *testing.T) {
	r := New(blocks.Default(), blocks.ModePublic, WithCarouselInterval(5*time.Millisecond))
	outputs := r.Render(composition.Composition{carousel("c1", "/a.jpg", "/b.jpg")})

	if len(outputs) != 1 || !strings.Contains(string(outputs[0].HTML), `data-interval="5"`) {
		t.Errorf("expected carousel to advertise its interval, got %+v", outputs)
	}
	if r.Rotating("c1") {
		t.Error("expected no server side rotator without auto advance")
	}
}

func TestSyncFollowsCompositionWithoutRendering(t *testing.T) {
	r := New(blocks.Default(), blocks.ModePreview,
		WithCarouselInterval(time.Hour),
		WithAutoAdvance(func(string, int) {}))
	defer r.Close()

	r.Sync(composition.Composition{carousel("c1", "/a.jpg", "/b.jpg")})
	if !r.Rotating("c1") {
		t.Fatal("expected Sync to start a rotator")
	}

	r.Sync(composition.Composition{carousel("c1", "/a.jpg")})
	if r.Rotating("c1") {
		t.Error("expected Sync to stop the rotator of a single slide carousel")
	}

	r.Sync(composition.Composition{carousel("c1", "/a.jpg", "/b.jpg")})
	r.Sync(composition.Composition{})
	if r.Rotating("c1") {
		t.Error("expected Sync to stop the rotator of a removed block")
	}
}
