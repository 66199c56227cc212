package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
	"github.com/news-composer/internal/config"
	"github.com/news-composer/internal/models"
	"github.com/news-composer/internal/service"
)

func openSession(t *testing.T, h *testHarness) (*models.Article, *models.SessionView) {
	t.Helper()
	article := h.createArticle(t, "Editing "+t.Name())
	view, err := h.services.Editor.Open(context.Background(), article.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return article, view
}

func TestEditorService_Open(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()

	if _, err := h.services.Editor.Open(ctx, "missing"); !errors.Is(err, service.ErrArticleNotFound) {
		t.Errorf("expected ErrArticleNotFound, got %v", err)
	}

	article := h.createArticle(t, "Legacy")
	h.articleRepo.UpdateContent(ctx, article.ID, "Plain legacy text")

	view, err := h.services.Editor.Open(ctx, article.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(view.Content) != 1 || view.Content[0].Data.String("content") != "Plain legacy text" {
		t.Errorf("expected legacy content as one text block, got %+v", view.Content)
	}
	if view.Drag.State != "idle" || view.Save.State != models.SaveStateIdle {
		t.Errorf("unexpected initial state %+v", view)
	}

	if _, err := h.services.Editor.Get("missing"); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestEditorService_Mutations(t *testing.T) {
	h := newTestHarness(t)
	editor := h.services.Editor
	_, view := openSession(t, h)
	id := view.ID

	video, ok, err := editor.AddBlock(id, blocks.TypeVideo)
	if err != nil || !ok {
		t.Fatalf("AddBlock: ok=%v err=%v", ok, err)
	}
	if video.Data.String("videoUrl") != "" {
		t.Errorf("expected default video data, got %+v", video.Data)
	}
	text, _, _ := editor.AddBlock(id, blocks.TypeText)

	if _, ok, _ := editor.AddBlock(id, "poll"); ok {
		t.Error("expected unknown type not to be added")
	}

	if ok, _ := editor.UpdateBlock(id, text.ID, blocks.Data{"content": "hello"}); !ok {
		t.Error("expected update to apply")
	}
	if ok, _ := editor.UpdateBlock(id, "stale", blocks.Data{"content": "x"}); ok {
		t.Error("expected stale update to be a no-op")
	}

	dup, ok, _ := editor.DuplicateBlock(id, text.ID)
	if !ok || dup.ID == text.ID || dup.Data.String("content") != "hello" {
		t.Errorf("unexpected duplicate %+v", dup)
	}

	// [video, text, dup] -> [text, dup, video]
	if ok, _ := editor.Reorder(id, 0, 2); !ok {
		t.Error("expected reorder to move")
	}
	if ok, _ := editor.Reorder(id, 1, 1); ok {
		t.Error("expected same-index reorder to be a no-op")
	}

	got, _ := editor.Get(id)
	order := []string{got.Content[0].ID, got.Content[1].ID, got.Content[2].ID}
	want := []string{text.ID, dup.ID, video.ID}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected order %v, got %v", want, order)
		}
	}

	if ok, _ := editor.RemoveBlock(id, dup.ID); !ok {
		t.Error("expected remove to apply")
	}
	if ok, _ := editor.RemoveBlock(id, dup.ID); ok {
		t.Error("expected second remove to be a no-op")
	}

	outputs, err := editor.Preview(id)
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}
	if len(outputs) != 1 || outputs[0].BlockID != text.ID {
		t.Errorf("expected only the text block in the preview, got %+v", outputs)
	}
	if !strings.Contains(string(outputs[0].HTML), `data-block-id="`+text.ID+`"`) {
		t.Errorf("expected preview wrapper, got %s", outputs[0].HTML)
	}
}

func TestEditorService_DragAndKeys(t *testing.T) {
	h := newTestHarness(t)
	editor := h.services.Editor
	_, view := openSession(t, h)
	id := view.ID

	a, _, _ := editor.AddBlock(id, blocks.TypeText)
	b, _, _ := editor.AddBlock(id, blocks.TypeButton)
	c, _, _ := editor.AddBlock(id, blocks.TypeCover)

	steps := []struct {
		event   models.DragEventRequest
		state   string
		wantHit bool
	}{
		{models.DragEventRequest{Event: models.DragStart, BlockID: a.ID}, "dragging", false},
		{models.DragEventRequest{Event: models.DragOver, BlockID: c.ID}, "dragging", false},
		{models.DragEventRequest{Event: models.DragEnd}, "idle", true},
	}
	for _, step := range steps {
		drag, moved, err := editor.Drag(id, &step.event)
		if err != nil {
			t.Fatalf("Drag(%s): %v", step.event.Event, err)
		}
		if drag.State != step.state || moved != step.wantHit {
			t.Errorf("Drag(%s) = %+v moved=%v", step.event.Event, drag, moved)
		}
	}

	got, _ := editor.Get(id)
	if got.Content[2].ID != a.ID || got.Content[0].ID != b.ID {
		t.Fatalf("expected A dropped at the end, got %+v", got.Content)
	}

	editor.Drag(id, &models.DragEventRequest{Event: models.DragStart, BlockID: b.ID})
	editor.Drag(id, &models.DragEventRequest{Event: models.DragOver, BlockID: a.ID})
	if drag, moved, _ := editor.Drag(id, &models.DragEventRequest{Event: models.DragCancel}); moved || drag.State != "idle" {
		t.Errorf("expected cancel to issue nothing, got %+v", drag)
	}

	if moved, _ := editor.Key(id, a.ID, "ArrowUp"); !moved {
		t.Error("expected ArrowUp to move the block")
	}
	got, _ = editor.Get(id)
	if got.Content[1].ID != a.ID {
		t.Errorf("expected A one position up, got %+v", got.Content)
	}
	if moved, _ := editor.Key(id, b.ID, "ArrowUp"); moved {
		t.Error("expected ArrowUp on the first block to be a no-op")
	}
}

func TestEditorService_FormsSurfaceUnknownBlocks(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	article := h.createArticle(t, "Forms")
	h.articleRepo.UpdateContent(ctx, article.ID,
		`[{"id":"x","type":"poll","data":{"q":"?"}},{"id":"t","type":"text","data":{"content":"hi"}},{"id":"v","type":"video","data":{}}]`)

	view, err := h.services.Editor.Open(ctx, article.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	forms, err := h.services.Editor.Forms(view.ID)
	if err != nil {
		t.Fatalf("Forms: %v", err)
	}
	if len(forms) != 3 {
		t.Fatalf("expected a form per block, got %d", len(forms))
	}

	unknown := forms[0]
	if unknown.Supported || unknown.IssueCount != 1 || !strings.Contains(string(unknown.HTML), "poll") {
		t.Errorf("expected an unsupported notice naming the type, got %+v", unknown)
	}
	if !forms[1].Supported || !forms[1].Renderable {
		t.Errorf("expected text block to be renderable, got %+v", forms[1])
	}
	if forms[2].Renderable {
		t.Errorf("expected empty video not to be renderable, got %+v", forms[2])
	}
}

func TestEditorService_SaveAndClose(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	editor := h.services.Editor
	article, view := openSession(t, h)

	text, _, _ := editor.AddBlock(view.ID, blocks.TypeText)
	editor.UpdateBlock(view.ID, text.ID, blocks.Data{"content": "saved body"})

	status, err := editor.Save(ctx, view.ID)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if status.State != models.SaveStateSaved || status.SavedAt == nil {
		t.Errorf("expected saved status, got %+v", status)
	}

	stored := composition.Deserialize(h.articleRepo.Content(article.ID))
	if len(stored) != 1 || stored[0].Data.String("content") != "saved body" {
		t.Errorf("unexpected stored content %s", h.articleRepo.Content(article.ID))
	}

	editor.UpdateBlock(view.ID, text.ID, blocks.Data{"content": "closing edit"})
	if err := editor.Close(ctx, view.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if !strings.Contains(h.articleRepo.Content(article.ID), "closing edit") {
		t.Error("expected close to flush the last edit")
	}
	if _, err := editor.Get(view.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected closed session to be gone, got %v", err)
	}
	if err := editor.Close(ctx, view.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound on second close, got %v", err)
	}
}

func TestEditorService_SaveFailure(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	_, view := openSession(t, h)

	h.articleRepo.UpdateContentFunc = func(ctx context.Context, id, content string) (bool, error) {
		return false, errors.New("connection refused")
	}

	h.services.Editor.AddBlock(view.ID, blocks.TypeText)
	status, err := h.services.Editor.Save(ctx, view.ID)
	if err == nil {
		t.Fatal("expected the persistence error to reach the caller")
	}
	if status.State != models.SaveStateFailed || !strings.Contains(status.Error, "connection refused") {
		t.Errorf("expected failed status, got %+v", status)
	}

	// Edits keep applying while saves fail
	if _, ok, _ := h.services.Editor.AddBlock(view.ID, blocks.TypeButton); !ok {
		t.Error("expected edits to continue after a failed save")
	}
}

func TestEditorService_Subscribe(t *testing.T) {
	h := newTestHarness(t)
	editor := h.services.Editor
	_, view := openSession(t, h)

	events, cancel, err := editor.Subscribe(view.ID)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	defer cancel()

	text, _, _ := editor.AddBlock(view.ID, blocks.TypeText)
	editor.UpdateBlock(view.ID, text.ID, blocks.Data{"content": "live"})

	first := receive(t, events)
	if first.Type != "preview" || len(first.Blocks) != 0 {
		t.Errorf("expected empty preview after adding a blank text block, got %+v", first)
	}
	second := receive(t, events)
	if len(second.Blocks) != 1 || second.Blocks[0].BlockID != text.ID {
		t.Errorf("expected preview with the text block, got %+v", second)
	}
	if second.Save.State != models.SaveStatePending && second.Save.State != models.SaveStateSaving && second.Save.State != models.SaveStateSaved {
		t.Errorf("expected save to be queued, got %+v", second.Save)
	}

	if err := editor.Close(context.Background(), view.ID); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, open := <-events; open {
		t.Error("expected closing the session to close the stream")
	}
}

func TestEditorService_CarouselTicks(t *testing.T) {
	h := newTestHarness(t, func(c *config.Config) { c.Editor.CarouselInterval = 10 * time.Millisecond })
	editor := h.services.Editor
	_, view := openSession(t, h)

	carousel, _, _ := editor.AddBlock(view.ID, blocks.TypeCarousel)
	events, cancel, _ := editor.Subscribe(view.ID)
	defer cancel()

	editor.UpdateBlock(view.ID, carousel.ID, blocks.Data{"images": []any{
		map[string]any{"url": "https://cdn.example.com/1.jpg"},
		map[string]any{"url": "https://cdn.example.com/2.jpg"},
	}})

	deadline := time.After(2 * time.Second)
	for {
		select {
		case event := <-events:
			if event.Type == "tick" {
				return
			}
		case <-deadline:
			t.Fatal("expected a carousel tick event")
		}
	}
}

func TestEditorService_ReapIdle(t *testing.T) {
	h := newTestHarness(t, func(c *config.Config) { c.Editor.SessionTTL = time.Minute })
	article, view := openSession(t, h)
	h.services.Editor.AddBlock(view.ID, blocks.TypeText)

	if n := h.services.Editor.ReapIdle(time.Now()); n != 0 {
		t.Errorf("expected fresh session to survive, reaped %d", n)
	}
	if n := h.services.Editor.ReapIdle(time.Now().Add(2 * time.Minute)); n != 1 {
		t.Errorf("expected one idle session to be reaped, got %d", n)
	}
	if h.services.Editor.Count() != 0 {
		t.Error("expected no sessions left")
	}
	if len(composition.Deserialize(h.articleRepo.Content(article.ID))) != 1 {
		t.Error("expected reaping to flush pending content")
	}
}

func receive(t *testing.T, events <-chan models.PreviewEvent) models.PreviewEvent {
	t.Helper()
	select {
	case event := <-events:
		return event
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a preview event")
		return models.PreviewEvent{}
	}
}

func TestEditorService_ExternalReplaceReachesSessions(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	editor := h.services.Editor
	article, view := openSession(t, h)

	stale, _, _ := editor.AddBlock(view.ID, blocks.TypeText)
	events, cancel, _ := editor.Subscribe(view.ID)
	defer cancel()

	external := `[{"id":"ext","type":"text","data":{"content":"Written elsewhere"}}]`
	if _, err := h.services.Article.ReplaceComposition(ctx, article.ID, json.RawMessage(external)); err != nil {
		t.Fatalf("ReplaceComposition: %v", err)
	}

	event := receive(t, events)
	if len(event.Blocks) != 1 || event.Blocks[0].BlockID != "ext" {
		t.Errorf("expected subscribers to see the replaced content, got %+v", event.Blocks)
	}

	if ok, _ := editor.UpdateBlock(view.ID, stale.ID, blocks.Data{"content": "gone"}); ok {
		t.Error("expected the replaced block to be gone from the session")
	}
	added, _, _ := editor.AddBlock(view.ID, blocks.TypeText)
	editor.UpdateBlock(view.ID, added.ID, blocks.Data{"content": "Follow-up"})

	if _, err := editor.Save(ctx, view.ID); err != nil {
		t.Fatalf("Save: %v", err)
	}
	saved := composition.Deserialize(h.articleRepo.Content(article.ID))
	if len(saved) != 2 || saved[0].ID != "ext" || saved[1].ID != added.ID {
		t.Errorf("expected external content followed by the new edit, got %+v", saved)
	}
}

func TestEditorService_DeleteClosesSessions(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	editor := h.services.Editor
	article, view := openSession(t, h)
	other, err := editor.Open(ctx, h.createArticle(t, "Unrelated").ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	editor.AddBlock(view.ID, blocks.TypeText)
	events, _, _ := editor.Subscribe(view.ID)

	if err := h.services.Article.Delete(ctx, article.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := editor.Get(view.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("expected the deleted article's session to be closed, got %v", err)
	}
	if _, ok := <-events; ok {
		t.Error("expected the subscription to be closed")
	}
	if status := h.services.Autosaver.Status(article.ID); status.State != models.SaveStateIdle {
		t.Errorf("expected pending save to be dropped, got %+v", status)
	}
	if _, err := editor.Get(other.ID); err != nil {
		t.Errorf("expected sessions of other articles to stay open, got %v", err)
	}
}

func TestEditorService_RemovedCarouselStopsWithoutSubscribers(t *testing.T) {
	h := newTestHarness(t, func(c *config.Config) { c.Editor.CarouselInterval = 5 * time.Millisecond })
	editor := h.services.Editor
	_, view := openSession(t, h)

	carousel, _, _ := editor.AddBlock(view.ID, blocks.TypeCarousel)
	editor.UpdateBlock(view.ID, carousel.ID, blocks.Data{"images": []any{
		map[string]any{"url": "https://cdn.example.com/1.jpg"},
		map[string]any{"url": "https://cdn.example.com/2.jpg"},
	}})
	editor.RemoveBlock(view.ID, carousel.ID)
	// A tick already firing at removal time may still finish
	time.Sleep(20 * time.Millisecond)

	events, cancel, _ := editor.Subscribe(view.ID)
	defer cancel()

	select {
	case event := <-events:
		t.Errorf("expected the removed carousel to stop rotating, got %q event", event.Type)
	case <-time.After(100 * time.Millisecond):
	}
}
