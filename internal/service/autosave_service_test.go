package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/news-composer/internal/models"
)

func TestAutosaver_LatestWins(t *testing.T) {
	h := newTestHarness(t)
	ctx := context.Background()
	article := h.createArticle(t, "Autosave")
	autosaver := h.services.Autosaver

	if status := autosaver.Status(article.ID); status.State != models.SaveStateIdle {
		t.Errorf("expected idle status, got %+v", status)
	}

	autosaver.Enqueue(article.ID, `[{"id":"a","type":"text","data":{"content":"one"}}]`)
	seq := autosaver.Enqueue(article.ID, `[{"id":"a","type":"text","data":{"content":"two"}}]`)
	if seq != 2 {
		t.Errorf("expected sequence 2, got %d", seq)
	}
	if status := autosaver.Status(article.ID); status.State != models.SaveStatePending {
		t.Errorf("expected pending status, got %+v", status)
	}

	status, err := autosaver.Flush(ctx, article.ID)
	if err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if status.State != models.SaveStateSaved || status.Sequence != 2 {
		t.Errorf("expected saved sequence 2, got %+v", status)
	}
	if h.articleRepo.Calls() != 1 {
		t.Errorf("expected one write for two edits, got %d", h.articleRepo.Calls())
	}
	if got := h.articleRepo.Content(article.ID); got != `[{"id":"a","type":"text","data":{"content":"two"}}]` {
		t.Errorf("expected latest content stored, got %s", got)
	}

	// Nothing pending: flushing again writes nothing
	if _, err := autosaver.Flush(ctx, article.ID); err != nil {
		t.Fatalf("second Flush: %v", err)
	}
	if h.articleRepo.Calls() != 1 {
		t.Errorf("expected no extra write, got %d", h.articleRepo.Calls())
	}
}

func TestAutosaver_MissingArticle(t *testing.T) {
	h := newTestHarness(t)
	autosaver := h.services.Autosaver

	autosaver.Enqueue("missing", "[]")
	status, err := autosaver.Flush(context.Background(), "missing")
	if err == nil {
		t.Fatal("expected an error for a missing article")
	}
	if status.State != models.SaveStateFailed {
		t.Errorf("expected failed status, got %+v", status)
	}
}

func TestAutosaver_Processor(t *testing.T) {
	h := newTestHarness(t)
	article := h.createArticle(t, "Background")
	autosaver := h.services.Autosaver

	var ticks sync.WaitGroup
	ticks.Add(1)
	var once sync.Once
	autosaver.OnTick(func(time.Time) { once.Do(ticks.Done) })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go autosaver.StartProcessor(ctx)

	autosaver.Enqueue(article.ID, `[{"id":"bg","type":"button","data":{}}]`)

	deadline := time.Now().Add(2 * time.Second)
	for autosaver.Status(article.ID).State != models.SaveStateSaved {
		if time.Now().After(deadline) {
			t.Fatalf("background save did not complete: %+v", autosaver.Status(article.ID))
		}
		time.Sleep(5 * time.Millisecond)
	}
	ticks.Wait()

	autosaver.StopProcessor()

	// Content queued after the processor stopped is written by the next stop
	autosaver.Enqueue(article.ID, `[]`)
	autosaver.StopProcessor()
	if got := h.articleRepo.Content(article.ID); got != `[]` {
		t.Errorf("expected final content written, got %s", got)
	}
	if status := autosaver.Status(article.ID); status.State != models.SaveStateSaved || status.Sequence != 2 {
		t.Errorf("unexpected final status %+v", status)
	}
}

func TestAutosaver_FailureIsNotRetried(t *testing.T) {
	h := newTestHarness(t)
	article := h.createArticle(t, "Failing")
	autosaver := h.services.Autosaver

	h.articleRepo.UpdateContentFunc = func(ctx context.Context, id, content string) (bool, error) {
		return false, errors.New("disk full")
	}

	autosaver.Enqueue(article.ID, `[]`)
	if _, err := autosaver.Flush(context.Background(), article.ID); err == nil {
		t.Fatal("expected flush error")
	}
	calls := h.articleRepo.Calls()

	autosaver.FlushAll(context.Background())
	if h.articleRepo.Calls() != calls {
		t.Error("expected the failed save not to be retried")
	}
	if status := autosaver.Status(article.ID); status.State != models.SaveStateFailed || status.Error == "" {
		t.Errorf("expected failed status with message, got %+v", status)
	}
}
