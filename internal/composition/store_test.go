package composition

import (
	"fmt"
	"reflect"
	"testing"

	"github.com/news-composer/internal/blocks"
)

type recorder struct {
	calls []Composition
}

func (r *recorder) onChange(c Composition) { r.calls = append(r.calls, c) }

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestStore(initial Composition) (*Store, *recorder) {
	rec := &recorder{}
	store := NewStore(blocks.Default(), initial, WithIDGenerator(sequentialIDs()), WithOnChange(rec.onChange))
	return store, rec
}

func TestStoreAddVideo(t *testing.T) {
	store, rec := newTestStore(nil)

	b, ok := store.Add(blocks.TypeVideo)
	if !ok {
		t.Fatal("expected video block to be added")
	}

	got := store.Composition()
	if len(got) != 1 || got[0].Type != blocks.TypeVideo || got[0].ID != "id-1" {
		t.Fatalf("unexpected composition %+v", got)
	}
	if !reflect.DeepEqual(got[0].Data, blocks.Data{"videoUrl": "", "title": ""}) {
		t.Errorf("unexpected default data %#v", got[0].Data)
	}
	if b.ID != "id-1" {
		t.Errorf("expected returned block id-1, got %s", b.ID)
	}
	if len(rec.calls) != 1 {
		t.Errorf("expected one notification, got %d", len(rec.calls))
	}
}

func TestStoreNotifiesOncePerCall(t *testing.T) {
	store, rec := newTestStore(sample())

	store.Update("a", blocks.Data{"content": "A2"})
	store.Update("missing", blocks.Data{"content": "x"})
	store.Remove("missing")
	store.Duplicate("b")
	store.Add("poll")
	store.Replace(Composition{{ID: "z", Type: blocks.TypeText}})

	if len(rec.calls) != 6 {
		t.Fatalf("expected 6 notifications, got %d", len(rec.calls))
	}
	if rec.calls[0][0].Data.String("content") != "A2" {
		t.Error("expected first snapshot to carry the update")
	}
	if len(rec.calls[4]) != 4 {
		t.Errorf("expected unknown type add to leave 4 blocks, got %d", len(rec.calls[4]))
	}
}

func TestStoreReorderNoMovementIsSilent(t *testing.T) {
	store, rec := newTestStore(sample())

	if store.Reorder(1, 1) {
		t.Error("expected same index reorder to report no movement")
	}
	if store.Reorder(0, 9) {
		t.Error("expected out of range reorder to report no movement")
	}
	if len(rec.calls) != 0 {
		t.Errorf("expected no notifications, got %d", len(rec.calls))
	}

	if !store.Reorder(0, 2) {
		t.Fatal("expected reorder to move the block")
	}
	if len(rec.calls) != 1 || !reflect.DeepEqual(ids(rec.calls[0]), []string{"b", "c", "a"}) {
		t.Errorf("unexpected notifications %v", rec.calls)
	}
}

func TestStoreSnapshotsAreIsolated(t *testing.T) {
	store, rec := newTestStore(sample())

	snapshot := store.Composition()
	snapshot[0].Data["content"] = "mutated"
	store.Update("b", blocks.Data{"content": "B2"})
	rec.calls[0][1].Data["content"] = "mutated too"

	current := store.Composition()
	if current[0].Data.String("content") != "A" || current[1].Data.String("content") != "B2" {
		t.Errorf("store state leaked through a snapshot: %+v", current)
	}
}

func TestStoreDuplicateGetsNewID(t *testing.T) {
	store, _ := newTestStore(sample())

	dup, ok := store.Duplicate("a")
	if !ok {
		t.Fatal("expected duplicate to succeed")
	}
	if dup.ID == "a" || store.IndexOf(dup.ID) != 1 {
		t.Errorf("unexpected duplicate %+v at %d", dup, store.IndexOf(dup.ID))
	}
	if store.Len() != 4 {
		t.Errorf("expected 4 blocks, got %d", store.Len())
	}
}

func TestStoreFreshIDSkipsTakenIDs(t *testing.T) {
	rec := &recorder{}
	store := NewStore(blocks.Default(), Composition{{ID: "id-1", Type: blocks.TypeText}},
		WithIDGenerator(sequentialIDs()), WithOnChange(rec.onChange))

	b, _ := store.Add(blocks.TypeText)
	if b.ID != "id-2" {
		t.Errorf("expected taken id to be skipped, got %s", b.ID)
	}
}
