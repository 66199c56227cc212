package dragreorder

import (
	"reflect"
	"testing"

	"github.com/news-composer/internal/blocks"
	"github.com/news-composer/internal/composition"
)

type countingStore struct {
	*composition.Store
	reorders [][2]int
}

func (s *countingStore) Reorder(from, to int) bool {
	s.reorders = append(s.reorders, [2]int{from, to})
	return s.Store.Reorder(from, to)
}

func newStore(ids ...string) *countingStore {
	c := make(composition.Composition, len(ids))
	for i, id := range ids {
		c[i] = blocks.Block{ID: id, Type: blocks.TypeText, Data: blocks.Data{"content": id}}
	}
	return &countingStore{Store: composition.NewStore(blocks.Default(), c)}
}

func order(s *countingStore) []string {
	c := s.Composition()
	out := make([]string, len(c))
	for i, b := range c {
		out[i] = b.ID
	}
	return out
}

func TestDragToTarget(t *testing.T) {
	store := newStore("a", "b", "c")
	ctrl := New(store)

	if !ctrl.Start("a") {
		t.Fatal("expected drag to start")
	}
	if ctrl.State() != Dragging || ctrl.Source() != "a" {
		t.Fatalf("unexpected state %s source %q", ctrl.State(), ctrl.Source())
	}
	ctrl.Over("b")
	ctrl.Over("c")

	if !ctrl.End() {
		t.Fatal("expected drop to reorder")
	}
	if got := order(store); !reflect.DeepEqual(got, []string{"b", "c", "a"}) {
		t.Errorf("unexpected order %v", got)
	}
	if len(store.reorders) != 1 || store.reorders[0] != [2]int{0, 2} {
		t.Errorf("expected exactly one reorder(0, 2), got %v", store.reorders)
	}
	if ctrl.State() != Idle {
		t.Error("expected controller to return to idle")
	}
}

func TestDropResolvesIndicesAtDropTime(t *testing.T) {
	store := newStore("a", "b", "c", "d")
	ctrl := New(store)

	ctrl.Start("d")
	ctrl.Over("b")
	store.Remove("a")

	if !ctrl.End() {
		t.Fatal("expected drop to reorder")
	}
	if store.reorders[0] != [2]int{2, 0} {
		t.Errorf("expected indices resolved after removal, got %v", store.reorders[0])
	}
	if got := order(store); !reflect.DeepEqual(got, []string{"d", "b", "c"}) {
		t.Errorf("unexpected order %v", got)
	}
}

func TestDropWithoutMovement(t *testing.T) {
	tests := []struct {
		name    string
		gesture func(*Controller, *countingStore)
	}{
		{"no target", func(c *Controller, _ *countingStore) { c.Start("a") }},
		{"target cleared", func(c *Controller, _ *countingStore) { c.Start("a"); c.Over("b"); c.Over("") }},
		{"back onto itself", func(c *Controller, _ *countingStore) { c.Start("a"); c.Over("b"); c.Over("a") }},
		{"source removed", func(c *Controller, s *countingStore) { c.Start("a"); c.Over("b"); s.Remove("a") }},
		{"target removed", func(c *Controller, s *countingStore) { c.Start("a"); c.Over("b"); s.Remove("b") }},
		{"never started", func(c *Controller, _ *countingStore) { c.Over("b") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newStore("a", "b", "c")
			ctrl := New(store)
			tt.gesture(ctrl, store)

			if ctrl.End() {
				t.Error("expected no reorder")
			}
			if len(store.reorders) != 0 {
				t.Errorf("expected no reorder calls, got %v", store.reorders)
			}
			if ctrl.State() != Idle {
				t.Error("expected idle after drop")
			}
		})
	}
}

func TestCancel(t *testing.T) {
	store := newStore("a", "b")
	ctrl := New(store)

	ctrl.Start("a")
	ctrl.Over("b")
	ctrl.Cancel()

	if ctrl.End() || len(store.reorders) != 0 {
		t.Error("expected cancelled gesture not to reorder")
	}

	ctrl.Start("a")
	ctrl.Over("b")
	ctrl.Key("a", KeyEscape)
	if ctrl.State() != Idle || ctrl.Target() != "" {
		t.Error("expected escape to cancel the drag")
	}
	if len(store.reorders) != 0 {
		t.Error("expected escape not to reorder")
	}
}

func TestStartIgnoresUnknownAndActive(t *testing.T) {
	ctrl := New(newStore("a", "b"))

	if ctrl.Start("zzz") {
		t.Error("expected unknown id not to start a drag")
	}
	ctrl.Start("a")
	if ctrl.Start("b") || ctrl.Source() != "a" {
		t.Error("expected active drag to keep its source")
	}
}

func TestKeyboardMoves(t *testing.T) {
	store := newStore("a", "b", "c")
	ctrl := New(store)

	steps := []struct {
		id, key string
		moved   bool
		want    []string
	}{
		{"a", KeyArrowDown, true, []string{"b", "a", "c"}},
		{"a", KeyArrowRight, true, []string{"b", "c", "a"}},
		{"a", KeyArrowDown, false, []string{"b", "c", "a"}},
		{"b", KeyArrowUp, false, []string{"b", "c", "a"}},
		{"a", KeyArrowLeft, true, []string{"b", "a", "c"}},
		{"c", KeyArrowUp, true, []string{"b", "c", "a"}},
		{"c", "Enter", false, []string{"b", "c", "a"}},
		{"missing", KeyArrowUp, false, []string{"b", "c", "a"}},
	}

	for i, step := range steps {
		if moved := ctrl.Key(step.id, step.key); moved != step.moved {
			t.Errorf("step %d: Key(%q, %q) = %v, want %v", i, step.id, step.key, moved, step.moved)
		}
		if got := order(store); !reflect.DeepEqual(got, step.want) {
			t.Errorf("step %d: order %v, want %v", i, got, step.want)
		}
	}
	if len(store.reorders) != 4 {
		t.Errorf("expected one reorder per effective press, got %d", len(store.reorders))
	}
}
