package composition

import (
	"reflect"
	"testing"

	"github.com/news-composer/internal/blocks"
)

func sample() Composition {
	return Composition{
		{ID: "a", Type: blocks.TypeText, Data: blocks.Data{"content": "A"}},
		{ID: "b", Type: blocks.TypeText, Data: blocks.Data{"content": "B"}},
		{ID: "c", Type: blocks.TypeCarousel, Data: blocks.Data{"images": []any{map[string]any{"url": "/c.jpg"}}}},
	}
}

func ids(c Composition) []string {
	out := make([]string, len(c))
	for i, b := range c {
		out[i] = b.ID
	}
	return out
}

func TestReorder(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"first to last", 0, 2, []string{"b", "c", "a"}},
		{"last to first", 2, 0, []string{"c", "a", "b"}},
		{"adjacent down", 0, 1, []string{"b", "a", "c"}},
		{"adjacent up", 2, 1, []string{"a", "c", "b"}},
		{"same index", 1, 1, []string{"a", "b", "c"}},
		{"from out of range", 5, 0, []string{"a", "b", "c"}},
		{"negative to", 0, -1, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := sample()
			got := Reorder(input, tt.from, tt.to)
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("Reorder(%d, %d) = %v, want %v", tt.from, tt.to, ids(got), tt.want)
			}
			if !reflect.DeepEqual(ids(input), []string{"a", "b", "c"}) {
				t.Errorf("input was mutated: %v", ids(input))
			}
		})
	}
}

func TestReorderMovesEveryPair(t *testing.T) {
	base := Composition{}
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		base = append(base, blocks.Block{ID: id, Type: blocks.TypeText, Data: blocks.Data{}})
	}

	for from := range base {
		for to := range base {
			if from == to {
				continue
			}
			got := Reorder(base, from, to)
			if len(got) != len(base) {
				t.Fatalf("length changed for (%d, %d)", from, to)
			}
			if got[to].ID != base[from].ID {
				t.Errorf("(%d, %d): expected %s at %d, got %s", from, to, base[from].ID, to, got[to].ID)
			}
			rest := Remove(got, base[from].ID)
			want := Remove(base, base[from].ID)
			if !reflect.DeepEqual(ids(rest), ids(want)) {
				t.Errorf("(%d, %d): relative order changed: %v vs %v", from, to, ids(rest), ids(want))
			}
		}
	}
}

func TestStaleIDsAreNoops(t *testing.T) {
	input := sample()

	if got := Update(input, "missing", blocks.Data{"content": "x"}); !reflect.DeepEqual(got, input) {
		t.Error("Update with unknown id changed the composition")
	}
	if got := Remove(input, "missing"); !reflect.DeepEqual(got, input) {
		t.Error("Remove with unknown id changed the composition")
	}
	if got := Duplicate(input, "missing", "z"); !reflect.DeepEqual(got, input) {
		t.Error("Duplicate with unknown id changed the composition")
	}
}

func TestUpdateMergesShallowly(t *testing.T) {
	input := sample()
	got := Update(input, "c", blocks.Data{"images": []any{}, "title": "Gallery"})

	if n := len(got[2].Data["images"].([]any)); n != 0 {
		t.Errorf("expected images to be replaced, got %d entries", n)
	}
	if got[2].Data.String("title") != "Gallery" {
		t.Error("expected new key to be merged")
	}
	if n := len(input[2].Data["images"].([]any)); n != 1 {
		t.Error("expected input to be left untouched")
	}
}

func TestDuplicateIsIndependent(t *testing.T) {
	input := sample()
	got := Duplicate(input, "c", "c2")

	if !reflect.DeepEqual(ids(got), []string{"a", "b", "c", "c2"}) {
		t.Fatalf("unexpected order %v", ids(got))
	}
	copied := got[3].Data["images"].([]any)[0].(map[string]any)
	copied["url"] = "/changed.jpg"

	if url := got[2].Data.List("images")[0]["url"]; url != "/c.jpg" {
		t.Errorf("original carousel entry changed to %v", url)
	}
	if got := Duplicate(input, "c", "a"); len(got) != len(input) {
		t.Error("expected duplicate with a taken id to be refused")
	}
}

func TestRemove(t *testing.T) {
	got := Remove(sample(), "b")
	if !reflect.DeepEqual(ids(got), []string{"a", "c"}) {
		t.Errorf("unexpected result %v", ids(got))
	}

	single := Composition{{ID: "a", Type: blocks.TypeText}}
	if got := Remove(single, "nonexistent"); !reflect.DeepEqual(got, single) {
		t.Errorf("expected [A] unchanged, got %v", ids(got))
	}
}
