// Package composition holds the ordered block list of one article and the
// operations that edit it.
package composition

import "github.com/news-composer/internal/blocks"

// Composition is the ordered list of blocks forming an article body. Order is
// rendering order and ids are unique within one composition.
type Composition []blocks.Block

// Clone returns a deep copy. A nil composition clones to an empty one.
func (c Composition) Clone() Composition {
	out := make(Composition, len(c))
	for i, b := range c {
		out[i] = b.Clone()
	}
	return out
}

// IndexOf returns the position of the block with the given id, or -1.
func (c Composition) IndexOf(id string) int {
	for i, b := range c {
		if b.ID == id {
			return i
		}
	}
	return -1
}

// Add returns c with b appended.
func Add(c Composition, b blocks.Block) Composition {
	out := make(Composition, 0, len(c)+1)
	out = append(out, c...)
	return append(out, b.Clone())
}

// Update returns c with partial shallow-merged into the data of block id.
// Nested values in partial replace the stored ones wholesale.
func Update(c Composition, id string, partial blocks.Data) Composition {
	idx := c.IndexOf(id)
	if idx < 0 {
		return c
	}
	out := make(Composition, len(c))
	copy(out, c)
	updated := out[idx]
	updated.Data = updated.Data.Merge(partial)
	out[idx] = updated
	return out
}

// Remove returns c without block id.
func Remove(c Composition, id string) Composition {
	idx := c.IndexOf(id)
	if idx < 0 {
		return c
	}
	out := make(Composition, 0, len(c)-1)
	out = append(out, c[:idx]...)
	return append(out, c[idx+1:]...)
}

// Duplicate returns c with a deep copy of block id, carrying newID, inserted
// right after the original.
func Duplicate(c Composition, id, newID string) Composition {
	idx := c.IndexOf(id)
	if idx < 0 || newID == "" || c.IndexOf(newID) >= 0 {
		return c
	}
	copyBlock := c[idx].Clone()
	copyBlock.ID = newID
	if copyBlock.Data == nil {
		copyBlock.Data = blocks.Data{}
	}

	out := make(Composition, 0, len(c)+1)
	out = append(out, c[:idx+1]...)
	out = append(out, copyBlock)
	return append(out, c[idx+1:]...)
}

// Reorder returns c with the block at from moved to to, shifting the blocks in
// between. Equal or out of range indices leave c as is.
func Reorder(c Composition, from, to int) Composition {
	if from == to || from < 0 || to < 0 || from >= len(c) || to >= len(c) {
		return c
	}
	out := make(Composition, 0, len(c))
	moved := c[from]
	for i, b := range c {
		if i == from {
			continue
		}
		out = append(out, b)
	}
	out = append(out[:to], append(Composition{moved}, out[to:]...)...)
	return out
}
