// Package dragreorder turns pointer drag gestures and keyboard moves into
// reorder operations on a composition.
package dragreorder

import "sync"

// State is the phase of a drag gesture.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// Keys understood by Key.
const (
	KeyArrowUp    = "ArrowUp"
	KeyArrowDown  = "ArrowDown"
	KeyArrowLeft  = "ArrowLeft"
	KeyArrowRight = "ArrowRight"
	KeyEscape     = "Escape"
)

// Reorderer is the composition a controller moves blocks in.
type Reorderer interface {
	IndexOf(id string) int
	Len() int
	Reorder(from, to int) bool
}

// Controller tracks one drag gesture at a time. Source and target are block ids;
// indices are resolved only when the gesture ends, because the list may have
// changed while dragging.
type Controller struct {
	mu     sync.Mutex
	target Reorderer
	state  State
	source string
	over   string
}

// New creates an idle controller for target.
func New(target Reorderer) *Controller {
	return &Controller{target: target}
}

// Start begins a drag of block id. Unknown ids and an already active drag are ignored.
func (c *Controller) Start(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == Dragging || id == "" || c.target.IndexOf(id) < 0 {
		return false
	}
	c.state = Dragging
	c.source = id
	c.over = ""
	return true
}

// Over records the block currently under the pointer. An empty id clears the target.
func (c *Controller) Over(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return
	}
	c.over = id
}

// End drops the dragged block onto the current target. It issues one reorder when
// both blocks still exist and differ, and reports whether it did.
func (c *Controller) End() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != Dragging {
		return false
	}
	source, over := c.source, c.over
	c.reset()

	if over == "" || over == source {
		return false
	}
	from := c.target.IndexOf(source)
	to := c.target.IndexOf(over)
	if from < 0 || to < 0 {
		return false
	}
	return c.target.Reorder(from, to)
}

// Cancel abandons the current gesture without reordering.
func (c *Controller) Cancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reset()
}

// Key applies a keyboard command to block id. Arrow keys move the block one
// position per press; Escape cancels an active drag. It reports whether the
// composition changed.
func (c *Controller) Key(id, key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var delta int
	switch key {
	case KeyArrowUp, KeyArrowLeft:
		delta = -1
	case KeyArrowDown, KeyArrowRight:
		delta = 1
	case KeyEscape:
		c.reset()
		return false
	default:
		return false
	}

	from := c.target.IndexOf(id)
	if from < 0 {
		return false
	}
	to := from + delta
	if to < 0 || to >= c.target.Len() {
		return false
	}
	return c.target.Reorder(from, to)
}

// State returns the gesture phase.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Source returns the id being dragged, or "".
func (c *Controller) Source() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

// Target returns the id under the pointer, or "".
func (c *Controller) Target() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.over
}

func (c *Controller) reset() {
	c.state = Idle
	c.source = ""
	c.over = ""
}
