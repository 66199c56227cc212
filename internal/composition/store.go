package composition

import (
	"sync"

	"github.com/google/uuid"

	"github.com/news-composer/internal/blocks"
)

// ChangeFunc receives a snapshot of the composition after an operation.
type ChangeFunc func(Composition)

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the block id generator.
func WithIDGenerator(next func() string) Option {
	return func(s *Store) {
		if next != nil {
			s.newID = next
		}
	}
}

// WithOnChange registers the callback invoked once per operation.
func WithOnChange(fn ChangeFunc) Option {
	return func(s *Store) {
		s.onChange = fn
	}
}

// Store exclusively owns the composition of one editing session. Every operation
// installs a new Composition value and notifies the change callback once. Stale
// ids degrade to no-ops.
type Store struct {
	mu       sync.Mutex
	registry *blocks.Registry
	current  Composition
	newID    func() string
	onChange ChangeFunc
}

// NewStore creates a store seeded with a copy of initial.
func NewStore(registry *blocks.Registry, initial Composition, opts ...Option) *Store {
	if registry == nil {
		registry = blocks.Default()
	}
	s := &Store{
		registry: registry,
		current:  initial.Clone(),
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Composition returns a deep copy of the current composition.
func (s *Store) Composition() Composition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.Clone()
}

// Len returns the number of blocks.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.current)
}

// IndexOf returns the current position of block id, or -1.
func (s *Store) IndexOf(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.IndexOf(id)
}

// Add appends a block of type t with the registry's default data. Types the
// registry does not know are not added.
func (s *Store) Add(t blocks.Type) (blocks.Block, bool) {
	var (
		added blocks.Block
		ok    bool
	)
	s.apply(func(c Composition) Composition {
		if !s.registry.Has(t) {
			return c
		}
		added = blocks.Block{ID: s.freshID(c), Type: t, Data: s.registry.DefaultData(t)}
		ok = true
		return Add(c, added)
	})
	return added.Clone(), ok
}

// Update shallow-merges partial into the data of block id.
func (s *Store) Update(id string, partial blocks.Data) bool {
	var found bool
	s.apply(func(c Composition) Composition {
		found = c.IndexOf(id) >= 0
		return Update(c, id, partial)
	})
	return found
}

// Remove deletes block id.
func (s *Store) Remove(id string) bool {
	var found bool
	s.apply(func(c Composition) Composition {
		found = c.IndexOf(id) >= 0
		return Remove(c, id)
	})
	return found
}

// Duplicate inserts a deep copy of block id, with a new id, right after it.
func (s *Store) Duplicate(id string) (blocks.Block, bool) {
	var (
		dup   blocks.Block
		found bool
	)
	s.apply(func(c Composition) Composition {
		idx := c.IndexOf(id)
		if idx < 0 {
			return c
		}
		next := Duplicate(c, id, s.freshID(c))
		dup = next[idx+1].Clone()
		found = true
		return next
	})
	return dup, found
}

// Reorder moves the block at from to to. Calls that resolve to no movement do not
// notify, since drag gestures mostly end where they started.
func (s *Store) Reorder(from, to int) bool {
	s.mu.Lock()
	if from == to || from < 0 || to < 0 || from >= len(s.current) || to >= len(s.current) {
		s.mu.Unlock()
		return false
	}
	s.current = Reorder(s.current, from, to)
	snapshot := s.current.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
	return true
}

// Replace installs a composition loaded or overwritten from outside the session.
func (s *Store) Replace(c Composition) {
	s.apply(func(Composition) Composition {
		return c.Clone()
	})
}

func (s *Store) apply(op func(Composition) Composition) {
	s.mu.Lock()
	s.current = op(s.current)
	snapshot := s.current.Clone()
	s.mu.Unlock()

	s.notify(snapshot)
}

func (s *Store) notify(snapshot Composition) {
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}

func (s *Store) freshID(c Composition) string {
	for attempt := 0; attempt < 8; attempt++ {
		if id := s.newID(); id != "" && c.IndexOf(id) < 0 {
			return id
		}
	}
	return uuid.NewString()
}
