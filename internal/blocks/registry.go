package blocks

import (
	"sync"
)

// Definition binds a block type to its default data, editor form and public view.
type Definition struct {
	Type    Type
	Label   string
	Default func() Data
	Editor  EditorFunc
	View    ViewFunc
	// Schema is the JSON Schema of the data bag. Fields stay optional so drafts validate.
	Schema map[string]any
}

// Registry is the mapping from block type tag to its Definition. It is the single
// source of truth for which types exist and what their data looks like.
type Registry struct {
	defs  map[Type]Definition
	order []Type

	schemaMu sync.Mutex
	schemas  map[Type]*compiledSchema
}

// NewRegistry builds a registry from definitions. Later definitions for the same
// type replace earlier ones.
func NewRegistry(defs ...Definition) *Registry {
	r := &Registry{
		defs:    make(map[Type]Definition, len(defs)),
		schemas: make(map[Type]*compiledSchema),
	}
	for _, def := range defs {
		if def.Type == "" {
			continue
		}
		if _, exists := r.defs[def.Type]; !exists {
			r.order = append(r.order, def.Type)
		}
		r.defs[def.Type] = def
	}
	return r
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry holding every built-in block type.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry(BuiltinDefinitions()...)
	})
	return defaultRegistry
}

// BuiltinDefinitions lists the block types shipped with the portal, in the order
// the editor offers them.
func BuiltinDefinitions() []Definition {
	return []Definition{
		coverDefinition(),
		textDefinition(),
		fullImageDefinition(),
		imageWithLinkDefinition(),
		imagePlusTextDefinition(),
		carouselDefinition(),
		videoDefinition(),
		buttonDefinition(),
		adMarkupDefinition(),
	}
}

// Has reports whether t is registered.
func (r *Registry) Has(t Type) bool {
	_, ok := r.defs[t]
	return ok
}

// Types returns the registered tags in registration order.
func (r *Registry) Types() []Type {
	return append([]Type(nil), r.order...)
}

// Definition returns the definition registered for t.
func (r *Registry) Definition(t Type) (Definition, bool) {
	def, ok := r.defs[t]
	return def, ok
}

// DefaultData returns a fresh empty-state data bag for t, or an empty bag when t is
// not registered.
func (r *Registry) DefaultData(t Type) Data {
	def, ok := r.defs[t]
	if !ok || def.Default == nil {
		return Data{}
	}
	return def.Default().Clone()
}

// Editor returns the editor form renderer for t. Unknown types get a renderer that
// renders nothing.
func (r *Registry) Editor(t Type) EditorFunc {
	def, ok := r.defs[t]
	if !ok || def.Editor == nil {
		return noopEditor
	}
	return def.Editor
}

// View returns the read-only renderer for t. Unknown types get a renderer that
// renders nothing.
func (r *Registry) View(t Type) ViewFunc {
	def, ok := r.defs[t]
	if !ok || def.View == nil {
		return noopView
	}
	return def.View
}
