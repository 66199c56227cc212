package blocks

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// SchemaIssue is one problem found while checking a block against its schema.
type SchemaIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type compiledSchema struct {
	schema *jsonschema.Schema
	err    error
}

// ErrUnsupportedType marks blocks whose type is not registered.
var ErrUnsupportedType = errors.New("unsupported block type")

// Validate checks a block's data against the schema of its type. Unknown types
// yield a single issue. Validation never changes the block.
func (r *Registry) Validate(b Block) []SchemaIssue {
	def, ok := r.defs[b.Type]
	if !ok {
		return []SchemaIssue{{Field: "type", Message: fmt.Sprintf("%s %q", ErrUnsupportedType, b.Type)}}
	}
	if len(def.Schema) == 0 {
		return nil
	}
	compiled := r.compiled(def)
	if compiled.err != nil {
		return []SchemaIssue{{Message: fmt.Sprintf("schema for %q is invalid: %v", b.Type, compiled.err)}}
	}

	payload, err := plainJSON(b.Data)
	if err != nil {
		return []SchemaIssue{{Field: "data", Message: fmt.Sprintf("data is not JSON encodable: %v", err)}}
	}
	if err := compiled.schema.Validate(payload); err != nil {
		var validationErr *jsonschema.ValidationError
		if errors.As(err, &validationErr) {
			return collectIssues(validationErr)
		}
		return []SchemaIssue{{Message: err.Error()}}
	}
	return nil
}

func (r *Registry) compiled(def Definition) *compiledSchema {
	r.schemaMu.Lock()
	defer r.schemaMu.Unlock()
	if cached, ok := r.schemas[def.Type]; ok {
		return cached
	}
	schema, err := compileSchema(string(def.Type), def.Schema)
	entry := &compiledSchema{schema: schema, err: err}
	r.schemas[def.Type] = entry
	return entry
}

func compileSchema(name string, schema map[string]any) (*jsonschema.Schema, error) {
	encoded, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	resource := name + ".schema.json"
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource(resource, bytes.NewReader(encoded)); err != nil {
		return nil, err
	}
	return compiler.Compile(resource)
}

// plainJSON converts a data bag into the generic values the schema validator
// understands (map[string]any, []any, json.Number, ...).
func plainJSON(data Data) (any, error) {
	encoded, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(err *jsonschema.ValidationError) []SchemaIssue {
	issues := []SchemaIssue{}
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, SchemaIssue{
				Field:   strings.TrimPrefix(strings.ReplaceAll(node.InstanceLocation, "/", "."), "."),
				Message: strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}

func stringProperty() map[string]any { return map[string]any{"type": "string"} }

func boolProperty() map[string]any { return map[string]any{"type": "boolean"} }

func objectSchema(properties map[string]any) map[string]any {
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}
