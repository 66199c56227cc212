package blocks

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Type is the block type tag stored in the "type" field of a serialized block.
type Type string

const (
	TypeCover         Type = "cover"
	TypeText          Type = "text"
	TypeFullImage     Type = "full-image"
	TypeImageWithLink Type = "image-with-link"
	TypeImagePlusText Type = "image-plus-text"
	TypeCarousel      Type = "carousel"
	TypeVideo         Type = "video"
	TypeButton        Type = "button"
	TypeAdMarkup      Type = "ad-markup"
)

// Block is one typed unit of article content.
type Block struct {
	ID   string `json:"id"`
	Type Type   `json:"type"`
	Data Data   `json:"data"`
}

// Clone returns a copy of the block with a deep-copied data bag.
func (b Block) Clone() Block {
	return Block{ID: b.ID, Type: b.Type, Data: b.Data.Clone()}
}

// Data is the type-specific attribute bag of a block. Its shape is owned by the
// block's Definition; values are whatever JSON decoding produced.
type Data map[string]any

// MarshalJSON encodes a nil bag as an empty object and leaves markup unescaped.
func (d Data) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(map[string]any(d)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Clone deep-copies the bag, including nested maps and lists.
func (d Data) Clone() Data {
	if d == nil {
		return nil
	}
	out := make(Data, len(d))
	for key, value := range d {
		out[key] = cloneValue(value)
	}
	return out
}

// Merge returns a new bag with partial's top-level keys applied over d.
// Nested values are replaced, never merged.
func (d Data) Merge(partial Data) Data {
	out := make(Data, len(d)+len(partial))
	for key, value := range d {
		out[key] = value
	}
	for key, value := range partial {
		out[key] = cloneValue(value)
	}
	return out
}

// String reads a scalar field as text. Missing and non-scalar values read as "".
func (d Data) String(key string) string {
	switch v := d[key].(type) {
	case string:
		return v
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case int:
		return strconv.Itoa(v)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// Bool reads a boolean flag, accepting the string forms editors sometimes submit.
func (d Data) Bool(key string) bool {
	switch v := d[key].(type) {
	case bool:
		return v
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(v))
		return err == nil && parsed
	default:
		return false
	}
}

// List reads a list of objects. Entries that are not objects are returned as nil maps
// so positions stay aligned with the stored list.
func (d Data) List(key string) []map[string]any {
	switch v := d[key].(type) {
	case []any:
		out := make([]map[string]any, len(v))
		for i, entry := range v {
			out[i] = asMap(entry)
		}
		return out
	case []map[string]any:
		return v
	case []Data:
		out := make([]map[string]any, len(v))
		for i, entry := range v {
			out[i] = entry
		}
		return out
	default:
		return nil
	}
}

func asMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case Data:
		return v
	default:
		return nil
	}
}

func mapString(m map[string]any, key string) string {
	return Data(m).String(key)
}

func cloneValue(value any) any {
	switch v := value.(type) {
	case Data:
		return v.Clone()
	case map[string]any:
		return map[string]any(Data(v).Clone())
	case []any:
		out := make([]any, len(v))
		for i, entry := range v {
			out[i] = cloneValue(entry)
		}
		return out
	case []map[string]any:
		out := make([]map[string]any, len(v))
		for i, entry := range v {
			out[i] = map[string]any(Data(entry).Clone())
		}
		return out
	case []Data:
		out := make([]Data, len(v))
		for i, entry := range v {
			out[i] = entry.Clone()
		}
		return out
	case []string:
		return append([]string(nil), v...)
	default:
		return v
	}
}

func (t Type) String() string { return string(t) }

// Label returns a human readable name for a type tag.
func (t Type) Label() string {
	if t == "" {
		return "untyped"
	}
	return fmt.Sprintf("%s block", strings.ReplaceAll(string(t), "-", " "))
}
