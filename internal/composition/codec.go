package composition

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/news-composer/internal/blocks"
)

// legacyNamespace seeds the deterministic ids given to recovered legacy content.
var legacyNamespace = uuid.MustParse("6f1d8f0e-35c4-4d0b-9a53-5b7f0f6c2a11")

// Report describes what Deserialize had to repair.
type Report struct {
	// Legacy is set when the input was not a block array and became one text block.
	Legacy bool
	// RepairedIDs counts blocks given a new id because theirs was missing or taken.
	RepairedIDs int
	// Malformed counts array elements that were not block objects, or whose data was
	// not an object. They are kept, wrapped under data.value.
	Malformed int
}

// Serialize encodes c as the persisted JSON array. An empty composition encodes as [].
func Serialize(c Composition) (string, error) {
	if c == nil {
		c = Composition{}
	}
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(c); err != nil {
		return "", fmt.Errorf("failed to serialize composition: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Deserialize turns stored content into a Composition. It never fails: anything that
// is not a block array becomes a single text block holding the original text.
func Deserialize(input any) Composition {
	c, _ := DeserializeWithReport(input)
	return c
}

// DeserializeWithReport is Deserialize plus a description of the repairs made.
func DeserializeWithReport(input any) (Composition, Report) {
	var report Report
	switch v := input.(type) {
	case nil:
		return Composition{}, report
	case Composition:
		return fromBlocks(v, &report), report
	case []blocks.Block:
		return fromBlocks(v, &report), report
	case string:
		return fromText(v, &report), report
	case []byte:
		return fromText(string(v), &report), report
	case json.RawMessage:
		return fromText(string(v), &report), report
	case []any:
		return fromElements(v, &report), report
	case []map[string]any:
		elements := make([]any, len(v))
		for i, entry := range v {
			elements[i] = entry
		}
		return fromElements(elements, &report), report
	default:
		return fromText(fmt.Sprint(v), &report), report
	}
}

func fromText(raw string, report *Report) Composition {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return Composition{}
	}

	value, err := decodeJSON(trimmed)
	if err != nil {
		return legacy(raw, report)
	}
	switch v := value.(type) {
	case []any:
		return fromElements(v, report)
	case string:
		// Content that was JSON-encoded twice.
		inner := strings.TrimSpace(v)
		if strings.HasPrefix(inner, "[") {
			if nested, err := decodeJSON(inner); err == nil {
				if elements, ok := nested.([]any); ok {
					return fromElements(elements, report)
				}
			}
		}
	}
	return legacy(raw, report)
}

func decodeJSON(text string) (any, error) {
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("unexpected data after top-level value")
	}
	return value, nil
}

// legacy wraps raw into one text block whose id depends only on the text, so the
// same stored string always yields the same composition.
func legacy(raw string, report *Report) Composition {
	report.Legacy = true
	return Composition{{
		ID:   uuid.NewSHA1(legacyNamespace, []byte(raw)).String(),
		Type: blocks.TypeText,
		Data: blocks.Data{"content": raw},
	}}
}

func fromElements(elements []any, report *Report) Composition {
	out := make(Composition, 0, len(elements))
	for _, element := range elements {
		out = append(out, blockFromElement(element, report))
	}
	return assignIDs(out, report)
}

func blockFromElement(element any, report *Report) blocks.Block {
	var fields map[string]any
	switch v := element.(type) {
	case blocks.Block:
		return v.Clone()
	case map[string]any:
		fields = v
	case blocks.Data:
		fields = v
	default:
		report.Malformed++
		return blocks.Block{Data: blocks.Data{"value": element}}
	}

	b := blocks.Block{ID: idString(fields["id"])}
	if typ, ok := fields["type"].(string); ok {
		b.Type = blocks.Type(typ)
	}
	switch data := fields["data"].(type) {
	case nil:
		b.Data = blocks.Data{}
	case map[string]any:
		b.Data = blocks.Data(data).Clone()
	case blocks.Data:
		b.Data = data.Clone()
	default:
		report.Malformed++
		b.Data = blocks.Data{"value": data}
	}
	return b
}

func idString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func fromBlocks(in []blocks.Block, report *Report) Composition {
	out := make(Composition, len(in))
	for i, b := range in {
		out[i] = b.Clone()
		if out[i].Data == nil {
			out[i].Data = blocks.Data{}
		}
	}
	return assignIDs(out, report)
}

// assignIDs gives blocks with a blank or repeated id a new one derived from the
// block's position and content, so reloading the same text keeps the same ids.
func assignIDs(c Composition, report *Report) Composition {
	seen := make(map[string]bool, len(c))
	for i := range c {
		key := strings.TrimSpace(c[i].ID)
		if key != "" && !seen[key] {
			seen[key] = true
			continue
		}
		report.RepairedIDs++
		encoded, _ := json.Marshal(c[i])
		for salt := 0; ; salt++ {
			candidate := uuid.NewSHA1(legacyNamespace, []byte(fmt.Sprintf("%d:%d:%s", i, salt, encoded))).String()
			if !seen[candidate] {
				c[i].ID = candidate
				seen[candidate] = true
				break
			}
		}
	}
	return c
}
