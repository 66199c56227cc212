package blocks

import (
	"html/template"
	"strings"
)

var textEditor = mustTemplate("text-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="text">
  <label>Content <textarea name="content" rows="8">{{ .Data.String "content" }}</textarea></label>
</div>`)

func textDefinition() Definition {
	return Definition{
		Type:    TypeText,
		Label:   "Text",
		Default: func() Data { return Data{"content": ""} },
		Editor:  func(b Block) template.HTML { return executeEditor(textEditor, b) },
		View: func(b Block, ctx RenderContext) (template.HTML, bool) {
			content := b.Data.String("content")
			if strings.TrimSpace(content) == "" {
				return "", false
			}
			return template.HTML(`<div class="block-text">`) + RenderText(content, ctx.AllowRawHTML) + template.HTML(`</div>`), true
		},
		Schema: objectSchema(map[string]any{
			"content": stringProperty(),
		}),
	}
}
