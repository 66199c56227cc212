package blocks

import (
	"html/template"
	"strings"
)

var adMarkupEditor = mustTemplate("ad-markup-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="ad-markup">
  <label>Ad markup <textarea name="html" rows="6" spellcheck="false">{{ .Data.String "html" }}</textarea></label>
</div>`)

// Ad markup comes from trusted staff and is emitted unescaped.
func adMarkupDefinition() Definition {
	return Definition{
		Type:    TypeAdMarkup,
		Label:   "Ad markup",
		Default: func() Data { return Data{"html": ""} },
		Editor:  func(b Block) template.HTML { return executeEditor(adMarkupEditor, b) },
		View: func(b Block, _ RenderContext) (template.HTML, bool) {
			markup := strings.TrimSpace(b.Data.String("html"))
			if markup == "" {
				return "", false
			}
			return template.HTML(`<div class="block-ad-markup">` + markup + `</div>`), true
		},
		Schema: objectSchema(map[string]any{
			"html": stringProperty(),
		}),
	}
}
