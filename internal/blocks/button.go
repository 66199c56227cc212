package blocks

import (
	"html/template"
	"strings"
)

var buttonStyles = map[string]bool{"primary": true, "secondary": true, "outline": true}

var (
	buttonView = mustTemplate("button", `
<div class="block-button">
  <a class="block-button__link block-button__link--{{ .Style }}" href="{{ .Link }}"{{ if .NewTab }} target="_blank" rel="noopener noreferrer"{{ end }}>{{ .Text }}</a>
</div>`)

	buttonEditor = mustTemplate("button-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="button">
  <label>Label <input type="text" name="text" value="{{ .Data.String "text" }}"></label>
  <label>Link <input type="url" name="link" value="{{ .Data.String "link" }}"></label>
  <label>Style
    <select name="style">
      {{- $style := .Data.String "style" }}
      <option value="primary"{{ if eq $style "primary" }} selected{{ end }}>Primary</option>
      <option value="secondary"{{ if eq $style "secondary" }} selected{{ end }}>Secondary</option>
      <option value="outline"{{ if eq $style "outline" }} selected{{ end }}>Outline</option>
    </select>
  </label>
  <label><input type="checkbox" name="newTab"{{ if .Data.Bool "newTab" }} checked{{ end }}> Open in new tab</label>
</div>`)
)

type buttonModel struct {
	Text   string
	Link   string
	Style  string
	NewTab bool
}

func buttonDefinition() Definition {
	return Definition{
		Type:  TypeButton,
		Label: "Button",
		Default: func() Data {
			return Data{"text": "", "link": "", "style": "primary", "newTab": false}
		},
		Editor: func(b Block) template.HTML { return executeEditor(buttonEditor, b) },
		View: func(b Block, _ RenderContext) (template.HTML, bool) {
			text := strings.TrimSpace(b.Data.String("text"))
			link := b.Data.String("link")
			if text == "" || !ValidURL(link) {
				return "", false
			}
			style := b.Data.String("style")
			if !buttonStyles[style] {
				style = "primary"
			}
			return execute(buttonView, buttonModel{
				Text:   text,
				Link:   link,
				Style:  style,
				NewTab: b.Data.Bool("newTab"),
			})
		},
		Schema: objectSchema(map[string]any{
			"text":   stringProperty(),
			"link":   stringProperty(),
			"style":  map[string]any{"type": "string", "enum": []any{"primary", "secondary", "outline", ""}},
			"newTab": boolProperty(),
		}),
	}
}
