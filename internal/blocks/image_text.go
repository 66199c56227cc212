package blocks

import "html/template"

var (
	imagePlusTextView = mustTemplate("image-plus-text", `
<div class="block-image-plus-text block-image-plus-text--{{ .Position }}">
  <img class="block-image-plus-text__image" src="{{ .ImageURL }}" alt="{{ .Alt }}" loading="lazy">
  <div class="block-image-plus-text__content">{{ .Content }}</div>
</div>`)

	imagePlusTextEditor = mustTemplate("image-plus-text-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="image-plus-text">
  <label>Image URL <input type="url" name="imageUrl" value="{{ .Data.String "imageUrl" }}"></label>
  <label>Alt text <input type="text" name="alt" value="{{ .Data.String "alt" }}"></label>
  <label>Content <textarea name="content" rows="6">{{ .Data.String "content" }}</textarea></label>
  <label>Image position
    <select name="imagePosition">
      <option value="left"{{ if ne (.Data.String "imagePosition") "right" }} selected{{ end }}>Left</option>
      <option value="right"{{ if eq (.Data.String "imagePosition") "right" }} selected{{ end }}>Right</option>
    </select>
  </label>
</div>`)
)

type imagePlusTextModel struct {
	ImageURL string
	Alt      string
	Content  template.HTML
	Position string
}

func imagePlusTextDefinition() Definition {
	return Definition{
		Type:  TypeImagePlusText,
		Label: "Image and text",
		Default: func() Data {
			return Data{"imageUrl": "", "alt": "", "content": "", "imagePosition": "left"}
		},
		Editor: func(b Block) template.HTML { return executeEditor(imagePlusTextEditor, b) },
		View: func(b Block, ctx RenderContext) (template.HTML, bool) {
			imageURL := b.Data.String("imageUrl")
			if !ValidURL(imageURL) {
				return "", false
			}
			position := "left"
			if b.Data.String("imagePosition") == "right" {
				position = "right"
			}
			return execute(imagePlusTextView, imagePlusTextModel{
				ImageURL: imageURL,
				Alt:      b.Data.String("alt"),
				Content:  RenderText(b.Data.String("content"), ctx.AllowRawHTML),
				Position: position,
			})
		},
		Schema: objectSchema(map[string]any{
			"imageUrl":      stringProperty(),
			"alt":           stringProperty(),
			"content":       stringProperty(),
			"imagePosition": map[string]any{"type": "string", "enum": []any{"left", "right", ""}},
		}),
	}
}
