package blocks

import "html/template"

var (
	fullImageView = mustTemplate("full-image", `
<figure class="block-full-image">
  <img src="{{ .ImageURL }}" alt="{{ .Alt }}" loading="lazy">
  {{- if .Caption }}
  <figcaption>{{ .Caption }}</figcaption>
  {{- end }}
</figure>`)

	fullImageEditor = mustTemplate("full-image-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="full-image">
  <label>Image URL <input type="url" name="imageUrl" value="{{ .Data.String "imageUrl" }}"></label>
  <label>Alt text <input type="text" name="alt" value="{{ .Data.String "alt" }}"></label>
  <label>Caption <input type="text" name="caption" value="{{ .Data.String "caption" }}"></label>
</div>`)
)

type imageModel struct {
	ImageURL string
	Alt      string
	Caption  string
	Link     string
	NewTab   bool
}

func fullImageDefinition() Definition {
	return Definition{
		Type:    TypeFullImage,
		Label:   "Full-width image",
		Default: func() Data { return Data{"imageUrl": "", "alt": "", "caption": ""} },
		Editor:  func(b Block) template.HTML { return executeEditor(fullImageEditor, b) },
		View: func(b Block, _ RenderContext) (template.HTML, bool) {
			imageURL := b.Data.String("imageUrl")
			if !ValidURL(imageURL) {
				return "", false
			}
			return execute(fullImageView, imageModel{
				ImageURL: imageURL,
				Alt:      b.Data.String("alt"),
				Caption:  b.Data.String("caption"),
			})
		},
		Schema: objectSchema(map[string]any{
			"imageUrl": stringProperty(),
			"alt":      stringProperty(),
			"caption":  stringProperty(),
		}),
	}
}
