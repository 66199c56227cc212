package blocks

import "html/template"

var (
	imageWithLinkView = mustTemplate("image-with-link", `
<figure class="block-image-with-link">
  {{- if .Link }}
  <a href="{{ .Link }}"{{ if .NewTab }} target="_blank" rel="noopener noreferrer"{{ end }}><img src="{{ .ImageURL }}" alt="{{ .Alt }}" loading="lazy"></a>
  {{- else }}
  <img src="{{ .ImageURL }}" alt="{{ .Alt }}" loading="lazy">
  {{- end }}
  {{- if .Caption }}
  <figcaption>{{ .Caption }}</figcaption>
  {{- end }}
</figure>`)

	imageWithLinkEditor = mustTemplate("image-with-link-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="image-with-link">
  <label>Image URL <input type="url" name="imageUrl" value="{{ .Data.String "imageUrl" }}"></label>
  <label>Alt text <input type="text" name="alt" value="{{ .Data.String "alt" }}"></label>
  <label>Link <input type="url" name="link" value="{{ .Data.String "link" }}"></label>
  <label>Caption <input type="text" name="caption" value="{{ .Data.String "caption" }}"></label>
  <label><input type="checkbox" name="newTab"{{ if .Data.Bool "newTab" }} checked{{ end }}> Open in new tab</label>
</div>`)
)

func imageWithLinkDefinition() Definition {
	return Definition{
		Type:  TypeImageWithLink,
		Label: "Image with link",
		Default: func() Data {
			return Data{"imageUrl": "", "alt": "", "link": "", "caption": "", "newTab": false}
		},
		Editor: func(b Block) template.HTML { return executeEditor(imageWithLinkEditor, b) },
		View: func(b Block, _ RenderContext) (template.HTML, bool) {
			imageURL := b.Data.String("imageUrl")
			if !ValidURL(imageURL) {
				return "", false
			}
			model := imageModel{
				ImageURL: imageURL,
				Alt:      b.Data.String("alt"),
				Caption:  b.Data.String("caption"),
				NewTab:   b.Data.Bool("newTab"),
			}
			if link := b.Data.String("link"); ValidURL(link) {
				model.Link = link
			}
			return execute(imageWithLinkView, model)
		},
		Schema: objectSchema(map[string]any{
			"imageUrl": stringProperty(),
			"alt":      stringProperty(),
			"link":     stringProperty(),
			"caption":  stringProperty(),
			"newTab":   boolProperty(),
		}),
	}
}
