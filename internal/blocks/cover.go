package blocks

import "html/template"

var (
	coverView = mustTemplate("cover", `
<header class="block-cover">
  <img class="block-cover__image" src="{{ .ImageURL }}" alt="{{ .Title }}">
  {{- if or .Title .Subtitle }}
  <div class="block-cover__text">
    {{- if .Title }}<h1 class="block-cover__title">{{ .Title }}</h1>{{ end }}
    {{- if .Subtitle }}<p class="block-cover__subtitle">{{ .Subtitle }}</p>{{ end }}
  </div>
  {{- end }}
  {{- if .Caption }}<p class="block-cover__caption">{{ .Caption }}</p>{{ end }}
</header>`)

	coverEditor = mustTemplate("cover-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="cover">
  <label>Image URL <input type="url" name="imageUrl" value="{{ .Data.String "imageUrl" }}"></label>
  <label>Title <input type="text" name="title" value="{{ .Data.String "title" }}"></label>
  <label>Subtitle <input type="text" name="subtitle" value="{{ .Data.String "subtitle" }}"></label>
  <label>Caption <input type="text" name="caption" value="{{ .Data.String "caption" }}"></label>
</div>`)
)

type coverModel struct {
	ImageURL string
	Title    string
	Subtitle string
	Caption  string
}

func coverDefinition() Definition {
	return Definition{
		Type:  TypeCover,
		Label: "Cover",
		Default: func() Data {
			return Data{"imageUrl": "", "title": "", "subtitle": "", "caption": ""}
		},
		Editor: func(b Block) template.HTML { return executeEditor(coverEditor, b) },
		View: func(b Block, _ RenderContext) (template.HTML, bool) {
			imageURL := b.Data.String("imageUrl")
			if !ValidURL(imageURL) {
				return "", false
			}
			return execute(coverView, coverModel{
				ImageURL: imageURL,
				Title:    b.Data.String("title"),
				Subtitle: b.Data.String("subtitle"),
				Caption:  b.Data.String("caption"),
			})
		},
		Schema: objectSchema(map[string]any{
			"imageUrl": stringProperty(),
			"title":    stringProperty(),
			"subtitle": stringProperty(),
			"caption":  stringProperty(),
		}),
	}
}
