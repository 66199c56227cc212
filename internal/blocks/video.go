package blocks

import "html/template"

var (
	videoView = mustTemplate("video", `
<figure class="block-video">
  {{- if .File }}
  <video src="{{ .Src }}" controls preload="metadata"{{ if .Title }} title="{{ .Title }}"{{ end }}></video>
  {{- else }}
  <iframe src="{{ .Src }}" title="{{ if .Title }}{{ .Title }}{{ else }}Embedded video{{ end }}" loading="lazy" allowfullscreen allow="accelerometer; autoplay; encrypted-media; picture-in-picture"></iframe>
  {{- end }}
  {{- if .Title }}
  <figcaption>{{ .Title }}</figcaption>
  {{- end }}
</figure>`)

	videoEditor = mustTemplate("video-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="video">
  <label>Video URL <input type="url" name="videoUrl" value="{{ .Data.String "videoUrl" }}"></label>
  <label>Title <input type="text" name="title" value="{{ .Data.String "title" }}"></label>
</div>`)
)

type videoModel struct {
	Src   string
	Title string
	File  bool
}

func videoDefinition() Definition {
	return Definition{
		Type:    TypeVideo,
		Label:   "Video",
		Default: func() Data { return Data{"videoUrl": "", "title": ""} },
		Editor:  func(b Block) template.HTML { return executeEditor(videoEditor, b) },
		View: func(b Block, _ RenderContext) (template.HTML, bool) {
			src, kind := EmbedVideo(b.Data.String("videoUrl"))
			if kind == VideoInvalid {
				return "", false
			}
			return execute(videoView, videoModel{
				Src:   src,
				Title: b.Data.String("title"),
				File:  kind == VideoFile,
			})
		},
		Schema: objectSchema(map[string]any{
			"videoUrl": stringProperty(),
			"title":    stringProperty(),
		}),
	}
}
