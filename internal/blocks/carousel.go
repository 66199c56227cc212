package blocks

import (
	"html/template"
	"time"
)

// Slide is one renderable carousel entry.
type Slide struct {
	URL     string
	Alt     string
	Caption string
	Link    string
}

// CarouselSlides returns the entries of a carousel's image list that have a valid
// url, in stored order. Incomplete entries stay in the data and are only skipped here.
func CarouselSlides(data Data) []Slide {
	entries := data.List("images")
	slides := make([]Slide, 0, len(entries))
	for _, entry := range entries {
		if entry == nil {
			continue
		}
		url := mapString(entry, "url")
		if !ValidURL(url) {
			continue
		}
		slide := Slide{
			URL:     url,
			Alt:     mapString(entry, "alt"),
			Caption: mapString(entry, "caption"),
		}
		if link := mapString(entry, "link"); ValidURL(link) {
			slide.Link = link
		}
		slides = append(slides, slide)
	}
	return slides
}

var (
	carouselView = mustTemplate("carousel", `
<div class="block-carousel" data-active="{{ .Active }}"{{ if .Navigable }} data-interval="{{ ms .Interval }}"{{ end }}>
  <ul class="block-carousel__slides">
  {{- range $i, $s := .Slides }}
    <li class="block-carousel__slide{{ if eq $i $.Active }} is-active{{ end }}" data-slide="{{ $i }}"{{ if ne $i $.Active }} hidden{{ end }}>
      {{- if $s.Link }}<a href="{{ $s.Link }}">{{ end }}<img src="{{ $s.URL }}" alt="{{ $s.Alt }}" loading="lazy">{{ if $s.Link }}</a>{{ end }}
      {{- if $s.Caption }}<p class="block-carousel__caption">{{ $s.Caption }}</p>{{ end }}
    </li>
  {{- end }}
  </ul>
  {{- if .Navigable }}
  <button type="button" class="block-carousel__prev" aria-label="Previous slide">&lsaquo;</button>
  <button type="button" class="block-carousel__next" aria-label="Next slide">&rsaquo;</button>
  <ol class="block-carousel__dots">
  {{- range $i, $s := .Slides }}
    <li><button type="button" data-goto="{{ $i }}"{{ if eq $i $.Active }} aria-current="true"{{ end }} aria-label="Slide {{ add $i 1 }}"></button></li>
  {{- end }}
  </ol>
  {{- end }}
</div>`)

	carouselEditor = mustTemplate("carousel-editor", `
<div class="block-editor" data-block-id="{{ .ID }}" data-block-type="carousel">
  <ol class="block-editor__entries">
  {{- range $i, $e := .Entries }}
    <li data-entry="{{ $i }}">
      <label>Image URL <input type="url" name="images.{{ $i }}.url" value="{{ index $e "url" }}"></label>
      <label>Alt text <input type="text" name="images.{{ $i }}.alt" value="{{ index $e "alt" }}"></label>
      <label>Caption <input type="text" name="images.{{ $i }}.caption" value="{{ index $e "caption" }}"></label>
      <label>Link <input type="url" name="images.{{ $i }}.link" value="{{ index $e "link" }}"></label>
    </li>
  {{- end }}
  </ol>
  <button type="button" data-action="add-slide">Add slide</button>
</div>`)
)

type carouselModel struct {
	Slides    []Slide
	Active    int
	Navigable bool
	Interval  time.Duration
}

type carouselEditorModel struct {
	ID      string
	Entries []map[string]string
}

func carouselDefinition() Definition {
	return Definition{
		Type:    TypeCarousel,
		Label:   "Image carousel",
		Default: func() Data { return Data{"images": []any{}} },
		Editor: func(b Block) template.HTML {
			entries := b.Data.List("images")
			model := carouselEditorModel{ID: b.ID, Entries: make([]map[string]string, len(entries))}
			for i, entry := range entries {
				model.Entries[i] = map[string]string{
					"url":     mapString(entry, "url"),
					"alt":     mapString(entry, "alt"),
					"caption": mapString(entry, "caption"),
					"link":    mapString(entry, "link"),
				}
			}
			return executeEditor(carouselEditor, model)
		},
		View: func(b Block, ctx RenderContext) (template.HTML, bool) {
			slides := CarouselSlides(b.Data)
			if len(slides) == 0 {
				return "", false
			}
			active := ctx.ActiveSlide % len(slides)
			if active < 0 {
				active = 0
			}
			return execute(carouselView, carouselModel{
				Slides:    slides,
				Active:    active,
				Navigable: len(slides) > 1,
				Interval:  ctx.CarouselInterval,
			})
		},
		Schema: objectSchema(map[string]any{
			"images": map[string]any{
				"type": "array",
				"items": objectSchema(map[string]any{
					"url":     stringProperty(),
					"alt":     stringProperty(),
					"caption": stringProperty(),
					"link":    stringProperty(),
				}),
			},
		}),
	}
}
