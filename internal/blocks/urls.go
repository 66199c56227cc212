package blocks

import (
	"net/url"
	"path"
	"regexp"
	"strings"
)

var (
	youTubeIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{6,}$`)
	vimeoIDPattern   = regexp.MustCompile(`^[0-9]+$`)
)

// ValidURL reports whether raw is an absolute http(s) URL with a host, or a
// root-relative path served by the portal itself.
func ValidURL(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	if strings.HasPrefix(trimmed, "/") && !strings.HasPrefix(trimmed, "//") {
		_, err := url.Parse(trimmed)
		return err == nil
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return parsed.Hostname() != ""
}

// VideoKind tells the video block how to embed a source URL.
type VideoKind int

const (
	VideoInvalid VideoKind = iota
	VideoIframe
	VideoFile
)

var videoFileExtensions = map[string]bool{
	".mp4":  true,
	".webm": true,
	".ogg":  true,
	".ogv":  true,
	".mov":  true,
}

// EmbedVideo resolves an author supplied video URL into the URL that should be
// embedded. YouTube and Vimeo page links become player URLs, direct media files
// are played with a <video> element, anything else valid is framed as is.
func EmbedVideo(raw string) (string, VideoKind) {
	trimmed := strings.TrimSpace(raw)
	if !ValidURL(trimmed) {
		return "", VideoInvalid
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", VideoInvalid
	}
	host := strings.TrimPrefix(strings.ToLower(parsed.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")

	switch host {
	case "youtu.be":
		if id := firstSegment(parsed.Path); youTubeIDPattern.MatchString(id) {
			return "https://www.youtube.com/embed/" + id, VideoIframe
		}
	case "youtube.com", "youtube-nocookie.com":
		if id := parsed.Query().Get("v"); youTubeIDPattern.MatchString(id) {
			return "https://www.youtube.com/embed/" + id, VideoIframe
		}
		segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(segments) == 2 && (segments[0] == "embed" || segments[0] == "shorts" || segments[0] == "live") {
			if youTubeIDPattern.MatchString(segments[1]) {
				return "https://www.youtube.com/embed/" + segments[1], VideoIframe
			}
		}
	case "vimeo.com":
		if id := firstSegment(parsed.Path); vimeoIDPattern.MatchString(id) {
			return "https://player.vimeo.com/video/" + id, VideoIframe
		}
	case "player.vimeo.com":
		return trimmed, VideoIframe
	}

	if videoFileExtensions[strings.ToLower(path.Ext(parsed.Path))] {
		return trimmed, VideoFile
	}
	return trimmed, VideoIframe
}

func firstSegment(p string) string {
	trimmed := strings.Trim(p, "/")
	if idx := strings.Index(trimmed, "/"); idx >= 0 {
		return trimmed[:idx]
	}
	return trimmed
}
