package audio

import (
	"path/filepath"
	"strings"
)

// ExtensionFor picks a file extension (without dot) for an uploaded recording.
// The declared MIME type wins; the client's filename is consulted next; webm is
// the default since that is what most browsers record.
func ExtensionFor(mimeType, filename string) string {
	mt := strings.ToLower(mimeType)
	switch {
	case strings.Contains(mt, "mp4"):
		return "mp4"
	case strings.Contains(mt, "wav"):
		return "wav"
	case strings.Contains(mt, "mpeg"):
		return "mp3"
	case strings.Contains(mt, "webm"):
		return "webm"
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "webm", "mp4", "m4a", "wav", "mp3", "mpeg", "mpga", "ogg", "oga", "flac":
		return ext
	}
	return "webm"
}
