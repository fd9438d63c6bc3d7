package domain

import (
	"path/filepath"
	"strings"
)

type MediaType string

const (
	MediaTypeImage   MediaType = "image"
	MediaTypeVideo   MediaType = "video"
	MediaTypeUnknown MediaType = "unknown"
)

// DownloadPrefix is prepended to every compressed artifact's file name.
const DownloadPrefix = "soberano-"

// File is an immutable named payload. Callers must not mutate Data once
// the file has been handed to a job.
type File struct {
	Name     string `json:"name"`
	MIMEType string `json:"mime_type"`
	Data     []byte `json:"-"`
}

func NewFile(name, mimeType string, data []byte) File {
	return File{Name: name, MIMEType: mimeType, Data: data}
}

func (f File) Size() int64 {
	return int64(len(f.Data))
}

func (f File) Type() MediaType {
	mime := strings.ToLower(strings.TrimSpace(f.MIMEType))
	switch {
	case strings.HasPrefix(mime, "image/"):
		return MediaTypeImage
	case strings.HasPrefix(mime, "video/"):
		return MediaTypeVideo
	default:
		return MediaTypeUnknown
	}
}

func (f File) IsImage() bool {
	return f.Type() == MediaTypeImage
}

func (f File) IsVideo() bool {
	return f.Type() == MediaTypeVideo
}

// DownloadName returns the file name offered to the user for a compressed
// artifact. ext replaces the original extension when non-empty.
func (f File) DownloadName(ext string) string {
	name := filepath.Base(f.Name)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "file"
	}
	if ext != "" {
		name = strings.TrimSuffix(name, filepath.Ext(name)) + ext
	}
	return DownloadPrefix + name
}

var imageExts = map[string]string{
	".jpg": "image/jpeg", ".jpeg": "image/jpeg", ".png": "image/png",
	".gif": "image/gif", ".webp": "image/webp", ".bmp": "image/bmp",
	".tif": "image/tiff", ".tiff": "image/tiff",
}

var videoExts = map[string]string{
	".mp4": "video/mp4", ".m4v": "video/mp4", ".mov": "video/quicktime",
	".mkv": "video/x-matroska", ".webm": "video/webm", ".avi": "video/x-msvideo",
}

// MIMEFromExtension guesses a MIME type from a file name. It returns an
// empty string when the extension is unknown.
func MIMEFromExtension(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if mime, ok := imageExts[ext]; ok {
		return mime
	}
	if mime, ok := videoExts[ext]; ok {
		return mime
	}
	return ""
}

var canonicalExts = map[string]string{
	"image/jpeg": ".jpg", "image/png": ".png", "image/gif": ".gif",
	"image/webp": ".webp", "image/bmp": ".bmp", "image/tiff": ".tiff",
	"video/mp4": ".mp4", "video/quicktime": ".mov", "video/webm": ".webm",
	"video/x-matroska": ".mkv", "video/x-msvideo": ".avi",
}

// ExtensionForMIME returns the usual extension for a MIME type, or "".
func ExtensionForMIME(mime string) string {
	return canonicalExts[strings.ToLower(strings.TrimSpace(mime))]
}
