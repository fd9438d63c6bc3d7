package validation

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const maxFilenameLength = 255

// SanitizeFilename makes an uploaded name safe for Content-Disposition
// headers and the engine's flat file namespace. Control characters, quotes
// and path or drive separators become underscores; other Unicode is kept.
// Names are capped at 255 bytes with the extension preserved, and a name
// with nothing left in it becomes "file".
func SanitizeFilename(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == 0x7f, r == '"', r == '\\', r == '/', r == ':':
			return '_'
		}
		return r
	}, name)
	cleaned = strings.TrimSpace(cleaned)

	if strings.Trim(cleaned, "_") == "" {
		return "file"
	}
	if len(cleaned) <= maxFilenameLength {
		return cleaned
	}

	ext := filepath.Ext(cleaned)
	if ext == "" || len(ext) >= maxFilenameLength {
		return truncateRunes(cleaned, maxFilenameLength)
	}
	base := strings.TrimSuffix(cleaned, ext)
	return truncateRunes(base, maxFilenameLength-len(ext)) + ext
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// ContentDisposition returns an attachment header value for name.
func ContentDisposition(name string) string {
	return fmt.Sprintf(`attachment; filename="%s"`, SanitizeFilename(name))
}
