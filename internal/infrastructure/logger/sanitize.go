package logger

import (
	"fmt"
	"strings"
)

var logEscapes = map[rune]string{'\n': `\n`, '\r': `\r`, '\t': `\t`}

// SanitizeForLog escapes control characters in user-supplied strings such
// as upload names so they cannot forge log lines or drive the terminal.
// Printable Unicode passes through.
func SanitizeForLog(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if esc, ok := logEscapes[r]; ok {
			b.WriteString(esc)
			continue
		}
		if r < 0x20 || r == 0x7f {
			fmt.Fprintf(&b, `\x%02x`, r)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
