// Package validation provides file type and file name checks for
// uploaded media.
package validation

import (
	"bytes"
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/soberano/soberano/internal/domain"
)

// allowedMIMETypes is the allowlist of media accepted for compression.
var allowedMIMETypes = map[string]bool{
	// Images
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
	"image/tiff": true,
	// Videos
	"video/mp4":        true,
	"video/webm":       true,
	"video/quicktime":  true,
	"video/x-matroska": true,
}

// magicBytesBufferSize is the number of bytes read for content type detection.
const magicBytesBufferSize = 512

// ValidateMagicBytes validates a file's content type by reading its magic bytes.
// Formats the generic detector gets wrong are handled first; everything
// else goes through mimetype.
//
// The function reads up to 512 bytes from the reader, detects the MIME type,
// and resets the reader position to the beginning.
func ValidateMagicBytes(reader io.ReadSeeker) (mime string, allowed bool, err error) {
	buf := make([]byte, magicBytesBufferSize)
	n, err := io.ReadFull(reader, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return "", false, err
	}

	if _, err := reader.Seek(0, io.SeekStart); err != nil {
		return "", false, err
	}

	if n == 0 {
		return "application/octet-stream", false, nil
	}

	mime = DetectMIME(buf[:n])
	return mime, allowedMIMETypes[mime], nil
}

// DetectMIME returns the bare MIME type (no parameters) of data.
func DetectMIME(data []byte) string {
	if len(data) > magicBytesBufferSize {
		data = data[:magicBytesBufferSize]
	}
	if mime := detectCustomMagicBytes(data); mime != "" {
		return mime
	}
	mime := mimetype.Detect(data).String()
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	return mime
}

// Sniff settles the MIME type of an uploaded file. Content wins; the
// declared type and then the extension are used only when the content is
// not recognised.
func Sniff(name, declared string, data []byte) string {
	mime, allowed, err := ValidateMagicBytes(bytes.NewReader(data))
	if err == nil && allowed {
		return mime
	}
	if err == nil && mime != "application/octet-stream" {
		return mime
	}
	if declared = strings.TrimSpace(declared); declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if byExt := domain.MIMEFromExtension(name); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// IsAllowed reports whether mime is an accepted media type.
func IsAllowed(mime string) bool {
	return allowedMIMETypes[mime]
}

// detectCustomMagicBytes handles containers the generic detector may
// report with a different name than the allowlist uses.
func detectCustomMagicBytes(buf []byte) string {
	if len(buf) < 4 {
		return ""
	}

	// WebM/Matroska: EBML header (0x1A 0x45 0xDF 0xA3)
	if buf[0] == 0x1A && buf[1] == 0x45 && buf[2] == 0xDF && buf[3] == 0xA3 {
		if bytes.Contains(buf, []byte("matroska")) {
			return "video/x-matroska"
		}
		return "video/webm"
	}

	// WebP: RIFF....WEBP
	if len(buf) >= 12 {
		if buf[0] == 'R' && buf[1] == 'I' && buf[2] == 'F' && buf[3] == 'F' &&
			buf[8] == 'W' && buf[9] == 'E' && buf[10] == 'B' && buf[11] == 'P' {
			return "image/webp"
		}
	}

	// MP4/QuickTime: ftyp box at offset 4
	if len(buf) >= 12 {
		if buf[4] == 'f' && buf[5] == 't' && buf[6] == 'y' && buf[7] == 'p' {
			switch string(buf[8:12]) {
			case "qt  ":
				return "video/quicktime"
			default:
				return "video/mp4"
			}
		}
	}

	return ""
}
