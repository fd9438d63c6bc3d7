// Package imagecodec implements the image codec on top of
// github.com/disintegration/imaging.
package imagecodec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"math"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/soberano/soberano/internal/domain"
	"github.com/soberano/soberano/internal/port"
)

var (
	ErrEmptyInput    = errors.New("empty input")
	ErrInvalidOption = errors.New("invalid compression option")
)

const (
	// minQuality is the floor of the size-bound search.
	minQuality = 10
	// qualityStep is how much quality drops per size-bound retry.
	qualityStep = 10
	// maxShrinkSteps caps the extra downscale passes when quality alone
	// cannot meet the size bound.
	maxShrinkSteps = 4
)

// Codec compresses still images. PNG and GIF inputs keep their format
// (PNG with best compression, GIF re-encoded); everything else becomes JPEG.
type Codec struct{}

func NewCodec() port.ImageCodec {
	return &Codec{}
}

func (c *Codec) Compress(ctx context.Context, file domain.File, opts port.ImageOptions) (domain.File, error) {
	if len(file.Data) == 0 {
		return domain.File{}, fmt.Errorf("compress %s: %w", file.Name, ErrEmptyInput)
	}
	if opts.Quality <= 0 || opts.Quality > 1 {
		return domain.File{}, fmt.Errorf("%w: quality %.2f", ErrInvalidOption, opts.Quality)
	}
	if opts.MaxDimensionPx < 0 || opts.MaxOutputSizeMB < 0 {
		return domain.File{}, fmt.Errorf("%w: negative bound", ErrInvalidOption)
	}

	img, err := imaging.Decode(bytes.NewReader(file.Data), imaging.AutoOrientation(true))
	if err != nil {
		return domain.File{}, fmt.Errorf("decode %s: %w", file.Name, err)
	}

	resized := needsFit(img, opts.MaxDimensionPx)
	if resized {
		img = imaging.Fit(img, opts.MaxDimensionPx, opts.MaxDimensionPx, imaging.Lanczos)
	}
	format, mime := outputFormat(file.MIMEType)
	quality := int(math.Round(opts.Quality * 100))
	maxBytes := int64(opts.MaxOutputSizeMB * 1024 * 1024)

	out, err := encode(img, format, quality)
	if err != nil {
		return domain.File{}, fmt.Errorf("encode %s: %w", file.Name, err)
	}

	// Best effort: lower quality first, then dimensions, until the bound holds.
	for shrink := 0; maxBytes > 0 && int64(len(out)) > maxBytes; {
		if err := ctx.Err(); err != nil {
			return domain.File{}, err
		}
		switch {
		case format == imaging.JPEG && quality > minQuality:
			quality = max(quality-qualityStep, minQuality)
		case shrink < maxShrinkSteps:
			shrink++
			resized = true
			b := img.Bounds()
			img = imaging.Resize(img, b.Dx()*3/4, 0, imaging.Lanczos)
		default:
			return domain.NewFile(file.Name, mime, out), nil
		}
		if out, err = encode(img, format, quality); err != nil {
			return domain.File{}, fmt.Errorf("encode %s: %w", file.Name, err)
		}
	}

	// Re-encoding a well-compressed source can grow it, whatever the
	// output format; the source is returned unchanged then.
	if !resized && int64(len(out)) >= file.Size() {
		return domain.NewFile(file.Name, file.MIMEType, file.Data), nil
	}

	return domain.NewFile(file.Name, mime, out), nil
}

// needsFit reports whether the longest side of img exceeds maxDim.
func needsFit(img image.Image, maxDim int) bool {
	if maxDim <= 0 {
		return false
	}
	b := img.Bounds()
	return b.Dx() > maxDim || b.Dy() > maxDim
}

func outputFormat(mime string) (imaging.Format, string) {
	switch mime {
	case "image/png":
		return imaging.PNG, "image/png"
	case "image/gif":
		return imaging.GIF, "image/gif"
	default:
		return imaging.JPEG, "image/jpeg"
	}
}

func encode(img image.Image, format imaging.Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var opts []imaging.EncodeOption
	switch format {
	case imaging.JPEG:
		opts = append(opts, imaging.JPEGQuality(quality))
	case imaging.PNG:
		opts = append(opts, imaging.PNGCompressionLevel(png.BestCompression))
	}
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

var _ port.ImageCodec = (*Codec)(nil)
