package port

import (
	"context"

	"github.com/soberano/soberano/internal/domain"
)

// ImageOptions bounds a single image compression. MaxOutputSizeMB is a
// best-effort target, not a guarantee.
type ImageOptions struct {
	MaxOutputSizeMB float64
	MaxDimensionPx  int
	Quality         float64 // in (0,1]
}

type ImageCodec interface {
	Compress(ctx context.Context, file domain.File, opts ImageOptions) (domain.File, error)
}
