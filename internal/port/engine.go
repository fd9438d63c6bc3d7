package port

import (
	"context"
	"time"

	"github.com/soberano/soberano/internal/domain"
)

// ProgressHandler receives raw engine progress. Delivery cadence and
// monotonicity are not guaranteed.
type ProgressHandler func(fraction float64, elapsed time.Duration)

// VideoEngine is a stateful transcoder with a private in-memory
// filesystem. Calls must not overlap.
type VideoEngine interface {
	Load(ctx context.Context, artifacts domain.Artifacts) error
	OnProgress(handler ProgressHandler)
	WriteFile(ctx context.Context, name string, data []byte) error
	Exec(ctx context.Context, argv []string) error
	ReadFile(ctx context.Context, name string) ([]byte, error)
	DeleteFile(ctx context.Context, name string) error
}
