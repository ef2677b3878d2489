package document

import (
	"context"
	"io"

	"github.com/justibot/justibot/internal/errors"
)

// ErrArtifactNotFound is returned when no artifact is stored under the key.
var ErrArtifactNotFound = errors.NewSentinel("artifact not found")

// Store keeps rendered artifacts by key. Putting an existing key replaces its content.
type Store interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}
