package core

import (
	"context"
	"io"

	"github.com/pkg/errors"
)

var ErrFileNotFound = errors.New("file not found")

// FileStore is any object storage able to keep uploaded files.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	// Get returns ErrFileNotFound if there is no object under key.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
