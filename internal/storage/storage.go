// Package storage keeps listing images on local disk or in a MinIO bucket.
package storage

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when deleting an object that does not exist
var ErrNotFound = errors.New("object not found")

// ImageStore persists uploaded images and returns a reference usable by clients
type ImageStore interface {
	Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, ref string) error
}

// ObjectKey builds a unique, collision-free key for an upload under prefix
func ObjectKey(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return path.Join(prefix, uuid.NewString()+ext)
}
