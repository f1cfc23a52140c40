// Package storage persists uploaded files on local disk or an S3-compatible bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
)

const (
	DriverLocal = "local"
	DriverS3    = "s3"
)

var (
	ErrInvalidKey = errors.New("invalid_storage_key")
	ErrExists     = errors.New("object_exists")
)

// Object describes a stored file and where clients can fetch it.
type Object struct {
	Key         string
	URL         string
	Size        int64
	ContentType string
}

type Store interface {
	Driver() string
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// sanitizeKey rejects keys that could escape the store root.
func sanitizeKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "..") || strings.Contains(key, "\\") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return path.Clean(key), nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
