package storage

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore writes files under root and exposes them below publicBaseURL.
type LocalStore struct {
	root          string
	publicBaseURL string
}

func NewLocal(root, publicBaseURL string) (*LocalStore, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &LocalStore{root: root, publicBaseURL: publicBaseURL}, nil
}

func (s *LocalStore) Driver() string { return DriverLocal }

func (s *LocalStore) Root() string { return s.root }

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, _ int64, contentType string) (*Object, error) {
	clean, err := sanitizeKey(key)
	if err != nil {
		return nil, err
	}
	dst := filepath.Join(s.root, filepath.FromSlash(clean))
	if _, err := os.Stat(dst); err == nil {
		return nil, ErrExists
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	written, err := io.Copy(tmp, readerWithContext(ctx, r))
	if err != nil {
		_ = tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, err
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, err
	}

	return &Object{
		Key:         clean,
		URL:         joinURL(s.publicBaseURL, clean),
		Size:        written,
		ContentType: contentType,
	}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	clean, err := sanitizeKey(key)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(s.root, filepath.FromSlash(clean)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
