package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutAndDelete(t *testing.T) {
	root := t.TempDir()
	store, err := NewLocal(root, "/uploads/")
	require.NoError(t, err)
	ctx := context.Background()

	obj, err := store.Put(ctx, "certificates/cert-1.pdf", strings.NewReader("%PDF-1.4"), 8, "application/pdf")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/certificates/cert-1.pdf", obj.URL)
	assert.Equal(t, int64(8), obj.Size)

	data, err := os.ReadFile(filepath.Join(root, "certificates", "cert-1.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))

	_, err = store.Put(ctx, "certificates/cert-1.pdf", strings.NewReader("again"), 5, "application/pdf")
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, store.Delete(ctx, "certificates/cert-1.pdf"))
	require.NoError(t, store.Delete(ctx, "certificates/cert-1.pdf"))
	_, err = os.Stat(filepath.Join(root, "certificates", "cert-1.pdf"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreRejectsTraversal(t *testing.T) {
	store, err := NewLocal(t.TempDir(), "/uploads")
	require.NoError(t, err)

	for _, key := range []string{"", "/etc/passwd", "../outside", "a/../../b", `a\b`} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, ErrInvalidKey, key)
	}
}

func TestObjectBaseURL(t *testing.T) {
	assert.Equal(t, "https://bucket.s3.ap-southeast-1.amazonaws.com",
		objectBaseURL(S3Config{Bucket: "bucket"}, "ap-southeast-1"))
	assert.Equal(t, "http://localhost:9000/bucket",
		objectBaseURL(S3Config{Bucket: "bucket", Endpoint: "http://localhost:9000", PathStyle: true}, "us-east-1"))
	assert.Equal(t, "https://bucket.minio.local",
		objectBaseURL(S3Config{Bucket: "bucket", Endpoint: "https://minio.local"}, "us-east-1"))
	assert.Equal(t, "https://cdn.example.com/files",
		objectBaseURL(S3Config{Bucket: "bucket", PublicBaseURL: "https://cdn.example.com/files"}, "us-east-1"))
}

func TestNewS3RequiresBucket(t *testing.T) {
	_, err := NewS3(context.Background(), S3Config{})
	require.Error(t, err)
}
