package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	names, err := store.List(ctx, "ws-1")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, store.Put(ctx, "ws-1", "schematic-current.svg", []byte("<svg/>")))
	require.NoError(t, store.Put(ctx, "ws-1", "export.json", []byte("{}")))
	require.NoError(t, store.Put(ctx, "ws-2", "export.json", []byte(`{"other":true}`)))

	data, err := store.Get(ctx, "ws-1", "schematic-current.svg")
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(data))

	names, err = store.List(ctx, "ws-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"export.json", "schematic-current.svg"}, names)

	_, err = store.Get(ctx, "ws-1", "missing.svg")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRejectsPathTraversal(t *testing.T) {
	ctx := context.Background()
	store := NewFileStore(t.TempDir())

	for _, name := range []string{"../escape.json", "..", "a/b.svg", ""} {
		assert.ErrorIs(t, store.Put(ctx, "ws", name, nil), ErrInvalidName, name)
	}
	_, err := store.List(ctx, "../..")
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "application/json", ContentType("export.json"))
	assert.Equal(t, "image/svg+xml", ContentType("plan.SVG"))
	assert.Equal(t, "text/html; charset=utf-8", ContentType("sheet.html"))
	assert.Equal(t, "application/octet-stream", ContentType("blob"))
}

func TestNewS3StoreValidatesConfig(t *testing.T) {
	_, err := NewS3Store(S3Config{})
	assert.ErrorContains(t, err, "endpoint")

	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", Bucket: "b"})
	assert.ErrorContains(t, err, "access key")

	_, err = NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"})
	assert.ErrorContains(t, err, "bucket")

	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "monitor"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
	assert.Equal(t, "ws/export.json", objectKey("ws", "export.json"))
}
