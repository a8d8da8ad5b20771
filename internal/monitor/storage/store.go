package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var (
	ErrNotFound    = errors.New("artifact not found")
	ErrInvalidName = errors.New("invalid artifact name")
)

// ArtifactStore хранит файлы рабочего пространства: сохранения, схемы, листы сбора.
type ArtifactStore interface {
	Put(ctx context.Context, workspaceID, name string, content []byte) error
	Get(ctx context.Context, workspaceID, name string) ([]byte, error)
	List(ctx context.Context, workspaceID string) ([]string, error)
}

// ContentType подбирает MIME-тип по расширению.
func ContentType(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return "application/json"
	case ".svg":
		return "image/svg+xml"
	case ".html":
		return "text/html; charset=utf-8"
	}
	return "application/octet-stream"
}

// checkKey проверяет id и имя: без разделителей пути и "..".
func checkKey(workspaceID, name string) error {
	for _, part := range []string{workspaceID, name} {
		if strings.TrimSpace(part) == "" || strings.ContainsAny(part, `/\`) || part == "." || part == ".." {
			return fmt.Errorf("%w: %q", ErrInvalidName, part)
		}
	}
	return nil
}
