package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
)

// ============================================================
// File Storage
// ============================================================

type FileStore struct {
	root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{root: root}
}

func (s *FileStore) WorkspaceDir(workspaceID string) string {
	return filepath.Join(s.root, workspaceID)
}

func (s *FileStore) ArtifactPath(workspaceID, name string) string {
	return filepath.Join(s.WorkspaceDir(workspaceID), name)
}

func (s *FileStore) EnsureDir(workspaceID string) error {
	path := s.WorkspaceDir(workspaceID)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir workspace dir: %w", err)
	}
	return nil
}

func (s *FileStore) Put(_ context.Context, workspaceID, name string, content []byte) error {
	if err := checkKey(workspaceID, name); err != nil {
		return err
	}
	if err := s.EnsureDir(workspaceID); err != nil {
		return err
	}
	return os.WriteFile(s.ArtifactPath(workspaceID, name), content, 0o644)
}

func (s *FileStore) Get(_ context.Context, workspaceID, name string) ([]byte, error) {
	if err := checkKey(workspaceID, name); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.ArtifactPath(workspaceID, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *FileStore) List(_ context.Context, workspaceID string) ([]string, error) {
	if err := checkKey(workspaceID, "list"); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.WorkspaceDir(workspaceID))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("read workspace dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}
