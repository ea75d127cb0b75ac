package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes images below a base directory served under urlPrefix
type LocalStore struct {
	baseDir   string
	urlPrefix string
}

func NewLocalStore(baseDir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(baseDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create uploads directory %s: %w", baseDir, err)
	}
	return &LocalStore{baseDir: baseDir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Save(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file on server: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return s.urlPrefix + "/" + filepath.ToSlash(key), nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	key := strings.TrimPrefix(strings.TrimPrefix(ref, s.urlPrefix), "/")
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps a key to a path and refuses anything escaping baseDir
func (s *LocalStore) resolve(key string) (string, error) {
	fullPath := filepath.Join(s.baseDir, filepath.FromSlash(key))
	rel, err := filepath.Rel(s.baseDir, fullPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("invalid object key %q", key)
	}
	return fullPath, nil
}
