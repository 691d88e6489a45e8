package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore writes files below Root and serves them under /uploads.
type LocalStore struct {
	Root string
}

func NewLocalStore(root string) *LocalStore {
	return &LocalStore{Root: root}
}

func (s *LocalStore) Save(ctx context.Context, dir string, file *multipart.FileHeader) (string, error) {
	if err := ValidateImage(file); err != nil {
		return "", err
	}
	name := objectName(dir, file.Filename)
	dst := filepath.Join(s.Root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("creating upload directory: %w", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return "", fmt.Errorf("writing %s: %w", dst, err)
	}
	return "/uploads/" + name, nil
}

func (s *LocalStore) Delete(ctx context.Context, path string) error {
	name, ok := strings.CutPrefix(path, "/uploads/")
	if !ok {
		return fmt.Errorf("%w: %q", ErrForeignPath, path)
	}
	root := filepath.Clean(s.Root)
	target := filepath.Join(root, filepath.FromSlash(name))
	if !strings.HasPrefix(target, root+string(filepath.Separator)) {
		return fmt.Errorf("%w: %q", ErrForeignPath, path)
	}
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", target, err)
	}
	return nil
}
