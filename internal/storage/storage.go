package storage

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// MaxUploadSize is the largest accepted attachment.
const MaxUploadSize = 5 << 20

var (
	ErrFileTooLarge        = errors.New("file exceeds the 5MB limit")
	ErrUnsupportedFileType = errors.New("only image files are allowed")
)

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".avif": true,
}

// Store persists uploaded files and returns the path clients use to fetch them.
type Store interface {
	Save(ctx context.Context, dir string, file *multipart.FileHeader) (string, error)
	// Delete removes a file by the path Save returned. Missing files are not an error.
	Delete(ctx context.Context, path string) error
}

var ErrForeignPath = errors.New("path was not issued by this store")

// ValidateImage enforces the size limit and the image extension/MIME whitelist.
func ValidateImage(file *multipart.FileHeader) error {
	if file.Size > MaxUploadSize {
		return ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return fmt.Errorf("%w: extension %q", ErrUnsupportedFileType, ext)
	}
	if ct := file.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		return fmt.Errorf("%w: content type %q", ErrUnsupportedFileType, ct)
	}
	return nil
}

// objectName builds "<dir>/<uuid><ext>" for an upload.
func objectName(dir, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	return strings.Trim(dir, "/") + "/" + uuid.NewString() + ext
}
