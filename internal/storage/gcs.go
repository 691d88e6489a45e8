package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCSStore uploads files to a Google Cloud Storage bucket.
type GCSStore struct {
	client  *storage.Client
	bucket  string
	baseURL string
}

// NewGCSStore uses application default credentials unless credentialsJSON is set.
func NewGCSStore(ctx context.Context, bucket, credentialsJSON, baseURL string) (*GCSStore, error) {
	if bucket == "" {
		return nil, errors.New("GCS_BUCKET is required")
	}
	var opts []option.ClientOption
	if strings.TrimSpace(credentialsJSON) != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (s *GCSStore) Save(ctx context.Context, dir string, file *multipart.FileHeader) (string, error) {
	if err := ValidateImage(file); err != nil {
		return "", err
	}
	name := objectName(dir, file.Filename)

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload: %w", err)
	}
	defer src.Close()

	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	wc.ContentType = file.Header.Get("Content-Type")
	if _, err := io.Copy(wc, src); err != nil {
		wc.Close()
		return "", fmt.Errorf("uploading %s: %w", name, err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("finalizing %s: %w", name, err)
	}
	return s.baseURL + "/" + s.bucket + "/" + name, nil
}

func (s *GCSStore) Delete(ctx context.Context, path string) error {
	name, ok := strings.CutPrefix(path, s.baseURL+"/"+s.bucket+"/")
	if !ok || name == "" {
		return fmt.Errorf("%w: %q", ErrForeignPath, path)
	}
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("deleting %s: %w", name, err)
	}
	return nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}
