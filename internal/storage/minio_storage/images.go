package minio_storage

import (
	"DormBiz/internal/app_errors"
	"DormBiz/internal/config"
	"DormBiz/internal/service/upload"
	"context"
	"fmt"
	"mime"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

// ImageStorage keeps one kind of image (avatars, product photos, event
// covers) in its own bucket and hands out presigned links to them.
type ImageStorage struct {
	storage      *MinioStorage
	bucket       string
	presignedTTL time.Duration
}

func NewImageStorage(ctx context.Context, storage *MinioStorage, bc config.BucketConfig) (*ImageStorage, error) {
	if err := storage.EnsureBucket(ctx, bc.Name); err != nil {
		return nil, err
	}
	return &ImageStorage{storage: storage, bucket: bc.Name, presignedTTL: bc.PresignTTL}, nil
}

// objectKey is "<owner>/<random><ext>", so a replaced image never collides
// with a link that is still cached by a client.
func objectKey(ownerID uuid.UUID, filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s/%s%s", ownerID.String(), uuid.NewString(), ext)
}

func (s *ImageStorage) Upload(ctx context.Context, ownerID uuid.UUID, f upload.File) (string, error) {
	key := objectKey(ownerID, f.Name)
	contentType := f.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(filepath.Ext(key))
		if contentType == "" {
			contentType = "application/octet-stream"
		}
	}

	_, err := s.storage.client.PutObject(ctx, s.bucket, key, f.Reader, f.Size,
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return key, nil
}

func (s *ImageStorage) URL(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", app_errors.ErrImageNotFound
	}
	presignedURL, err := s.storage.client.PresignedGetObject(ctx, s.bucket, key, s.presignedTTL, make(url.Values))
	if err != nil {
		return "", err
	}
	return presignedURL.String(), nil
}

func (s *ImageStorage) Delete(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	return s.storage.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{})
}
