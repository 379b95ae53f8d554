// Package storage загружает фотографии в Cloud Storage.
package storage

import (
	"context"
	"fmt"
	"net/url"

	gcs "cloud.google.com/go/storage"
)

const (
	publicCacheControl = "public, max-age=31536000"
	publicURLBase      = "https://storage.googleapis.com"
)

// GCSBucket - публичный бакет с фотографиями отчётов
type GCSBucket struct {
	bucket *gcs.BucketHandle
	name   string
}

func NewGCSBucket(bucket *gcs.BucketHandle, name string) *GCSBucket {
	return &GCSBucket{bucket: bucket, name: name}
}

// Upload сохраняет объект, открывает его на чтение всем и возвращает публичный URL
func (b *GCSBucket) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	obj := b.bucket.Object(name)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = publicCacheControl
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", name, err)
	}

	if err := obj.ACL().Set(ctx, gcs.AllUsers, gcs.RoleReader); err != nil {
		return "", fmt.Errorf("failed to make object %s public: %w", name, err)
	}

	return PublicURL(b.name, name), nil
}

// PublicURL строит адрес https://storage.googleapis.com/<bucket>/<object>
func PublicURL(bucket, object string) string {
	return publicURLBase + "/" + bucket + "/" + (&url.URL{Path: object}).EscapedPath()
}
