package storage

import "context"

// ImageUploader defines the interface handlers depend on for image hosting.
// It exists so tests can substitute an in-memory implementation.
type ImageUploader interface {
	UploadImage(ctx context.Context, imageData []byte, userID, originalFilename string) (*UploadResult, error)
	DeleteFile(ctx context.Context, key string) error
}

// Ensure S3Uploader implements ImageUploader
var _ ImageUploader = (*S3Uploader)(nil)
