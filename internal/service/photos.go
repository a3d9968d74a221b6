package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/kiloapp/kilo-v2/backend/config"
)

// PhotoService archives uploaded dish and leftover photos to S3. Archival is
// best-effort: a failed upload never fails the recipe request it belongs to.
type PhotoService struct {
	s3Config *config.S3Config
}

func NewPhotoService(s3Config *config.S3Config) *PhotoService {
	return &PhotoService{s3Config: s3Config}
}

// Archive stores one base64-encoded photo and returns its object key.
func (s *PhotoService) Archive(ctx context.Context, userID uuid.UUID, photo string) (string, error) {
	if s.s3Config == nil {
		return "", fmt.Errorf("photo archive is not configured")
	}

	data, err := base64.StdEncoding.DecodeString(photo)
	if err != nil {
		return "", fmt.Errorf("failed to decode photo: %w", err)
	}

	key := fmt.Sprintf("uploads/%s/%s.jpg", userID, uuid.New())
	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload photo: %w", err)
	}

	return key, nil
}

// URL returns a presigned GET URL for an archived photo.
func (s *PhotoService) URL(ctx context.Context, key string) (string, error) {
	if s.s3Config == nil {
		return "", fmt.Errorf("photo archive is not configured")
	}
	return s.s3Config.GeneratePresignedURL(ctx, key, 15*time.Minute)
}
