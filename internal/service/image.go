package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/pantryshare/backend/config"
)

// ImageStore is the external image-storage collaborator. The recipe
// service only needs a URL back from Store and a best-effort Remove.
type ImageStore interface {
	Store(ctx context.Context, encoded string) (string, error)
	Remove(ctx context.Context, imageURL string) error
}

// S3ImageStore keeps recipe images in an S3 bucket and serves them by
// public URL.
type S3ImageStore struct {
	s3Config *config.S3Config
}

func NewS3ImageStore(s3Config *config.S3Config) *S3ImageStore {
	return &S3ImageStore{s3Config: s3Config}
}

// Store decodes a base64 image payload (optionally carrying a data-URI
// prefix) and uploads it, returning the public URL.
func (s *S3ImageStore) Store(ctx context.Context, encoded string) (string, error) {
	data, ext, err := decodeImagePayload(encoded)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("recipes/%s.%s", uuid.New().String(), ext)
	_, err = s.s3Config.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.s3Config.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/" + ext),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload image: %w", err)
	}

	publicURL := fmt.Sprintf("https://%s.s3.amazonaws.com/%s", s.s3Config.BucketName, key)
	log.Printf("[ImageStore] uploaded image %s", publicURL)
	return publicURL, nil
}

// Remove deletes the object behind imageURL. Callers treat failures as
// best-effort cleanup and must not fail their own operation on error.
func (s *S3ImageStore) Remove(ctx context.Context, imageURL string) error {
	if imageURL == "" {
		return nil
	}
	prefix := fmt.Sprintf("https://%s.s3.amazonaws.com/", s.s3Config.BucketName)
	if !strings.HasPrefix(imageURL, prefix) {
		// Not ours to delete
		return nil
	}
	key := strings.TrimPrefix(imageURL, prefix)
	_, err := s.s3Config.Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete image %s: %w", key, err)
	}
	return nil
}

// decodeImagePayload accepts either a raw base64 string or a
// "data:image/<type>;base64,<data>" URI and returns the bytes plus a
// file extension.
func decodeImagePayload(encoded string) ([]byte, string, error) {
	ext := "png"
	payload := encoded
	if strings.HasPrefix(encoded, "data:") {
		parts := strings.SplitN(encoded, ",", 2)
		if len(parts) != 2 {
			return nil, "", newValidationError("image", "malformed image payload")
		}
		meta := parts[0]
		payload = parts[1]
		if strings.HasPrefix(meta, "data:image/") {
			ext = strings.TrimPrefix(meta, "data:image/")
			if i := strings.IndexByte(ext, ';'); i >= 0 {
				ext = ext[:i]
			}
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", newValidationError("image", "image must be base64 encoded")
	}
	return data, ext, nil
}
