package receipts

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Extensions a payment receipt may carry.
var allowedExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

var ErrBadExtension = fmt.Errorf("receipts: file type not allowed, accepted: jpg, jpeg, png, pdf")

// Store keeps payment receipts in an S3-compatible bucket.
type Store struct {
	client *minio.Client
	bucket string
}

func NewStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*Store, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("receipts: init client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("receipts: check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("receipts: create bucket: %w", err)
		}
	}

	return &Store{client: client, bucket: bucket}, nil
}

// ContentType maps a receipt filename to its media type, rejecting anything
// outside the allowed set.
func ContentType(filename string) (string, error) {
	ext := strings.ToLower(path.Ext(filename))
	ct, ok := allowedExtensions[ext]
	if !ok {
		return "", ErrBadExtension
	}
	return ct, nil
}

// Put uploads a receipt and returns the generated object key.
func (s *Store) Put(ctx context.Context, paymentID uint, filename string, r io.Reader, size int64) (string, error) {
	ct, err := ContentType(filename)
	if err != nil {
		return "", err
	}

	key := fmt.Sprintf("%d/%s_%s", paymentID, uuid.NewString(), path.Base(filename))
	_, err = s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: ct})
	if err != nil {
		return "", fmt.Errorf("receipts: put object: %w", err)
	}
	return key, nil
}

// PresignGet returns a temporary download URL for a stored receipt.
func (s *Store) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("receipts: presign get: %w", err)
	}
	return url.String(), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("receipts: delete object: %w", err)
	}
	return nil
}
