package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ScanArchive stores the original fridge photos in S3-compatible storage so
// a scan's source image can be reviewed later
type ScanArchive struct {
	client     *minio.Client
	bucketName string
	region     string
}

// NewScanArchive creates a new S3-backed scan archive
func NewScanArchive(endpoint, accessKey, secretKey, bucketName, region string, useSSL bool) (*ScanArchive, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 client: %w", err)
	}

	return &ScanArchive{
		client:     client,
		bucketName: bucketName,
		region:     region,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (a *ScanArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		err = a.client.MakeBucket(ctx, a.bucketName, minio.MakeBucketOptions{
			Region: a.region,
		})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	return nil
}

// ScanKey builds a unique object key for one user's scan image
func ScanKey(userID int, filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		ext = ".jpg"
	}
	return fmt.Sprintf("scans/%d/%s/%s%s", userID, time.Now().UTC().Format("2006-01-02"), uuid.NewString(), ext)
}

// Archive uploads a scan image under the given key
func (a *ScanArchive) Archive(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	_, err := a.client.PutObject(ctx, a.bucketName, key, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload scan image: %w", err)
	}
	return nil
}

// Fetch downloads an archived scan image
func (a *ScanArchive) Fetch(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := a.client.GetObject(ctx, a.bucketName, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return obj, nil
}

// Delete removes an archived scan image
func (a *ScanArchive) Delete(ctx context.Context, key string) error {
	err := a.client.RemoveObject(ctx, a.bucketName, key, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
