package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

const presignTTL = 15 * time.Minute

// MediaStore hands out presigned S3 URLs for avatar, cover and post
// images. Works against AWS or any MinIO-compatible endpoint.
type MediaStore struct {
	Region    string
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

func (m *MediaStore) presignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(m.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			m.AccessKey,
			m.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("storage: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if m.Endpoint != "" {
			o.BaseEndpoint = aws.String(m.Endpoint)
			o.UsePathStyle = true
		}
	})
	return s3.NewPresignClient(client), nil
}

// NewKey builds a date-partitioned object key under the given prefix.
func NewKey(prefix string) string {
	d := time.Now()
	return fmt.Sprintf("%s/%d/%02d/%02d/%s", prefix, d.Year(), d.Month(), d.Day(), uuid.New())
}

// PresignUpload returns the object key and a presigned PUT url the
// client uploads directly to.
func (m *MediaStore) PresignUpload(ctx context.Context, prefix string) (string, string, error) {
	pc, err := m.presignClient(ctx)
	if err != nil {
		return "", "", err
	}

	key := NewKey(prefix)
	req, err := pc.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket: &m.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", "", fmt.Errorf("storage: presign put: %w", err)
	}

	return key, req.URL, nil
}

// PresignDownload returns a temporary GET url for a stored object.
func (m *MediaStore) PresignDownload(ctx context.Context, key string) (string, error) {
	pc, err := m.presignClient(ctx)
	if err != nil {
		return "", err
	}

	req, err := pc.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: &m.Bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignTTL))
	if err != nil {
		return "", fmt.Errorf("storage: presign get: %w", err)
	}

	return req.URL, nil
}
