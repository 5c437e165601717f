package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	appconfig "github.com/isdelr/datingapp-be/internal/config"
)

// ObjectAPI is the subset of the S3 client used for photos.
type ObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3PhotoStorage stores photos as objects in a single bucket.
type S3PhotoStorage struct {
	client    ObjectAPI
	bucket    string
	publicURL string
}

// NewS3PhotoStorage builds an S3 client from cfg. Static credentials are used
// when provided, otherwise the default AWS credential chain applies.
func NewS3PhotoStorage(ctx context.Context, cfg appconfig.S3Config) (*S3PhotoStorage, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	publicURL := cfg.PublicURL
	if publicURL == "" {
		if cfg.Endpoint != "" {
			publicURL = strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}
	return NewS3PhotoStorageWithClient(client, cfg.Bucket, publicURL), nil
}

// NewS3PhotoStorageWithClient wires an existing client.
func NewS3PhotoStorageWithClient(client ObjectAPI, bucket, publicURL string) *S3PhotoStorage {
	return &S3PhotoStorage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

// Upload puts body under key. The object key doubles as the public id.
func (s *S3PhotoStorage) Upload(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicURL + "/" + key, key, nil
}

// Delete removes the object named by publicID.
func (s *S3PhotoStorage) Delete(ctx context.Context, publicID string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(publicID),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", publicID, err)
	}
	return nil
}
