// Package storage keeps user pictures in an S3 compatible bucket (MinIO in
// development) and hands out time-limited download links.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/google/uuid"
)

// ErrEmptyKey is returned when an object key is blank.
var ErrEmptyKey = errors.New("storage: empty object key")

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3PictureStore uploads pictures and presigns GET requests for them.
type S3PictureStore struct {
	client   *s3.Client
	presign  *s3.PresignClient
	bucket   string
	validity time.Duration
}

// NewS3PictureStore builds a client for the configured endpoint using static
// credentials and path-style addressing.
func NewS3PictureStore(ctx context.Context, cfg *config.Config) (*S3PictureStore, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3RootUser,
			cfg.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	validity := cfg.PictureURLValidity
	if validity <= 0 {
		validity = time.Hour
	}

	return &S3PictureStore{
		client:   client,
		presign:  s3.NewPresignClient(client),
		bucket:   cfg.S3Bucket,
		validity: validity,
	}, nil
}

// Upload stores body under key.
func (s *S3PictureStore) Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error {
	if key == "" {
		return ErrEmptyKey
	}
	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   body,
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := putObject(s.client, ctx, in); err != nil {
		return fmt.Errorf("put object %q: %w", key, err)
	}
	return nil
}

// PresignGet returns a URL that downloads key until the configured validity
// elapses.
func (s *S3PictureStore) PresignGet(ctx context.Context, key string) (string, error) {
	if key == "" {
		return "", ErrEmptyKey
	}
	req, err := presignGetObject(s.presign, ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.validity))
	if err != nil {
		return "", fmt.Errorf("presign get %q: %w", key, err)
	}
	return req.URL, nil
}

// PictureKey returns a unique object key "{uuid}_{name}" for an uploaded file.
// Directory components and spaces in name are dropped.
func PictureKey(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	base = strings.ReplaceAll(base, " ", "_")
	if base == "." || base == "/" || base == "" {
		base = "picture"
	}
	return uuid.NewString() + "_" + base
}
