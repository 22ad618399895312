// Package cloud holds the provider uploaders for encrypted backup artifacts.
package cloud

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mkazakovs/entrypack/internal/logging"
)

// S3Settings configures the S3-compatible target. Endpoint is optional and
// points at a MinIO-style deployment when set.
type S3Settings struct {
	Region    string
	Endpoint  string
	Bucket    string
	AccessKey string
	SecretKey string
}

// S3Uploader implements backup.Uploader on top of an S3-compatible bucket.
type S3Uploader struct {
	cfg S3Settings
	log logging.Logger
}

func NewS3Uploader(cfg S3Settings, log logging.Logger) *S3Uploader {
	return &S3Uploader{cfg: cfg, log: log}
}

func (u *S3Uploader) client(ctx context.Context) (*s3.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(u.cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			u.cfg.AccessKey,
			u.cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if u.cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(u.cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Upload puts one artifact into the bucket under key.
func (u *S3Uploader) Upload(ctx context.Context, filePath, key string) error {
	client, err := u.client(ctx)
	if err != nil {
		return err
	}

	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer f.Close()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.cfg.Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("application/octet-stream"),
	})
	if err != nil {
		return fmt.Errorf("put object %s: %w", key, err)
	}

	u.log.Debug(ctx, "artifact uploaded", "bucket", u.cfg.Bucket, "key", key)
	return nil
}
