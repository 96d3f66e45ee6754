// Package objectstore stores evidence images and purchase receipts and
// returns a public URL for each object.
package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"warranty/internal/platform/config"
)

// PutObjectAPI is the slice of the S3 client the uploader needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3 uploads objects to a single bucket.
type S3 struct {
	client        PutObjectAPI
	bucket        string
	publicBaseURL string
}

// NewS3 builds an uploader. publicBaseURL prefixes returned object URLs;
// when empty the virtual-hosted bucket URL for region is used.
func NewS3(client PutObjectAPI, bucket, region, publicBaseURL string) *S3 {
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// NewS3Client loads AWS configuration. A custom endpoint (LocalStack, MinIO)
// switches the client to path-style addressing.
func NewS3Client(ctx context.Context, cfg config.StorageConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

func (s *S3) Upload(ctx context.Context, data []byte, contentType, pathHint string) (string, error) {
	key := ObjectKey(pathHint)
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.publicBaseURL + "/" + key, nil
}

// ObjectKey cleans a caller-supplied path hint into a bucket key.
// Whitespace becomes '-' and parent references are dropped.
func ObjectKey(pathHint string) string {
	key := strings.Join(strings.Fields(pathHint), "-")
	key = path.Clean("/" + key)
	return strings.TrimPrefix(key, "/")
}
