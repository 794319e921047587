package stage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/deltarule/sfclient/pkg/schema"
)

// s3Backend moves objects in and out of one S3 bucket using short-lived,
// server-issued credentials. A fresh backend is built per PUT/GET: the
// credentials are scoped to a single staging operation and are never
// persisted.
type s3Backend struct {
	client *s3.Client
	bucket string
}

func newS3Backend(info *schema.AwsPutGetStageInfo) (*s3Backend, string, error) {
	bucket, path, ok := strings.Cut(info.Location, "/")
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidBucketPath, info.Location)
	}

	cfg := aws.Config{
		Region: info.Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			info.Creds.AwsKeyID, info.Creds.AwsSecretKey, info.Creds.AwsToken,
		),
	}
	client := s3.NewFromConfig(cfg)

	return &s3Backend{client: client, bucket: bucket}, path, nil
}

func (b *s3Backend) Put(ctx context.Context, key string, data []byte) error {
	_, err := b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s: %v", ErrIoError, key, err)
	}
	return nil
}

func (b *s3Backend) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: get %s: %v", ErrIoError, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrIoError, key, err)
	}
	return data, nil
}
