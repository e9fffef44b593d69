package macro

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3API is the subset of the S3 API the mirror uses.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Mirror keeps a copy of the macro file in a single S3 object.
type S3Mirror struct {
	client S3API
	bucket string
	key    string
}

// NewS3Mirror creates a mirror writing to s3://bucket/key.
func NewS3Mirror(client S3API, bucket, key string) *S3Mirror {
	return &S3Mirror{client: client, bucket: bucket, key: key}
}

// Load fetches the remote macro file. A missing object is not an error:
// it returns (nil, nil) so a fresh bucket starts empty.
func (m *S3Mirror) Load(ctx context.Context) ([]byte, error) {
	out, err := m.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key),
	})
	if err != nil {
		var ae smithy.APIError
		if errors.As(err, &ae) {
			switch ae.ErrorCode() {
			case "NoSuchKey", "NotFound":
				return nil, nil
			}
		}
		return nil, fmt.Errorf("get s3://%s/%s: %w", m.bucket, m.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", m.bucket, m.key, err)
	}
	return data, nil
}

// Store uploads the macro file, replacing the previous object.
func (m *S3Mirror) Store(ctx context.Context, data []byte) error {
	_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(m.key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", m.bucket, m.key, err)
	}
	return nil
}
