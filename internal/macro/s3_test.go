package macro

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type mockS3 struct {
	getOut *s3.GetObjectOutput
	getErr error
	getIn  []*s3.GetObjectInput

	putErr error
	putIn  []*s3.PutObjectInput
}

func (m *mockS3) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	m.getIn = append(m.getIn, params)
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.getOut, nil
}

func (m *mockS3) PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	m.putIn = append(m.putIn, params)
	if m.putErr != nil {
		return nil, m.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3MirrorLoad(t *testing.T) {
	m := &mockS3{
		getOut: &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader("[macros]"))},
	}
	mirror := NewS3Mirror(m, "bucket-a", "macros.toml")

	data, err := mirror.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(data) != "[macros]" {
		t.Fatalf("Load = %q", data)
	}
	in := m.getIn[0]
	if aws.ToString(in.Bucket) != "bucket-a" || aws.ToString(in.Key) != "macros.toml" {
		t.Fatalf("requested s3://%s/%s", aws.ToString(in.Bucket), aws.ToString(in.Key))
	}
}

func TestS3MirrorLoadMissingObjectIsEmpty(t *testing.T) {
	m := &mockS3{getErr: &s3types.NoSuchKey{}}
	mirror := NewS3Mirror(m, "bucket-a", "macros.toml")

	data, err := mirror.Load(context.Background())
	if err != nil {
		t.Fatalf("Load on fresh bucket: %v", err)
	}
	if data != nil {
		t.Fatalf("Load = %q, want nil", data)
	}
}

func TestS3MirrorLoadPropagatesOtherErrors(t *testing.T) {
	m := &mockS3{getErr: errors.New("connection reset")}
	mirror := NewS3Mirror(m, "bucket-a", "macros.toml")

	if _, err := mirror.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
}

func TestS3MirrorStore(t *testing.T) {
	m := &mockS3{}
	mirror := NewS3Mirror(m, "bucket-a", "macros.toml")

	if err := mirror.Store(context.Background(), []byte("payload")); err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(m.putIn) != 1 {
		t.Fatalf("PutObject calls = %d, want 1", len(m.putIn))
	}
	body, err := io.ReadAll(m.putIn[0].Body)
	if err != nil {
		t.Fatalf("read uploaded body: %v", err)
	}
	if string(body) != "payload" {
		t.Fatalf("uploaded %q", body)
	}
}
