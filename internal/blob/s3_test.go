package blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type mockS3 struct {
	objects  map[string][]byte
	types    map[string]string
	metadata map[string]map[string]string
	failPut  bool
}

func newMockS3() *mockS3 {
	return &mockS3{objects: map[string][]byte{}, types: map[string]string{}, metadata: map[string]map[string]string{}}
}

func (m *mockS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	data, ok := m.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func (m *mockS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if m.failPut {
		return nil, errors.New("AccessDenied")
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	k := *in.Bucket + "/" + *in.Key
	m.objects[k] = data
	if in.ContentType != nil {
		m.types[k] = *in.ContentType
	}
	m.metadata[k] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func TestStorePutGet(t *testing.T) {
	mock := newMockS3()
	store := NewWithClient(mock)
	ctx := context.Background()

	if err := store.Put(ctx, "demo", "props.json", []byte("[]"), "application/json", map[string]string{"run-id": "r1"}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if mock.types["demo/props.json"] != "application/json" || mock.metadata["demo/props.json"]["run-id"] != "r1" {
		t.Fatalf("content type or metadata not passed through")
	}
	data, err := store.Get(ctx, "demo", "props.json")
	if err != nil || string(data) != "[]" {
		t.Fatalf("get = %q, %v", data, err)
	}
	if _, err := store.Get(ctx, "demo", "missing"); err == nil {
		t.Fatalf("expected missing object error")
	}
	mock.failPut = true
	if err := store.Put(ctx, "demo", "x", nil, "", nil); err == nil {
		t.Fatalf("expected put error")
	}
}

func TestParseURL(t *testing.T) {
	bucket, key, err := ParseURL("s3://grids/pr/grid_Ksquares.json")
	if err != nil || bucket != "grids" || key != "pr/grid_Ksquares.json" {
		t.Fatalf("got %q %q %v", bucket, key, err)
	}
	for _, bad := range []string{"s3://bucket", "s3:///key", "https://bucket/key", "::"} {
		if _, _, err := ParseURL(bad); err == nil {
			t.Fatalf("expected error for %q", bad)
		}
	}
}
