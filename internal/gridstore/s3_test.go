package gridstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"propgen/internal/blob"
	"propgen/internal/types"
)

type objectStub map[string]string

func (o objectStub) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	body, ok := o[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader([]byte(body)))}, nil
}

func (o objectStub) PutObject(context.Context, *s3.PutObjectInput, ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	return nil, errors.New("read only")
}

func TestS3SourceLoad(t *testing.T) {
	store := blob.NewWithClient(objectStub{
		"grids/pr.json":  `[{"usng":"19QGA7050"}]`,
		"grids/bad.json": `[{"area":1}]`,
	})
	ctx := context.Background()

	entries, err := NewS3Source(store, "grids", "pr.json").Load(ctx)
	if err != nil || len(entries) != 1 || entries[0].Key() != "19QGA7050" {
		t.Fatalf("load = %v, %v", entries, err)
	}

	_, err = NewS3Source(store, "grids", "bad.json").Load(ctx)
	if !errors.Is(err, types.ErrMissingUSNG) {
		t.Fatalf("expected missing usng, got %v", err)
	}

	_, err = NewS3Source(store, "grids", "gone.json").Load(ctx)
	var inputErr *types.InputError
	if !errors.As(err, &inputErr) || inputErr.Source != "s3://grids/gone.json" {
		t.Fatalf("expected InputError for missing object, got %v", err)
	}
}
