package gridstore

import (
	"bytes"
	"context"
	"os"

	"propgen/internal/blob"
	"propgen/internal/types"
)

// JSONFile reads a JSON array of grid objects from disk.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile { return &JSONFile{path: path} }

func (j *JSONFile) Load(ctx context.Context) ([]types.GridEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(j.path)
	if err != nil {
		return nil, types.NewInputError(j.path, err)
	}
	defer f.Close()

	entries, err := decodeGrid(f)
	return checked(j.path, entries, err)
}

// S3Source reads a JSON array of grid objects from an S3 object.
type S3Source struct {
	bucket string
	key    string
	cfg    blob.Config
	store  *blob.Store
}

// NewS3Source reads bucket/key through an existing store.
func NewS3Source(store *blob.Store, bucket, key string) *S3Source {
	return &S3Source{bucket: bucket, key: key, store: store}
}

func (s *S3Source) Load(ctx context.Context) ([]types.GridEntry, error) {
	location := "s3://" + s.bucket + "/" + s.key
	if s.store == nil {
		store, err := blob.New(ctx, s.cfg)
		if err != nil {
			return nil, types.NewInputError(location, err)
		}
		s.store = store
	}
	data, err := s.store.Get(ctx, s.bucket, s.key)
	if err != nil {
		return nil, types.NewInputError(location, err)
	}
	entries, err := decodeGrid(bytes.NewReader(data))
	return checked(location, entries, err)
}
