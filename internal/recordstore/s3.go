package recordstore

import (
	"context"
	"strconv"

	"propgen/internal/blob"
	"propgen/internal/types"
)

// S3 uploads each batch as one JSON object.
type S3 struct {
	store  *blob.Store
	bucket string
	key    string
	runID  string
}

func NewS3(store *blob.Store, bucket, key, runID string) *S3 {
	return &S3{store: store, bucket: bucket, key: key, runID: runID}
}

func (s *S3) Write(ctx context.Context, records []types.PropertyRecord) error {
	dest := "s3://" + s.bucket + "/" + s.key
	data, err := Encode(records)
	if err != nil {
		return types.NewStorageError(dest, err)
	}
	meta := map[string]string{"record-count": strconv.Itoa(len(records))}
	if s.runID != "" {
		meta["run-id"] = s.runID
	}
	if err := s.store.Put(ctx, s.bucket, s.key, data, "application/json", meta); err != nil {
		return types.NewStorageError(dest, err)
	}
	return nil
}

func (s *S3) Close() error { return nil }
