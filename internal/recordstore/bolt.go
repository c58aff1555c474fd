package recordstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boltdb/bolt"

	"propgen/internal/types"
)

// Bolt stores records in a bucket keyed by big-endian id, so a cursor walks
// them in id order.
type Bolt struct {
	db       *bolt.DB
	path     string
	bucket   []byte
	truncate bool
}

func openBolt(path string, opts Options) (*Bolt, error) {
	if path == "" {
		return nil, fmt.Errorf("bolt location needs a file path")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt %s: %w", path, err)
	}
	b := &Bolt{db: db, path: path, bucket: []byte(opts.Table), truncate: opts.Truncate}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(b.bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket %s: %w", opts.Table, err)
	}
	return b, nil
}

func boltKey(id int) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(id))
	return k
}

func (b *Bolt) Write(ctx context.Context, records []types.PropertyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := b.db.Update(func(tx *bolt.Tx) error {
		if b.truncate {
			if err := tx.DeleteBucket(b.bucket); err != nil && err != bolt.ErrBucketNotFound {
				return err
			}
		}
		bucket, err := tx.CreateBucketIfNotExists(b.bucket)
		if err != nil {
			return err
		}
		for _, r := range records {
			v, err := json.Marshal(r)
			if err != nil {
				return fmt.Errorf("encode property %d: %w", r.ID, err)
			}
			if err := bucket.Put(boltKey(r.ID), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return types.NewStorageError(b.path, err)
	}
	return nil
}

// readAll returns the stored records in id order.
func (b *Bolt) readAll() ([]types.PropertyRecord, error) {
	var out []types.PropertyRecord
	err := b.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(b.bucket)
		if bucket == nil {
			return nil
		}
		return bucket.ForEach(func(_, v []byte) error {
			var r types.PropertyRecord
			if err := json.Unmarshal(v, &r); err != nil {
				return err
			}
			out = append(out, r)
			return nil
		})
	})
	return out, err
}

func (b *Bolt) Close() error { return b.db.Close() }
