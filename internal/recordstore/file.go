package recordstore

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"propgen/internal/types"
)

// Encode renders a batch the way every file-shaped sink stores it: a JSON
// array indented by four spaces. An empty batch is "[]".
func Encode(records []types.PropertyRecord) ([]byte, error) {
	if records == nil {
		records = []types.PropertyRecord{}
	}
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("encode records: %w", err)
	}
	return append(data, '\n'), nil
}

// JSONFile replaces the file at path with each written batch. The batch goes
// to a temporary file in the same directory first, so a failed write never
// leaves a truncated file behind.
type JSONFile struct {
	path string
}

func NewJSONFile(path string) *JSONFile { return &JSONFile{path: path} }

func (f *JSONFile) Write(ctx context.Context, records []types.PropertyRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := Encode(records)
	if err != nil {
		return types.NewStorageError(f.path, err)
	}
	if err := writeAtomic(f.path, data); err != nil {
		return types.NewStorageError(f.path, err)
	}
	return nil
}

func (f *JSONFile) Close() error { return nil }

// ReadJSONFile loads a batch previously written by a JSONFile sink. Grid
// numbers stay json.Number.
func ReadJSONFile(path string) ([]types.PropertyRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := json.NewDecoder(f)
	dec.UseNumber()
	var records []types.PropertyRecord
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("decode %s: trailing data after array", path)
	}
	return records, nil
}

func writeAtomic(path string, data []byte) (retErr error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Memory keeps the last written batch.
type Memory struct {
	mu      sync.RWMutex
	records []types.PropertyRecord
	writes  int
	closed  bool
}

func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Write(_ context.Context, records []types.PropertyRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return types.NewStorageError("memory:", fmt.Errorf("sink closed"))
	}
	m.records = append([]types.PropertyRecord(nil), records...)
	m.writes++
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// lastBatch returns a copy of the last batch.
func (m *Memory) lastBatch() []types.PropertyRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]types.PropertyRecord(nil), m.records...)
}

// writeCount counts Write calls.
func (m *Memory) writeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes
}
