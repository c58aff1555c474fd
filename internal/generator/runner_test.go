package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"propgen/internal/metrics"
	"propgen/internal/types"
)

type stubSource struct {
	entries []types.GridEntry
	err     error
}

func (s stubSource) Load(context.Context) ([]types.GridEntry, error) { return s.entries, s.err }

type stubSink struct {
	written  []types.PropertyRecord
	writeErr error
	closed   bool
}

func (s *stubSink) Write(_ context.Context, records []types.PropertyRecord) error {
	if s.writeErr != nil {
		return s.writeErr
	}
	s.written = records
	return nil
}

func (s *stubSink) Close() error {
	s.closed = true
	return nil
}

func TestRunnerWritesBatch(t *testing.T) {
	m := metrics.New()
	r := NewRunner(seeded(), nil, m)
	sink := &stubSink{}
	var gotRunID string

	res, err := r.Run(context.Background(), Job{
		Input:  "grid.json",
		Source: stubSource{entries: []types.GridEntry{{"usng": "18SUJ2338"}}},
		Output: "out.json",
		Open: func(_ context.Context, runID string) (RecordSink, error) {
			gotRunID = runID
			return sink, nil
		},
		Count: 10,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(sink.written) != 10 || !sink.closed {
		t.Fatalf("sink got %d records, closed=%v", len(sink.written), sink.closed)
	}
	if res.RunID == "" || res.RunID != gotRunID {
		t.Fatalf("run id %q not passed to sink (%q)", res.RunID, gotRunID)
	}
	if res.GridEntries != 1 || len(res.Records) != 10 {
		t.Fatalf("unexpected result %+v", res)
	}
	if n, err := testutil.GatherAndCount(m.Registry(), "propgen_runs_total"); err != nil || n != 1 {
		t.Fatalf("runs_total series = %d, err %v", n, err)
	}
}

func TestRunnerEmptyGridNeverOpensSink(t *testing.T) {
	r := NewRunner(seeded(), nil, nil)
	opened := false
	_, err := r.Run(context.Background(), Job{
		Input:  "grid.json",
		Source: stubSource{entries: []types.GridEntry{}},
		Open: func(context.Context, string) (RecordSink, error) {
			opened = true
			return &stubSink{}, nil
		},
		Count: 3,
	})
	var ie *types.InputError
	if !errors.As(err, &ie) || ie.Source != "grid.json" {
		t.Fatalf("expected InputError for grid.json, got %v", err)
	}
	if opened {
		t.Fatalf("sink opened for a failed generation")
	}
}

func TestRunnerLoadError(t *testing.T) {
	r := NewRunner(seeded(), nil, nil)
	_, err := r.Run(context.Background(), Job{
		Input:  "missing.json",
		Source: stubSource{err: errors.New("no such file")},
		Count:  1,
	})
	var ie *types.InputError
	if !errors.As(err, &ie) {
		t.Fatalf("expected InputError, got %v", err)
	}
}

func TestRunnerStorageErrors(t *testing.T) {
	src := stubSource{entries: []types.GridEntry{{"usng": "a"}}}
	r := NewRunner(seeded(), nil, nil)
	var se *types.StorageError

	_, err := r.Run(context.Background(), Job{
		Source: src, Output: "db", Count: 1,
		Open: func(context.Context, string) (RecordSink, error) { return nil, errors.New("refused") },
	})
	if !errors.As(err, &se) || se.Dest != "db" {
		t.Fatalf("expected StorageError on open, got %v", err)
	}

	sink := &stubSink{writeErr: errors.New("disk full")}
	_, err = r.Run(context.Background(), Job{
		Source: src, Output: "out.json", Count: 1,
		Open: func(context.Context, string) (RecordSink, error) { return sink, nil },
	})
	if !errors.As(err, &se) {
		t.Fatalf("expected StorageError on write, got %v", err)
	}
	if !sink.closed {
		t.Fatalf("sink not closed after failed write")
	}
}

func TestRunnerInvalidCount(t *testing.T) {
	r := NewRunner(seeded(), nil, nil)
	_, err := r.Run(context.Background(), Job{
		Source: stubSource{entries: []types.GridEntry{{"usng": "a"}}},
		Count:  0,
	})
	if !errors.Is(err, ErrInvalidCount) {
		t.Fatalf("expected ErrInvalidCount, got %v", err)
	}
}

func TestRunnerWithoutSinkKeepsBatchInMemory(t *testing.T) {
	r := NewRunner(seeded(), nil, nil)
	res, err := r.Run(context.Background(), Job{
		Input:  "grid.json",
		Source: stubSource{entries: []types.GridEntry{{"usng": "18SUJ2338"}}},
		Count:  3,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(res.Records) != 3 || res.RunID == "" {
		t.Fatalf("result = %+v", res)
	}
}
