package server

import (
	"sync"
	"time"

	"propgen/internal/generator"
	"propgen/internal/types"
)

// batch is one published generation. It is never modified after publish.
type batch struct {
	runID       string
	generatedAt time.Time
	records     []types.PropertyRecord
	byID        map[int]int
	byGrid      map[string][]int
	summary     generator.Summary
	undervalued []generator.UndervaluedResult
}

// Dataset holds the batch the API serves. Publish swaps it in one step so
// readers see either the old or the new batch, never a mix.
type Dataset struct {
	mu      sync.RWMutex
	current *batch
}

func NewDataset() *Dataset {
	return &Dataset{current: newBatch("", time.Time{}, nil)}
}

func newBatch(runID string, at time.Time, records []types.PropertyRecord) *batch {
	b := &batch{
		runID:       runID,
		generatedAt: at,
		records:     records,
		byID:        make(map[int]int, len(records)),
		byGrid:      make(map[string][]int),
		summary:     generator.Summarize(records),
		undervalued: generator.Undervalued(records),
	}
	for i, r := range records {
		b.byID[r.ID] = i
		k := r.GridKey()
		b.byGrid[k] = append(b.byGrid[k], i)
	}
	return b
}

// Publish replaces the served batch.
func (d *Dataset) Publish(runID string, records []types.PropertyRecord) {
	b := newBatch(runID, time.Now().UTC(), records)
	d.mu.Lock()
	d.current = b
	d.mu.Unlock()
}

func (d *Dataset) snapshot() *batch {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current
}

// Len reports the size of the served batch.
func (d *Dataset) Len() int { return len(d.snapshot().records) }
