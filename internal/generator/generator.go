// Package generator builds batches of synthetic property records from a grid
// dataset.
package generator

import (
	"errors"
	"math"
	"math/rand/v2"
	"time"

	"propgen/internal/types"
)

// Sampling ranges. All bounds are inclusive.
const (
	MinValue = 50000.0
	MaxValue = 500000.0

	MaxMunicipalityID = 20
	MaxNeighborhoodID = 50
	MaxSectorID       = 30
)

// ErrInvalidCount is returned when the requested batch size is not positive.
var ErrInvalidCount = errors.New("count must be a positive integer")

// Source is the random handle the generator draws from. *rand.Rand satisfies
// it; callers own it and must not share it across goroutines.
type Source interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a random source seeded from the clock and the runtime's
// entropy.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), rand.Uint64()))
}

// Generate returns count records. Each record picks one grid entry uniformly
// with replacement and samples its remaining fields independently. ids run
// 1..count in order. grids is only read.
func Generate(rng Source, grids []types.GridEntry, count int) ([]types.PropertyRecord, error) {
	if err := types.ValidateGrid(grids); err != nil {
		return nil, types.NewInputError("", err)
	}
	if count <= 0 {
		return nil, ErrInvalidCount
	}

	records := make([]types.PropertyRecord, 0, count)
	for i := 1; i <= count; i++ {
		grid := grids[rng.IntN(len(grids))]
		usng, _ := grid.USNG()
		records = append(records, types.PropertyRecord{
			ID:             i,
			Value:          sampleValue(rng),
			Type:           types.PropertyTypes[rng.IntN(len(types.PropertyTypes))],
			MunicipalityID: intInRange(rng, 1, MaxMunicipalityID),
			NeighborhoodID: intInRange(rng, 1, MaxNeighborhoodID),
			SectorID:       intInRange(rng, 1, MaxSectorID),
			GridID:         usng,
			Grid:           grid.Clone(),
		})
	}
	return records, nil
}

// sampleValue draws from [MinValue, MaxValue] and rounds half away from zero
// to cents.
func sampleValue(rng Source) float64 {
	v := MinValue + rng.Float64()*(MaxValue-MinValue)
	return roundCents(v)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

func intInRange(rng Source, lo, hi int) int {
	return lo + rng.IntN(hi-lo+1)
}
