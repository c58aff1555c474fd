package generator

import (
	"math"

	"propgen/internal/types"
)

// TypeCount is the number of records of one category.
type TypeCount struct {
	Type  types.PropertyType `json:"type"`
	Count int                `json:"count"`
}

// Summary aggregates a batch for display.
type Summary struct {
	Count     int         `json:"count"`
	Grids     int         `json:"distinctGrids"`
	ByType    []TypeCount `json:"byType"`
	MinValue  float64     `json:"minValue"`
	MaxValue  float64     `json:"maxValue"`
	MeanValue float64     `json:"meanValue"`
	StdDev    float64     `json:"stdDevValue"`
}

// Summarize computes per-type counts and value statistics. Every category
// appears in ByType, in catalogue order, even when unused.
func Summarize(records []types.PropertyRecord) Summary {
	s := Summary{Count: len(records)}

	counts := make(map[types.PropertyType]int, len(types.PropertyTypes))
	grids := make(map[string]struct{})
	vals := make([]float64, 0, len(records))
	for _, r := range records {
		counts[r.Type]++
		grids[r.GridKey()] = struct{}{}
		vals = append(vals, r.Value)
	}
	for _, pt := range types.PropertyTypes {
		s.ByType = append(s.ByType, TypeCount{Type: pt, Count: counts[pt]})
	}
	s.Grids = len(grids)

	if len(vals) == 0 {
		return s
	}
	s.MinValue, s.MaxValue = math.MaxFloat64, -math.MaxFloat64
	for _, v := range vals {
		s.MinValue = math.Min(s.MinValue, v)
		s.MaxValue = math.Max(s.MaxValue, v)
	}
	s.MeanValue, s.StdDev = meanStd(vals)
	return s
}

func meanStd(vals []float64) (mean, std float64) {
	for _, v := range vals {
		mean += v
	}
	mean /= float64(len(vals))
	for _, v := range vals {
		std += (v - mean) * (v - mean)
	}
	std = math.Sqrt(std / float64(len(vals)))
	return
}
