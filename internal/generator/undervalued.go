package generator

import (
	"sort"

	"propgen/internal/types"
)

// MinComparables is the smallest peer group Undervalued will judge against.
const MinComparables = 3

// UndervaluedResult is a record priced at least one standard deviation below
// its comparables.
type UndervaluedResult struct {
	types.PropertyRecord
	NeighborCount int     `json:"neighborCount"`
	Mean          float64 `json:"neighborMean"`
	StdDev        float64 `json:"neighborStdDev"`
}

type neighborhoodKey struct{ municipality, neighborhood int }

// Undervalued compares every record with the other records of the same
// municipality and neighborhood and returns those valued below mean-std of
// that peer group. Groups with fewer than MinComparables peers are skipped.
// Results are ordered by id.
func Undervalued(records []types.PropertyRecord) []UndervaluedResult {
	groups := make(map[neighborhoodKey][]int)
	for i, r := range records {
		k := neighborhoodKey{r.MunicipalityID, r.NeighborhoodID}
		groups[k] = append(groups[k], i)
	}

	var results []UndervaluedResult
	for _, idx := range groups {
		if len(idx)-1 < MinComparables {
			continue
		}
		for _, i := range idx {
			neighborVals := make([]float64, 0, len(idx)-1)
			for _, j := range idx {
				if j != i {
					neighborVals = append(neighborVals, records[j].Value)
				}
			}
			mean, std := meanStd(neighborVals)
			if records[i].Value < mean-std {
				results = append(results, UndervaluedResult{
					PropertyRecord: records[i],
					NeighborCount:  len(neighborVals),
					Mean:           mean,
					StdDev:         std,
				})
			}
		}
	}
	sort.Slice(results, func(a, b int) bool { return results[a].ID < results[b].ID })
	return results
}
