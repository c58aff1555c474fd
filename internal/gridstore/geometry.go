package gridstore

import (
	"math"

	"propgen/internal/types"
)

// ring is a closed polygon ring of [lon, lat] points.
type ring [][2]float64

// polygon is one grid square, possibly multi-part.
type polygon struct {
	Parts  []ring
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

func newPolygon(parts []ring) polygon {
	p := polygon{
		Parts:  parts,
		MinLon: math.MaxFloat64, MinLat: math.MaxFloat64,
		MaxLon: -math.MaxFloat64, MaxLat: -math.MaxFloat64,
	}
	for _, r := range parts {
		for _, pt := range r {
			p.MinLon = math.Min(p.MinLon, pt[0])
			p.MaxLon = math.Max(p.MaxLon, pt[0])
			p.MinLat = math.Min(p.MinLat, pt[1])
			p.MaxLat = math.Max(p.MaxLat, pt[1])
		}
	}
	return p
}

func (p polygon) empty() bool {
	return len(p.Parts) == 0 || len(p.Parts[0]) == 0
}

// centroid is the vertex mean of the outer ring. A closing point equal to the
// first vertex is not counted twice.
func (p polygon) centroid() (lon, lat float64) {
	outer := p.Parts[0]
	n := len(outer)
	if n > 1 && outer[0] == outer[n-1] {
		n--
	}
	for _, pt := range outer[:n] {
		lon += pt[0]
		lat += pt[1]
	}
	return lon / float64(n), lat / float64(n)
}

// entry builds a grid entry carrying the code, a GeoJSON centroid and the
// bounding box.
func (p polygon) entry(usng string) types.GridEntry {
	e := types.GridEntry{types.USNGField: usng}
	if p.empty() {
		return e
	}
	lon, lat := p.centroid()
	e["centroid"] = map[string]any{
		"type":        "Point",
		"coordinates": []any{lon, lat},
	}
	e["bbox"] = []any{p.MinLon, p.MinLat, p.MaxLon, p.MaxLat}
	return e
}
