package gridstore

import (
	"context"
	"fmt"
	"strings"

	shp "github.com/jonas-p/go-shp"

	"propgen/internal/types"
)

// Shapefile reads grid squares from a polygon shapefile. Each polygon becomes
// one entry; its DBF attributes are carried along with lower-cased names.
type Shapefile struct {
	path      string
	usngField string
}

func NewShapefile(path, usngField string) *Shapefile {
	if usngField == "" {
		usngField = defaultUSNGField
	}
	return &Shapefile{path: path, usngField: usngField}
}

func (s *Shapefile) Load(ctx context.Context) ([]types.GridEntry, error) {
	entries, err := s.read(ctx)
	return checked(s.path, entries, err)
}

func (s *Shapefile) read(ctx context.Context) ([]types.GridEntry, error) {
	r, err := shp.Open(s.path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	fields := r.Fields()
	usngIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f.String(), s.usngField) {
			usngIdx = i
		}
	}
	if usngIdx < 0 {
		return nil, fmt.Errorf("no %s attribute in %s", s.usngField, s.path)
	}

	var entries []types.GridEntry
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx, shape := r.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}

		usng := normalizeUSNG(cleanAttr(r.ReadAttribute(idx, usngIdx)))
		if usng == "" {
			return nil, fmt.Errorf("shape %d: %w", idx, types.ErrMissingUSNG)
		}
		entry := polygonFromShape(poly).entry(usng)
		for i, f := range fields {
			if i == usngIdx {
				continue
			}
			name := strings.ToLower(f.String())
			if _, taken := entry[name]; taken {
				continue
			}
			entry[name] = cleanAttr(r.ReadAttribute(idx, i))
		}
		entries = append(entries, entry)
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return entries, nil
}

// polygonFromShape splits the flat point list into its parts.
func polygonFromShape(poly *shp.Polygon) polygon {
	numParts := len(poly.Parts)
	parts := make([]ring, numParts)
	for partIdx := 0; partIdx < numParts; partIdx++ {
		start := poly.Parts[partIdx]
		end := int32(len(poly.Points))
		if partIdx+1 < numParts {
			end = poly.Parts[partIdx+1]
		}
		r := make(ring, 0, int(end-start))
		for i := start; i < end; i++ {
			pt := poly.Points[i]
			r = append(r, [2]float64{pt.X, pt.Y})
		}
		parts[partIdx] = r
	}
	return newPolygon(parts)
}

// cleanAttr drops the space and NUL padding of fixed-width DBF values.
func cleanAttr(v string) string {
	return strings.Trim(v, " \x00")
}
