// Package gridstore reads USNG grid datasets from files, shapefiles, ArcGIS
// feature services and S3.
package gridstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"propgen/internal/blob"
	"propgen/internal/types"
)

// Source yields the grid dataset.
type Source interface {
	Load(ctx context.Context) ([]types.GridEntry, error)
}

// Options tunes the non-file sources.
type Options struct {
	// USNGField is the shapefile attribute / feature service field holding
	// the grid code.
	USNGField string

	ArcGISPageSize  int
	ArcGISEnvelope  []float64 // xmin, ymin, xmax, ymax in WGS84
	ArcGISRetries   int // 0 means the default of 3, negative disables retries
	ArcGISRetryWait time.Duration
	HTTPTimeout     time.Duration

	S3 blob.Config

	Logger *zap.Logger
}

const (
	defaultUSNGField = "USNG"
	defaultPageSize  = 2000
	defaultRetries   = 3
	arcgisPrefix     = "arcgis+"
)

func (o Options) withDefaults() Options {
	if o.USNGField == "" {
		o.USNGField = defaultUSNGField
	}
	if o.ArcGISPageSize <= 0 {
		o.ArcGISPageSize = defaultPageSize
	}
	switch {
	case o.ArcGISRetries == 0:
		o.ArcGISRetries = defaultRetries
	case o.ArcGISRetries < 0:
		o.ArcGISRetries = 0
	}
	if o.ArcGISRetryWait <= 0 {
		o.ArcGISRetryWait = time.Second
	}
	if o.HTTPTimeout <= 0 {
		o.HTTPTimeout = 30 * time.Second
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

// Open picks a source for location:
//
//	arcgis+https://host/.../FeatureServer/3  ArcGIS REST feature layer
//	s3://bucket/key                           JSON array object
//	path/to/grid.shp                          polygon shapefile
//	anything else                             JSON array file
func Open(location string, opts Options) (Source, error) {
	opts = opts.withDefaults()
	switch {
	case strings.TrimSpace(location) == "":
		return nil, types.NewInputError(location, fmt.Errorf("no grid location given"))
	case strings.HasPrefix(location, arcgisPrefix):
		return NewArcGIS(strings.TrimPrefix(location, arcgisPrefix), opts)
	case strings.HasPrefix(location, "s3://"):
		bucket, key, err := blob.ParseURL(location)
		if err != nil {
			return nil, types.NewInputError(location, err)
		}
		return &S3Source{bucket: bucket, key: key, cfg: opts.S3}, nil
	case strings.EqualFold(filepath.Ext(location), ".shp"):
		return NewShapefile(location, opts.USNGField), nil
	default:
		return NewJSONFile(location), nil
	}
}

// decodeGrid reads a JSON array of grid objects, keeping numbers exact.
func decodeGrid(r io.Reader) ([]types.GridEntry, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var entries []types.GridEntry
	if err := dec.Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode grid json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("decode grid json: trailing data after array")
	}
	if entries == nil {
		// a literal null decodes without error
		return nil, types.ErrEmptyGrid
	}
	return entries, nil
}

// normalizeUSNG produces the canonical form of a grid code: upper case, no
// whitespace ("19Q GA 70 50" -> "19QGA7050").
func normalizeUSNG(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

func checked(location string, entries []types.GridEntry, err error) ([]types.GridEntry, error) {
	if err != nil {
		return nil, types.NewInputError(location, err)
	}
	if err := types.ValidateGrid(entries); err != nil {
		return nil, types.NewInputError(location, err)
	}
	return entries, nil
}
