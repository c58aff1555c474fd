package gridstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"propgen/internal/types"
)

// ArcGIS pages through an ArcGIS REST feature layer (for example the USNG
// 1000 m grid FeatureServer) and turns every polygon into a grid entry.
type ArcGIS struct {
	layerURL   string
	httpClient *resty.Client
	field      string
	pageSize   int
	envelope   []float64
	logger     *zap.Logger
}

type featureSet struct {
	Features []struct {
		Attributes map[string]any `json:"attributes"`
		Geometry   *struct {
			Rings [][][2]float64 `json:"rings"`
		} `json:"geometry"`
	} `json:"features"`
	ExceededTransferLimit bool `json:"exceededTransferLimit"`
	Error                 *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewArcGIS builds a client for the layer at layerURL (without the trailing
// /query).
func NewArcGIS(layerURL string, opts Options) (*ArcGIS, error) {
	opts = opts.withDefaults()
	if !strings.HasPrefix(layerURL, "http://") && !strings.HasPrefix(layerURL, "https://") {
		return nil, types.NewInputError(layerURL, fmt.Errorf("feature layer must be an http(s) url"))
	}
	if env := opts.ArcGISEnvelope; env != nil && len(env) != 4 {
		return nil, types.NewInputError(layerURL, fmt.Errorf("envelope needs 4 values, got %d", len(env)))
	}

	client := resty.New().
		SetTimeout(opts.HTTPTimeout).
		SetRetryCount(opts.ArcGISRetries).
		SetRetryWaitTime(opts.ArcGISRetryWait).
		SetRetryMaxWaitTime(opts.ArcGISRetryWait).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		})

	return &ArcGIS{
		layerURL:   strings.TrimRight(layerURL, "/"),
		httpClient: client,
		field:      opts.USNGField,
		pageSize:   opts.ArcGISPageSize,
		envelope:   opts.ArcGISEnvelope,
		logger:     opts.Logger.Named("arcgis"),
	}, nil
}

func (a *ArcGIS) Load(ctx context.Context) ([]types.GridEntry, error) {
	var entries []types.GridEntry
	offset := 0
	for {
		page, err := a.fetch(ctx, offset)
		if err != nil {
			return nil, types.NewInputError(a.layerURL, err)
		}
		for n, f := range page.Features {
			if f.Geometry == nil || len(f.Geometry.Rings) == 0 {
				continue
			}
			parts := make([]ring, len(f.Geometry.Rings))
			for i, r := range f.Geometry.Rings {
				parts[i] = ring(r)
			}
			code, _ := f.Attributes[a.field].(string)
			usng := normalizeUSNG(code)
			if usng == "" {
				return nil, types.NewInputError(a.layerURL,
					fmt.Errorf("feature %d: %w", offset+n, types.ErrMissingUSNG))
			}
			entries = append(entries, newPolygon(parts).entry(usng))
		}
		a.logger.Debug("fetched page",
			zap.Int("offset", offset),
			zap.Int("features", len(page.Features)),
			zap.Bool("more", page.ExceededTransferLimit))

		if !page.ExceededTransferLimit || len(page.Features) == 0 {
			break
		}
		offset += len(page.Features)
	}
	return checked(a.layerURL, entries, nil)
}

func (a *ArcGIS) query(offset int) map[string]string {
	q := map[string]string{
		"f":                 "json",
		"where":             "1=1",
		"outFields":         a.field,
		"returnGeometry":    "true",
		"outSR":             "4326",
		"resultOffset":      strconv.Itoa(offset),
		"resultRecordCount": strconv.Itoa(a.pageSize),
	}
	if a.envelope != nil {
		q["geometry"] = fmt.Sprintf(
			`{"xmin":%g,"ymin":%g,"xmax":%g,"ymax":%g,"spatialReference":{"wkid":4326}}`,
			a.envelope[0], a.envelope[1], a.envelope[2], a.envelope[3])
		q["geometryType"] = "esriGeometryEnvelope"
		q["inSR"] = "4326"
		q["spatialRel"] = "esriSpatialRelIntersects"
	}
	return q
}

func (a *ArcGIS) fetch(ctx context.Context, offset int) (*featureSet, error) {
	resp, err := a.httpClient.R().
		SetContext(ctx).
		SetQueryParams(a.query(offset)).
		Get(a.layerURL + "/query")
	if err != nil {
		return nil, fmt.Errorf("arcgis query: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("arcgis query: status %d: %s", resp.StatusCode(), resp.String())
	}

	// services answer text/plain as often as application/json
	dec := json.NewDecoder(bytes.NewReader(resp.Body()))
	var page featureSet
	if err := dec.Decode(&page); err != nil {
		return nil, fmt.Errorf("decode arcgis response: %w", err)
	}
	if page.Error != nil {
		return nil, fmt.Errorf("arcgis error %d: %s", page.Error.Code, page.Error.Message)
	}
	return &page, nil
}
