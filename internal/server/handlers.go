package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propgen/internal/generator"
	"propgen/internal/types"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// RegenerateFunc produces a fresh batch.
type RegenerateFunc func(ctx context.Context) (generator.Result, error)

// ErrBusy is returned when a regeneration is already running.
var ErrBusy = errors.New("regeneration already in progress")

// Handler serves the property API over a Dataset.
type Handler struct {
	data       *Dataset
	regenerate RegenerateFunc
	regenMu    sync.Mutex
	logger     *zap.Logger
}

// NewHandler constructs the HTTP handler adapter. regenerate may be nil, in
// which case the regenerate endpoint answers 501.
func NewHandler(data *Dataset, regenerate RegenerateFunc, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{data: data, regenerate: regenerate, logger: logger}
}

// Regenerate runs one regeneration and publishes its batch. Concurrent calls
// fail fast with ErrBusy.
func (h *Handler) Regenerate(ctx context.Context) (generator.Result, error) {
	if h.regenerate == nil {
		return generator.Result{}, errors.New("regeneration not configured")
	}
	if !h.regenMu.TryLock() {
		return generator.Result{}, ErrBusy
	}
	defer h.regenMu.Unlock()

	res, err := h.regenerate(ctx)
	if err != nil {
		return res, err
	}
	h.data.Publish(res.RunID, res.Records)
	return res, nil
}

type listResponse struct {
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Items  []types.PropertyRecord `json:"items"`
}

// intQuery parses an optional integer query parameter.
func intQuery(c *gin.Context, name string) (int, bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, errors.New(name + " must be an integer")
	}
	return v, true, nil
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// List returns the filtered, paginated batch.
func (h *Handler) List(c *gin.Context) {
	b := h.data.snapshot()

	var filters []func(types.PropertyRecord) bool
	if t := c.Query("type"); t != "" {
		pt := types.PropertyType(t)
		if !pt.Valid() {
			badRequest(c, errors.New("unknown property type "+strconv.Quote(t)))
			return
		}
		filters = append(filters, func(r types.PropertyRecord) bool { return r.Type == pt })
	}
	for _, f := range []struct {
		name string
		get  func(types.PropertyRecord) int
	}{
		{"municipalityId", func(r types.PropertyRecord) int { return r.MunicipalityID }},
		{"neighborhoodId", func(r types.PropertyRecord) int { return r.NeighborhoodID }},
		{"sectorId", func(r types.PropertyRecord) int { return r.SectorID }},
	} {
		v, ok, err := intQuery(c, f.name)
		if err != nil {
			badRequest(c, err)
			return
		}
		if ok {
			get := f.get
			filters = append(filters, func(r types.PropertyRecord) bool { return get(r) == v })
		}
	}
	if g := c.Query("gridId"); g != "" {
		filters = append(filters, func(r types.PropertyRecord) bool { return r.GridKey() == g })
	}

	limit, ok, err := intQuery(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	if !ok {
		limit = defaultLimit
	}
	if limit <= 0 || limit > maxLimit {
		badRequest(c, errors.New("limit must be between 1 and "+strconv.Itoa(maxLimit)))
		return
	}
	offset, _, err := intQuery(c, "offset")
	if err != nil {
		badRequest(c, err)
		return
	}
	if offset < 0 {
		badRequest(c, errors.New("offset must not be negative"))
		return
	}

	matched := make([]types.PropertyRecord, 0)
next:
	for _, r := range b.records {
		for _, keep := range filters {
			if !keep(r) {
				continue next
			}
		}
		matched = append(matched, r)
	}

	resp := listResponse{Total: len(matched), Limit: limit, Offset: offset, Items: []types.PropertyRecord{}}
	if offset < len(matched) {
		resp.Items = matched[offset:min(offset+limit, len(matched))]
	}
	c.JSON(http.StatusOK, resp)
}

// Get returns one record by id.
func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		badRequest(c, errors.New("id must be an integer"))
		return
	}
	b := h.data.snapshot()
	i, ok := b.byID[id]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "property not found"})
		return
	}
	c.JSON(http.StatusOK, b.records[i])
}

// ByGrid returns every record generated on one grid square.
func (h *Handler) ByGrid(c *gin.Context) {
	b := h.data.snapshot()
	idx := b.byGrid[c.Param("usng")]
	out := make([]types.PropertyRecord, 0, len(idx))
	for _, i := range idx {
		out = append(out, b.records[i])
	}
	c.JSON(http.StatusOK, out)
}

// Summary returns batch statistics.
func (h *Handler) Summary(c *gin.Context) {
	b := h.data.snapshot()
	c.JSON(http.StatusOK, gin.H{
		"runId":       b.runID,
		"generatedAt": b.generatedAt,
		"summary":     b.summary,
	})
}

// Undervalued lists records valued well below their neighborhood.
func (h *Handler) Undervalued(c *gin.Context) {
	b := h.data.snapshot()
	out := b.undervalued
	if out == nil {
		out = []generator.UndervaluedResult{}
	}
	c.JSON(http.StatusOK, out)
}

type propertyType struct {
	ID   int                `json:"id"`
	Name types.PropertyType `json:"name"`
}

// Types lists the property categories with their 1-based ids.
func (h *Handler) Types(c *gin.Context) {
	out := make([]propertyType, len(types.PropertyTypes))
	for i, pt := range types.PropertyTypes {
		out[i] = propertyType{ID: i + 1, Name: pt}
	}
	c.JSON(http.StatusOK, out)
}

// TriggerRegenerate regenerates synchronously and reports the new run.
func (h *Handler) TriggerRegenerate(c *gin.Context) {
	if h.regenerate == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "regeneration not configured"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Minute)
	defer cancel()

	res, err := h.Regenerate(ctx)
	if err != nil {
		status := http.StatusInternalServerError
		var inputErr *types.InputError
		var storageErr *types.StorageError
		switch {
		case errors.Is(err, ErrBusy):
			status = http.StatusConflict
		case errors.As(err, &inputErr):
			status = http.StatusUnprocessableEntity
		case errors.As(err, &storageErr):
			status = http.StatusBadGateway
		}
		h.logger.Error("regeneration failed", zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"runId":      res.RunID,
		"records":    len(res.Records),
		"durationMs": res.Duration.Milliseconds(),
	})
}
