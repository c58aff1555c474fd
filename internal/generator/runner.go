package generator

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"propgen/internal/metrics"
	"propgen/internal/types"
)

// GridSource yields the grid dataset a batch samples from.
type GridSource interface {
	Load(ctx context.Context) ([]types.GridEntry, error)
}

// RecordSink persists a finished batch.
type RecordSink interface {
	Write(ctx context.Context, records []types.PropertyRecord) error
	Close() error
}

// SinkOpener opens the destination for one run. It is only called once the
// batch has been generated, so a failed generation never creates output.
type SinkOpener func(ctx context.Context, runID string) (RecordSink, error)

// Job names the input, output and size of one run.
type Job struct {
	Input  string
	Source GridSource
	Output string
	Open   SinkOpener // nil keeps the batch in memory only
	Count  int
}

// Result describes a completed run.
type Result struct {
	RunID       string
	Input       string
	Output      string
	GridEntries int
	Records     []types.PropertyRecord
	Duration    time.Duration
}

// Runner loads, generates and writes batches. It owns its random source and
// is not safe for concurrent use.
type Runner struct {
	rng     Source
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewRunner wires a runner. A nil rng gets a freshly seeded one; a nil logger
// discards output; nil metrics are skipped.
func NewRunner(rng Source, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if rng == nil {
		rng = NewRand()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{rng: rng, logger: logger, metrics: m}
}

// Run executes one job. Failures reading or validating the grid are
// *types.InputError; failures persisting the batch are *types.StorageError.
func (r *Runner) Run(ctx context.Context, job Job) (Result, error) {
	start := time.Now()
	res := Result{RunID: uuid.NewString(), Input: job.Input, Output: job.Output}
	log := r.logger.With(zap.String("run_id", res.RunID))

	res, err := r.run(ctx, job, res, log)
	res.Duration = time.Since(start)
	if err != nil {
		r.metrics.ObserveRun(metrics.ResultError, res.Duration, res.GridEntries, 0)
		log.Error("run failed", zap.Error(err), zap.Duration("duration", res.Duration))
		return res, err
	}
	r.metrics.ObserveRun(metrics.ResultSuccess, res.Duration, res.GridEntries, len(res.Records))
	log.Info("run completed",
		zap.Int("records", len(res.Records)),
		zap.String("output", job.Output),
		zap.Duration("duration", res.Duration))
	return res, nil
}

func (r *Runner) run(ctx context.Context, job Job, res Result, log *zap.Logger) (Result, error) {
	log.Info("loading grid", zap.String("input", job.Input))
	grids, err := job.Source.Load(ctx)
	if err != nil {
		return res, types.NewInputError(job.Input, err)
	}
	if err := types.ValidateGrid(grids); err != nil {
		return res, types.NewInputError(job.Input, err)
	}
	res.GridEntries = len(grids)
	log.Debug("grid loaded", zap.Int("entries", len(grids)))

	records, err := Generate(r.rng, grids, job.Count)
	if err != nil {
		return res, err
	}

	if err := ctx.Err(); err != nil {
		return res, err
	}
	if job.Open == nil {
		// in-memory only
		res.Records = records
		return res, nil
	}

	sink, err := job.Open(ctx, res.RunID)
	if err != nil {
		return res, types.NewStorageError(job.Output, err)
	}
	if err := sink.Write(ctx, records); err != nil {
		_ = sink.Close()
		return res, types.NewStorageError(job.Output, err)
	}
	if err := sink.Close(); err != nil {
		return res, types.NewStorageError(job.Output, err)
	}

	res.Records = records
	return res, nil
}
