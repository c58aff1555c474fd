package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Scheduler regenerates the dataset on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	handler *Handler
	timeout time.Duration
	logger  *zap.Logger
}

// NewScheduler validates schedule (standard 5-field cron, or descriptors such as
// "@hourly") and registers the regeneration job. It does not start it.
func NewScheduler(schedule string, h *Handler, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{cron: cron.New(), handler: h, timeout: 2 * time.Minute, logger: logger}
	if _, err := s.cron.AddFunc(schedule, s.refresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return s, nil
}

func (s *Scheduler) Start() {
	s.logger.Info("starting scheduler")
	s.cron.Start()
}

// Stop stops scheduling and waits for a running refresh to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.handler.Regenerate(ctx)
	switch {
	case errors.Is(err, ErrBusy):
		s.logger.Warn("skipping scheduled refresh, previous run still active")
	case err != nil:
		s.logger.Error("scheduled refresh failed", zap.Error(err))
	default:
		s.logger.Info("scheduled refresh completed", zap.String("run_id", res.RunID), zap.Int("records", len(res.Records)))
	}
}
