package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"propgen/internal/generator"
	"propgen/internal/server"
	"propgen/pkg/logger"
)

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	var o options
	bindCommon(fs, &o)
	fs.StringVar(&o.port, "port", "", "HTTP port (default APP_PORT or 8080)")
	fs.StringVar(&o.schedule, "schedule", "", "cron schedule for regeneration, e.g. @hourly")
	if code, ok := parse(fs, args); !ok {
		return code
	}

	a, err := setup(fs, o)
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		return exitFailure
	}
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// batches are mirrored to storage only when -out is given
	output := ""
	if flagSet(fs, "out") {
		output = a.cfg.Generate.Output
	}
	job, err := a.job(output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare run: %v\n", err)
		return exitCode(err)
	}

	regenerate := func(ctx context.Context) (generator.Result, error) {
		return a.runner.Run(ctx, job)
	}
	handler := server.NewHandler(server.NewDataset(), regenerate, logger.Named(a.log, "handlers"))

	if _, err := handler.Regenerate(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "initial generation failed: %v\n", err)
		return exitCode(err)
	}

	if a.cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := server.NewRouter(handler, a.metrics, logger.Named(a.log, "router"))

	if schedule := a.cfg.Server.RefreshSchedule; schedule != "" {
		sched, err := server.NewScheduler(schedule, handler, logger.Named(a.log, "scheduler"))
		if err != nil {
			fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
			return exitFailure
		}
		sched.Start()
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + a.cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 3 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("server starting", zap.String("port", a.cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.log.Error("http server crashed", zap.Error(err))
		return exitFailure
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("graceful shutdown failed", zap.Error(err))
		return exitFailure
	}
	return exitOK
}
