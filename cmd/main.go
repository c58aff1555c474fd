package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"propgen/internal/config"
	"propgen/internal/generator"
	"propgen/internal/gridstore"
	"propgen/internal/metrics"
	"propgen/internal/recordstore"
	"propgen/internal/types"
	"propgen/pkg/logger"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitInput   = 2
	exitStorage = 3
)

const usageText = `usage:
  propgen [generate] [-in LOC] [-out LOC] [-count N] [-table NAME] [-truncate] [-env FILE] [-quiet]
  propgen serve [-in LOC] [-out LOC] [-count N] [-port P] [-schedule CRON] [-env FILE]
  propgen browse [-in FILE] [-undervalued] [-picks] [-env FILE]
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	cmd := "generate"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		cmd, args = args[0], args[1:]
	}

	switch cmd {
	case "generate":
		return runGenerate(args)
	case "serve":
		return runServe(args)
	case "browse":
		return runBrowse(args)
	case "help":
		fmt.Print(usageText)
		return exitOK
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n%s", cmd, usageText)
		return exitFailure
	}
}

// options collects every flag the subcommands accept. Only flags that were
// actually passed override the environment.
type options struct {
	envFile     string
	input       string
	output      string
	count       int
	table       string
	truncate    bool
	quiet       bool
	port        string
	schedule    string
	undervalued bool
	picks       bool
}

func bindCommon(fs *flag.FlagSet, o *options) {
	fs.StringVar(&o.envFile, "env", "", "env file to load (default .env when present)")
	fs.StringVar(&o.input, "in", "", "grid input location (file, .shp, s3://, arcgis+https://)")
	fs.StringVar(&o.output, "out", "", "output location (file, sqlite:, postgres://, oracle:, mongodb://, bolt:, dynamodb:, sheets:, s3://)")
	fs.IntVar(&o.count, "count", 0, "number of records to generate")
}

// parse reports false with the exit code to use when the command should stop.
func parse(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK, false
		}
		return exitFailure, false
	}
	if fs.NArg() > 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		return exitFailure, false
	}
	return exitOK, true
}

func flagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func loadConfig(fs *flag.FlagSet, o options) (*config.Config, error) {
	cfg, err := config.Load(o.envFile)
	if err != nil {
		return nil, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.Generate.Input = o.input
		case "out":
			cfg.Generate.Output = o.output
		case "count":
			cfg.Generate.Count = o.count
		case "table":
			cfg.Generate.Table = o.table
		case "truncate":
			cfg.Generate.Truncate = o.truncate
		case "port":
			cfg.Server.Port = o.port
		case "schedule":
			cfg.Server.RefreshSchedule = o.schedule
		case "quiet":
			if o.quiet {
				cfg.Log.Level = "warn"
			}
		}
	})
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// app is the wiring shared by generate and serve.
type app struct {
	cfg     *config.Config
	log     *zap.Logger
	metrics *metrics.Metrics
	runner  *generator.Runner
}

func setup(fs *flag.FlagSet, o options) (*app, error) {
	cfg, err := loadConfig(fs, o)
	if err != nil {
		return nil, err
	}
	// Validate has already checked the level and format
	log := logger.Must(logger.New(cfg.Log.Level, cfg.Log.Format))
	zap.ReplaceGlobals(log)

	m := metrics.New()
	return &app{
		cfg:     cfg,
		log:     log,
		metrics: m,
		runner:  generator.NewRunner(nil, logger.Named(log, "generator"), m),
	}, nil
}

func (a *app) close() {
	_ = a.log.Sync()
}

// job wires the grid source and, unless output is empty, the record sink.
func (a *app) job(output string) (generator.Job, error) {
	src, err := gridstore.Open(a.cfg.Generate.Input, gridstore.Options{
		USNGField:      a.cfg.Grid.USNGField,
		ArcGISPageSize: a.cfg.Grid.ArcGISPageSize,
		ArcGISEnvelope: a.cfg.Grid.ArcGISEnvelope,
		S3:             a.cfg.S3,
		Logger:         logger.Named(a.log, "gridstore"),
	})
	if err != nil {
		return generator.Job{}, err
	}

	job := generator.Job{
		Input:  a.cfg.Generate.Input,
		Source: src,
		Output: recordstore.Redact(output),
		Count:  a.cfg.Generate.Count,
	}
	if output == "" {
		return job, nil
	}

	if err := promptOraclePassword(output, &a.cfg.Oracle); err != nil {
		return generator.Job{}, err
	}
	opts := recordstore.Options{
		Table:             a.cfg.Generate.Table,
		Truncate:          a.cfg.Generate.Truncate,
		Oracle:            a.cfg.Oracle,
		AWS:               a.cfg.S3,
		SheetsCredentials: a.cfg.Sheets.CredentialsPath,
		Logger:            logger.Named(a.log, "recordstore"),
	}
	job.Open = func(ctx context.Context, runID string) (generator.RecordSink, error) {
		o := opts
		o.RunID = runID
		return recordstore.Open(ctx, output, o)
	}
	return job, nil
}

func runGenerate(args []string) int {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	var o options
	bindCommon(fs, &o)
	fs.StringVar(&o.table, "table", "", "table, collection or bucket name for database outputs")
	fs.BoolVar(&o.truncate, "truncate", false, "replace previously stored records")
	fs.BoolVar(&o.quiet, "quiet", false, "only log warnings and skip the summary")
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

	job, err := a.job(a.cfg.Generate.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to prepare run: %v\n", err)
		return exitCode(err)
	}

	res, err := a.runner.Run(ctx, job)
	if werr := a.metrics.WriteTextfile(a.cfg.Metrics.Textfile); werr != nil {
		a.log.Warn("metrics not written", zap.Error(werr))
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "generate failed: %v\n", err)
		return exitCode(err)
	}

	if !o.quiet {
		renderRun(os.Stdout, res, generator.Summarize(res.Records))
	}
	return exitOK
}

// exitCode maps an error to the process exit status.
func exitCode(err error) int {
	var inputErr *types.InputError
	var storageErr *types.StorageError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &inputErr):
		return exitInput
	case errors.As(err, &storageErr):
		return exitStorage
	default:
		return exitFailure
	}
}
