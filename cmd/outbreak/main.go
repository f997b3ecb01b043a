package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/torosent/outbreak/internal/bench"
	"github.com/torosent/outbreak/internal/config"
	"github.com/torosent/outbreak/internal/logging"
	"github.com/torosent/outbreak/internal/output"
	"github.com/torosent/outbreak/internal/runner"
	"github.com/torosent/outbreak/internal/store"
	"github.com/torosent/outbreak/internal/threshold"
	"github.com/torosent/outbreak/internal/tracing"
)

const (
	progressInterval = time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	loader := config.NewLoader()
	cfg, err := loader.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelpRequested) {
			return nil
		}
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	thresholds, err := threshold.ParseMultiple(cfg.Thresholds)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat, stderr)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tp, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Warn("tracing shutdown failed", zap.Error(err))
		}
	}()

	var progress *bench.Progress
	stopProgress := func() {}
	if cfg.Progress {
		progress = &bench.Progress{}
		reporter := output.NewProgressReporter(progress, progressInterval, stderr)
		reporter.Start()
		stopProgress = reporter.Stop
	}

	driver := bench.New(
		bench.WithLogger(logger),
		bench.WithTracer(tp.Tracer()),
		bench.WithProgress(progress),
	)
	report, runErr := driver.Run(ctx, planFromConfig(cfg))
	stopProgress()

	if runErr != nil {
		if report != nil && len(report.Rows) > 0 && !cfg.JSONOutput && !cfg.YAMLOutput {
			output.PrintReport(stdout, report)
		}
		return runErr
	}

	results := threshold.NewEvaluator(thresholds).Evaluate(report)

	switch {
	case cfg.JSONOutput:
		if err := output.PrintJSONReport(stdout, report, results); err != nil {
			return err
		}
	case cfg.YAMLOutput:
		if err := output.PrintYAMLReport(stdout, report, results); err != nil {
			return err
		}
	default:
		output.PrintReport(stdout, report)
		output.PrintThresholdResults(stdout, results)
	}

	if err := writeArtifacts(ctx, cfg, report, results, logger); err != nil {
		return err
	}

	if failed := threshold.Failed(results); failed > 0 {
		return fmt.Errorf("%d of %d thresholds failed", failed, len(results))
	}
	return nil
}

func planFromConfig(cfg *config.Config) bench.Plan {
	return bench.Plan{
		Params:         cfg.Params(),
		Trials:         cfg.Trials,
		Workers:        cfg.Workers,
		Seed:           cfg.Seed,
		Timeout:        cfg.Timeout,
		Accumulator:    runner.AccumulatorKind(cfg.Accumulator),
		SkipSequential: cfg.SkipSequential,
		Verify:         cfg.Verify,
		Repeat:         cfg.Repeat,
	}
}

// writeArtifacts writes the optional CSV and HTML files and appends the run
// to the results database.
func writeArtifacts(ctx context.Context, cfg *config.Config, report *bench.Report, results []threshold.Result, logger *zap.Logger) error {
	if cfg.CSVOutput != "" {
		if err := output.WriteCSV(cfg.CSVOutput, report); err != nil {
			return err
		}
		logger.Info("results saved", zap.String("format", "csv"), zap.String("path", cfg.CSVOutput))
	}

	if cfg.HTMLOutput != "" {
		if err := writeHTML(cfg.HTMLOutput, report, results); err != nil {
			return err
		}
		logger.Info("results saved", zap.String("format", "html"), zap.String("path", cfg.HTMLOutput))
	}

	if cfg.ResultsDB != "" {
		db, err := store.Open(cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.SaveReport(ctx, report); err != nil {
			return fmt.Errorf("save results: %w", err)
		}
		logger.Info("results saved", zap.String("format", "sqlite"), zap.String("path", cfg.ResultsDB))
	}
	return nil
}

func writeHTML(path string, report *bench.Report, results []threshold.Result) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create html report: %w", err)
	}
	if err := output.GenerateHTMLReport(f, report, results); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
