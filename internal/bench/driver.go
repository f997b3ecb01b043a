package bench

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/torosent/outbreak/internal/epidemic"
	"github.com/torosent/outbreak/internal/metrics"
	"github.com/torosent/outbreak/internal/runner"
	"github.com/torosent/outbreak/internal/tracing"
)

// checkEvery is how many baseline trials run between cancellation checks and
// progress updates.
const checkEvery = 1024

// Plan describes one benchmark sweep.
type Plan struct {
	Params         epidemic.Params
	Trials         int
	Workers        []int
	Seed           int64
	Timeout        time.Duration
	Accumulator    runner.AccumulatorKind
	SkipSequential bool
	Verify         bool
	// Repeat runs every configuration this many times; rows report the
	// median elapsed time. Values below 1 mean 1.
	Repeat int
}

func (p *Plan) normalize() {
	if p.Repeat < 1 {
		p.Repeat = 1
	}
	if p.Timeout <= 0 {
		p.Timeout = runner.DefaultTimeout
	}
	if p.Accumulator == "" {
		p.Accumulator = runner.AccumulatorAtomic
	}
}

// Driver runs benchmark sweeps. It is safe to reuse but not to share between
// concurrent sweeps when a Progress is attached.
type Driver struct {
	logger   *zap.Logger
	tracer   trace.Tracer
	progress *Progress
	now      func() time.Time
}

type Option func(*Driver)

func WithLogger(logger *zap.Logger) Option {
	return func(d *Driver) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(d *Driver) {
		if tracer != nil {
			d.tracer = tracer
		}
	}
}

// WithProgress publishes per-run progress to p.
func WithProgress(p *Progress) Option {
	return func(d *Driver) {
		d.progress = p
	}
}

func New(opts ...Option) *Driver {
	d := &Driver{
		logger: zap.NewNop(),
		tracer: noop.NewTracerProvider().Tracer("outbreak"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run executes the sequential baseline (unless skipped) and one parallel run
// per worker count. On failure the report holds the rows completed so far.
func (d *Driver) Run(ctx context.Context, plan Plan) (*Report, error) {
	plan.normalize()
	report := &Report{
		RunID:       ulid.Make().String(),
		StartedAt:   d.now(),
		Params:      plan.Params,
		Seed:        plan.Seed,
		Trials:      plan.Trials,
		Accumulator: string(plan.Accumulator),
	}
	if plan.Trials < 0 {
		return report, fmt.Errorf("trials must be >= 0, got %d", plan.Trials)
	}
	newAcc, ok := runner.AccumulatorFactory(plan.Accumulator)
	if !ok {
		return report, fmt.Errorf("unknown accumulator %q", plan.Accumulator)
	}

	logger := d.logger.With(zap.String("run_id", report.RunID))
	logger.Info("benchmark started",
		zap.Int("trials", plan.Trials),
		zap.Ints("workers", plan.Workers),
		zap.Int64("seed", plan.Seed),
		zap.String("accumulator", string(plan.Accumulator)),
		zap.Int("repeat", plan.Repeat))

	ctx, span := tracing.StartBenchmarkSpan(ctx, d.tracer, report.RunID, plan.Seed, plan.Trials)
	err := d.sweep(ctx, logger, plan, newAcc, report)
	tracing.EndSpan(span, err, attribute.Int("outbreak.rows", len(report.Rows)))

	if err != nil {
		logger.Error("benchmark failed", zap.Int("rows_completed", len(report.Rows)), zap.Error(err))
		return report, err
	}
	logger.Info("benchmark finished", zap.Int("rows", len(report.Rows)))
	return report, nil
}

func (d *Driver) sweep(ctx context.Context, logger *zap.Logger, plan Plan, newAcc func(int) runner.Accumulator, report *Report) error {
	var baseline time.Duration
	if !plan.SkipSequential {
		row, dist, err := d.runSequential(ctx, plan)
		if err != nil {
			return fmt.Errorf("sequential baseline: %w", err)
		}
		report.Rows = append(report.Rows, row)
		report.Distribution = &dist
		baseline = row.Elapsed
		logger.Info("baseline complete",
			zap.Duration("elapsed", row.Elapsed),
			zap.Int64("avg_deceased", row.AvgDeceased),
			zap.Int64("avg_peak_beds", row.AvgPeakBeds),
			zap.Int64("capacity_exceeded", row.CapacityExceeded))
	}

	for _, workers := range plan.Workers {
		row, err := d.runParallel(ctx, plan, workers, newAcc, baseline)
		if err != nil {
			return fmt.Errorf("parallel run with %d workers: %w", workers, err)
		}
		report.Rows = append(report.Rows, row)
		logger.Info("parallel run complete",
			zap.Int("workers", workers),
			zap.Duration("elapsed", row.Elapsed),
			zap.Float64("speedup", row.Speedup),
			zap.Bool("verified", row.Verified))
	}
	return nil
}

func (d *Driver) runSequential(ctx context.Context, plan Plan) (row Row, dist metrics.Distribution, err error) {
	ctx, span := tracing.StartRunSpan(ctx, d.tracer, string(ModeSequential), 1, plan.Trials)
	defer func() {
		tracing.EndSpan(span, err, attribute.Int64("outbreak.time_ms", row.TimeMs))
	}()

	var timing metrics.Timing
	var totals runner.Totals
	for rep := 0; rep < plan.Repeat; rep++ {
		acc := runner.NewAtomicAccumulator()
		collector := metrics.NewOutcomeCollector()
		d.progress.begin(string(ModeSequential), plan.Trials)

		start := time.Now()
		if err := d.baseline(ctx, plan, acc, collector); err != nil {
			return Row{}, metrics.Distribution{}, err
		}
		timing.Record(time.Since(start))

		got := acc.Totals()
		if rep > 0 && got != totals {
			return Row{}, metrics.Distribution{}, &VerificationError{Workers: 1, Got: got, Want: totals, Reason: "repetition differs"}
		}
		totals = got
		dist = collector.Distribution()
	}

	row = newRow(ModeSequential, 1, plan.Trials, totals, timing.Stats())
	row.Speedup = 1
	return row, dist, nil
}

// baseline runs every trial on one stream seeded with plan.Seed.
func (d *Driver) baseline(ctx context.Context, plan Plan, acc runner.Accumulator, collector *metrics.OutcomeCollector) error {
	seq := runner.NewSequential(plan.Params, plan.Seed)
	stop := ctx.Done()
	for i := 0; i < plan.Trials; i++ {
		if i%checkEvery == 0 {
			select {
			case <-stop:
				return fmt.Errorf("sequential run aborted: %w", ctx.Err())
			default:
			}
			d.progress.update(int64(i), 0)
		}
		o := seq.Next()
		acc.Add(0, o)
		collector.Record(o)
	}
	d.progress.update(int64(plan.Trials), 0)
	return nil
}

func (d *Driver) runParallel(ctx context.Context, plan Plan, workers int, newAcc func(int) runner.Accumulator, baseline time.Duration) (row Row, err error) {
	ctx, span := tracing.StartRunSpan(ctx, d.tracer, string(ModeParallel), workers, plan.Trials)
	defer func() {
		tracing.EndSpan(span, err,
			attribute.Int64("outbreak.time_ms", row.TimeMs),
			attribute.Float64("outbreak.speedup", row.Speedup))
	}()

	opts := runner.Options{
		Workers:        workers,
		Timeout:        plan.Timeout,
		NewAccumulator: newAcc,
	}
	if d.progress != nil {
		opts.OnProgress = d.progress.update
	}
	par := runner.New(opts)

	var timing metrics.Timing
	var totals runner.Totals
	for rep := 0; rep < plan.Repeat; rep++ {
		d.progress.begin(fmt.Sprintf("%d workers", workers), plan.Trials)
		res, err := par.Run(ctx, plan.Params, plan.Seed, plan.Trials)
		if err != nil {
			return Row{}, err
		}
		timing.Record(res.Duration)
		if rep > 0 && res.Totals != totals {
			return Row{}, &VerificationError{Workers: workers, Got: res.Totals, Want: totals, Reason: "repetition differs"}
		}
		totals = res.Totals
	}

	row = newRow(ModeParallel, workers, plan.Trials, totals, timing.Stats())
	row.Speedup = speedup(baseline, row.Elapsed)

	if plan.Verify {
		want := runner.ReplayShards(plan.Params, plan.Seed, workers, plan.Trials)
		if totals != want {
			return Row{}, &VerificationError{Workers: workers, Got: totals, Want: want, Reason: "shard replay"}
		}
		row.Verified = true
	}
	return row, nil
}
