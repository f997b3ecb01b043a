package runner

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/torosent/outbreak/internal/epidemic"
)

// Result captures a parallel run's aggregates.
type Result struct {
	Totals   Totals
	Trials   int
	Workers  int
	Duration time.Duration
}

// Parallel partitions trials across a fixed pool of workers. A Parallel may be
// reused for several runs; each run starts and joins its own pool.
type Parallel struct {
	opt Options
}

func New(opt Options) *Parallel {
	opt.normalize()
	return &Parallel{opt: opt}
}

// Workers returns the pool size used by Run.
func (p *Parallel) Workers() int {
	return p.opt.Workers
}

// Run executes count trials and returns their totals. It blocks until every
// worker has finished its shard or the bounded wait expires. A canceled ctx
// also fails the run; in both cases no totals are returned.
func (p *Parallel) Run(ctx context.Context, params epidemic.Params, baseSeed int64, count int) (Result, error) {
	if count < 0 {
		return Result{}, fmt.Errorf("trial count must be >= 0, got %d", count)
	}
	start := time.Now()
	shards := Partition(count, p.opt.Workers)
	acc := p.opt.NewAccumulator(len(shards))

	waitCtx, cancel := context.WithTimeout(ctx, p.opt.Timeout)
	defer cancel()

	var completed atomic.Int64
	g, workerCtx := errgroup.WithContext(waitCtx)
	for _, shard := range shards {
		progress := p.newProgress(&completed, int64(count))
		g.Go(func() error {
			return runShard(workerCtx, params, baseSeed+int64(shard.Worker), shard, acc, progress)
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			if parentErr := ctx.Err(); parentErr != nil {
				return Result{}, fmt.Errorf("parallel run aborted: %w", parentErr)
			}
			if waitCtx.Err() != nil {
				return Result{}, p.timeoutError(count)
			}
			return Result{}, err
		}
	case <-waitCtx.Done():
		// Workers stop at their next trial boundary; the pool is not waited for.
		if parentErr := ctx.Err(); parentErr != nil {
			return Result{}, fmt.Errorf("parallel run aborted: %w", parentErr)
		}
		return Result{}, p.timeoutError(count)
	}

	return Result{
		Totals:   acc.Totals(),
		Trials:   count,
		Workers:  len(shards),
		Duration: time.Since(start),
	}, nil
}

func (p *Parallel) timeoutError(count int) error {
	return &TimeoutError{Workers: p.opt.Workers, Trials: count, Timeout: p.opt.Timeout}
}

func runShard(ctx context.Context, params epidemic.Params, seed int64, shard Shard, acc Accumulator, progress *progress) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &WorkerPanicError{Worker: shard.Worker, Value: r, Stack: debug.Stack()}
		}
	}()

	seq := NewSequential(params, seed)
	stop := ctx.Done()
	for i := shard.Start; i < shard.End; i++ {
		select {
		case <-stop:
			return ctx.Err()
		default:
		}
		acc.Add(shard.Worker, seq.Next())
		progress.tick()
	}
	progress.flush()
	return nil
}

// progress batches one worker's completed-trial count into the shared counter.
// A nil *progress is a no-op.
type progress struct {
	shared    *atomic.Int64
	total     int64
	notify    func(done, total int64)
	sometimes rate.Sometimes
	pending   int64
}

func (p *Parallel) newProgress(shared *atomic.Int64, total int64) *progress {
	if p.opt.OnProgress == nil {
		return nil
	}
	return &progress{
		shared:    shared,
		total:     total,
		notify:    p.opt.OnProgress,
		sometimes: rate.Sometimes{Interval: p.opt.ProgressInterval},
	}
}

func (p *progress) tick() {
	if p == nil {
		return
	}
	p.pending++
	p.sometimes.Do(p.flush)
}

func (p *progress) flush() {
	if p == nil {
		return
	}
	done := p.shared.Add(p.pending)
	p.pending = 0
	p.notify(done, p.total)
}

// RunParallel runs count trials on workers goroutines with default options and
// returns only the totals.
func RunParallel(ctx context.Context, params epidemic.Params, baseSeed int64, workers, count int) (Totals, error) {
	res, err := New(Options{Workers: workers}).Run(ctx, params, baseSeed, count)
	if err != nil {
		return Totals{}, err
	}
	return res.Totals, nil
}

// ReplayShards reproduces a parallel run single-threaded: one sequential run
// per shard, seeded with baseSeed+worker, summed in worker order.
func ReplayShards(params epidemic.Params, baseSeed int64, workers, count int) Totals {
	var totals Totals
	for _, shard := range Partition(count, workers) {
		NewSequential(params, baseSeed+int64(shard.Worker)).Run(shard.Len(), totals.Add)
	}
	return totals
}
