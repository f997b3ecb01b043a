// Package runner executes batches of epidemic trials, either sequentially on a
// single random stream or partitioned across a fixed pool of workers.
//
// The runner package provides:
//   - A sequential runner that drives the trial model on one seeded stream
//   - A parallel runner with static, contiguous sharding of trial indices
//   - Per-worker random streams seeded with baseSeed + worker index
//   - Lock-free aggregation of running totals
//   - A bounded wait for pool completion
//
// # Basic Usage
//
// Run trials sequentially and keep every outcome:
//
//	outcomes := runner.RunSequential(params, 42, 1000)
//	totals := runner.Summarize(outcomes)
//
// Run the same number of trials across eight workers:
//
//	p := runner.New(runner.Options{
//		Workers: 8,
//		Timeout: time.Hour,
//	})
//	result, err := p.Run(ctx, params, 42, 1_000_000)
//
// # Reproducibility
//
// Worker i owns a stream seeded with baseSeed+i and runs the trials of shard i
// in order, exactly as [Sequential] would. The totals of a parallel run
// therefore equal the sum of one sequential run per shard; see [ReplayShards].
// Changing the worker count changes the shards and hence the totals.
//
// # Accumulators
//
// Outcomes are folded into an [Accumulator]:
//   - [AtomicAccumulator]: three shared counters updated with atomic adds
//   - [ShardedAccumulator]: one padded slot per worker, reduced on read
//
// # Error Handling
//
// A run that does not finish within [Options.Timeout] fails with a
// [*TimeoutError], which matches [ErrPoolTimeout]:
//
//	if errors.Is(err, runner.ErrPoolTimeout) {
//		// the pool was abandoned; no totals are reported
//	}
//
// A panicking worker fails the run with a [*WorkerPanicError]. Workers only
// check for failure between trials, never in the middle of one.
package runner
