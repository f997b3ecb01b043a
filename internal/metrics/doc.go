// Package metrics collects distribution statistics for a benchmark.
//
// # Outcome Distribution
//
// [OutcomeCollector] folds trial outcomes into HDR histograms so percentiles of
// peak bed usage, deaths and trial length can be reported without retaining
// individual outcomes:
//
//	collector := metrics.NewOutcomeCollector()
//	collector.Record(outcome)
//	dist := collector.Distribution()
//
// # Timing
//
// [Timing] summarises repeated wall-clock measurements of one benchmark
// configuration:
//
//	var timing metrics.Timing
//	timing.Record(elapsed)
//	stats := timing.Stats()
//
// # Thread Safety
//
// Both collectors guard their state with a mutex and may be fed from several
// goroutines. The parallel runner never uses them on its hot path; they serve
// the sequential baseline and the benchmark driver.
package metrics
