package bench

import (
	"strconv"
	"time"

	"github.com/torosent/outbreak/internal/epidemic"
	"github.com/torosent/outbreak/internal/metrics"
	"github.com/torosent/outbreak/internal/runner"
)

// Mode distinguishes the sequential baseline from parallel runs.
type Mode string

const (
	ModeSequential Mode = "sequential"
	ModeParallel   Mode = "parallel"
)

// Row is one line of the benchmark table.
type Row struct {
	Mode    Mode          `json:"mode" yaml:"mode"`
	Workers int           `json:"workers" yaml:"workers"`
	Trials  int           `json:"trials" yaml:"trials"`
	Elapsed time.Duration `json:"-" yaml:"-"`
	TimeMs  int64         `json:"time_ms" yaml:"time_ms"`
	// Speedup is baseline elapsed over this row's elapsed; 0 when there is no
	// baseline to compare against.
	Speedup          float64             `json:"speedup" yaml:"speedup"`
	Totals           runner.Totals       `json:"totals" yaml:"totals"`
	AvgDeceased      int64               `json:"avg_deceased" yaml:"avg_deceased"`
	AvgPeakBeds      int64               `json:"avg_peak_beds" yaml:"avg_peak_beds"`
	CapacityExceeded int64               `json:"capacity_exceeded" yaml:"capacity_exceeded"`
	Timing           metrics.TimingStats `json:"timing" yaml:"timing"`
	Verified         bool                `json:"verified" yaml:"verified"`
}

// Label is the first CSV column: the worker count, or "1 (Sequential)" for
// the baseline.
func (r Row) Label() string {
	if r.Mode == ModeSequential {
		return "1 (Sequential)"
	}
	return strconv.Itoa(r.Workers)
}

// Report is the outcome of one benchmark sweep.
type Report struct {
	RunID       string          `json:"run_id" yaml:"run_id"`
	StartedAt   time.Time       `json:"started_at" yaml:"started_at"`
	Params      epidemic.Params `json:"params" yaml:"params"`
	Seed        int64           `json:"seed" yaml:"seed"`
	Trials      int             `json:"trials" yaml:"trials"`
	Accumulator string          `json:"accumulator" yaml:"accumulator"`
	Rows        []Row           `json:"rows" yaml:"rows"`
	// Distribution describes the baseline's per-trial outcomes. It is nil
	// when the baseline was skipped.
	Distribution *metrics.Distribution `json:"distribution,omitempty" yaml:"distribution,omitempty"`
}

// Baseline returns the sequential row, if present.
func (r *Report) Baseline() (Row, bool) {
	for _, row := range r.Rows {
		if row.Mode == ModeSequential {
			return row, true
		}
	}
	return Row{}, false
}

// Parallel returns the parallel row for workers, if present.
func (r *Report) Parallel(workers int) (Row, bool) {
	for _, row := range r.Rows {
		if row.Mode == ModeParallel && row.Workers == workers {
			return row, true
		}
	}
	return Row{}, false
}

func newRow(mode Mode, workers, trials int, totals runner.Totals, timing metrics.TimingStats) Row {
	row := Row{
		Mode:             mode,
		Workers:          workers,
		Trials:           trials,
		Elapsed:          timing.P50,
		TimeMs:           timing.P50.Milliseconds(),
		Totals:           totals,
		CapacityExceeded: totals.CapacityExceeded,
		Timing:           timing,
	}
	if trials > 0 {
		row.AvgDeceased = totals.Deceased / int64(trials)
		row.AvgPeakBeds = totals.PeakBeds / int64(trials)
	}
	return row
}

func speedup(baseline, elapsed time.Duration) float64 {
	if baseline <= 0 || elapsed <= 0 {
		return 0
	}
	return float64(baseline) / float64(elapsed)
}
