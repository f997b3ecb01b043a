package runner

import "time"

const (
	// DefaultTimeout bounds the wait for a parallel run when Options.Timeout is unset.
	DefaultTimeout = time.Hour

	defaultProgressInterval = 250 * time.Millisecond
)

// Options configure the Parallel runner.
type Options struct {
	Workers          int                           // number of worker goroutines, one shard each
	Timeout          time.Duration                 // bounded wait for the whole pool (0 means DefaultTimeout)
	NewAccumulator   func(workers int) Accumulator // optional; defaults to NewAtomicAccumulator
	OnProgress       func(done, total int64)       // optional; called from worker goroutines
	ProgressInterval time.Duration                 // minimum gap between OnProgress calls per worker
}

func (o *Options) normalize() {
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.Timeout <= 0 {
		o.Timeout = DefaultTimeout
	}
	if o.NewAccumulator == nil {
		o.NewAccumulator = func(int) Accumulator { return NewAtomicAccumulator() }
	}
	if o.ProgressInterval <= 0 {
		o.ProgressInterval = defaultProgressInterval
	}
}
