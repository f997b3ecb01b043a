package runner

import (
	"sync/atomic"

	"github.com/torosent/outbreak/internal/epidemic"
)

// Totals are the cross-trial aggregates of a run.
type Totals struct {
	Deceased         int64 `json:"total_deceased" yaml:"total_deceased"`
	PeakBeds         int64 `json:"total_peak_beds" yaml:"total_peak_beds"`
	CapacityExceeded int64 `json:"capacity_exceeded" yaml:"capacity_exceeded"`
}

// Add folds one outcome into t.
func (t *Totals) Add(o epidemic.Outcome) {
	t.Deceased += int64(o.Deceased)
	t.PeakBeds += int64(o.PeakBeds)
	if o.CapacityExceeded {
		t.CapacityExceeded++
	}
}

// Merge adds other into t.
func (t *Totals) Merge(other Totals) {
	t.Deceased += other.Deceased
	t.PeakBeds += other.PeakBeds
	t.CapacityExceeded += other.CapacityExceeded
}

// Accumulator folds outcomes reported by any worker into running totals.
// Add is called concurrently by different workers, but never concurrently for
// the same worker index. Only commutative additions are exposed, so the final
// totals do not depend on the order workers report in.
type Accumulator interface {
	Add(worker int, o epidemic.Outcome)
	Totals() Totals
}

// AccumulatorKind names an Accumulator implementation.
type AccumulatorKind string

const (
	AccumulatorAtomic  AccumulatorKind = "atomic"
	AccumulatorSharded AccumulatorKind = "sharded"
)

// AccumulatorFactory returns the constructor for kind. An empty kind selects
// the atomic accumulator.
func AccumulatorFactory(kind AccumulatorKind) (func(workers int) Accumulator, bool) {
	switch kind {
	case "", AccumulatorAtomic:
		return func(int) Accumulator { return NewAtomicAccumulator() }, true
	case AccumulatorSharded:
		return func(workers int) Accumulator { return NewShardedAccumulator(workers) }, true
	default:
		return nil, false
	}
}

// AtomicAccumulator keeps three shared counters updated with fetch-and-add.
// Totals may be read at any time.
type AtomicAccumulator struct {
	deceased atomic.Int64
	peakBeds atomic.Int64
	exceeded atomic.Int64
}

func NewAtomicAccumulator() *AtomicAccumulator {
	return &AtomicAccumulator{}
}

func (a *AtomicAccumulator) Add(_ int, o epidemic.Outcome) {
	a.deceased.Add(int64(o.Deceased))
	a.peakBeds.Add(int64(o.PeakBeds))
	if o.CapacityExceeded {
		a.exceeded.Add(1)
	}
}

func (a *AtomicAccumulator) Totals() Totals {
	return Totals{
		Deceased:         a.deceased.Load(),
		PeakBeds:         a.peakBeds.Load(),
		CapacityExceeded: a.exceeded.Load(),
	}
}

// slot is padded to a cache line so neighbouring workers do not false-share.
type slot struct {
	totals Totals
	_      [40]byte
}

// ShardedAccumulator gives every worker a private slot and reduces the slots
// when Totals is called. Totals must only be called once all Add calls have
// returned, e.g. after the worker pool has been joined.
type ShardedAccumulator struct {
	slots []slot
}

func NewShardedAccumulator(workers int) *ShardedAccumulator {
	if workers < 1 {
		workers = 1
	}
	return &ShardedAccumulator{slots: make([]slot, workers)}
}

func (s *ShardedAccumulator) Add(worker int, o epidemic.Outcome) {
	s.slots[worker].totals.Add(o)
}

func (s *ShardedAccumulator) Totals() Totals {
	var t Totals
	for i := range s.slots {
		t.Merge(s.slots[i].totals)
	}
	return t
}
