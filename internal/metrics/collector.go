package metrics

import (
	"sync"

	"github.com/HdrHistogram/hdrhistogram-go"

	"github.com/torosent/outbreak/internal/epidemic"
)

// highestTrackable bounds recorded counts; larger values are clamped.
const highestTrackable = 1_000_000_000

// OutcomeCollector records per-trial outcomes in a thread-safe manner.
type OutcomeCollector struct {
	mu       sync.Mutex
	peakBeds *series
	deceased *series
	daysRun  *series
	exceeded int64
}

// Summary describes one recorded series.
type Summary struct {
	Min  int64   `json:"min" yaml:"min"`
	Max  int64   `json:"max" yaml:"max"`
	Mean float64 `json:"mean" yaml:"mean"`
	P50  int64   `json:"p50" yaml:"p50"`
	P90  int64   `json:"p90" yaml:"p90"`
	P99  int64   `json:"p99" yaml:"p99"`
}

// Distribution is the aggregated view of every recorded outcome.
type Distribution struct {
	Trials               int64   `json:"trials" yaml:"trials"`
	PeakBeds             Summary `json:"peak_beds" yaml:"peak_beds"`
	Deceased             Summary `json:"deceased" yaml:"deceased"`
	DaysRun              Summary `json:"days_run" yaml:"days_run"`
	CapacityExceededRate float64 `json:"capacity_exceeded_rate" yaml:"capacity_exceeded_rate"`
}

func NewOutcomeCollector() *OutcomeCollector {
	return &OutcomeCollector{
		peakBeds: newSeries(),
		deceased: newSeries(),
		daysRun:  newSeries(),
	}
}

// Record adds one outcome.
func (c *OutcomeCollector) Record(o epidemic.Outcome) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.peakBeds.record(int64(o.PeakBeds))
	c.deceased.record(int64(o.Deceased))
	c.daysRun.record(int64(o.DaysRun))
	if o.CapacityExceeded {
		c.exceeded++
	}
}

// Distribution computes the current aggregated statistics.
func (c *OutcomeCollector) Distribution() Distribution {
	c.mu.Lock()
	defer c.mu.Unlock()

	d := Distribution{
		Trials:   c.peakBeds.count,
		PeakBeds: c.peakBeds.summary(),
		Deceased: c.deceased.summary(),
		DaysRun:  c.daysRun.summary(),
	}
	if d.Trials > 0 {
		d.CapacityExceededRate = float64(c.exceeded) / float64(d.Trials)
	}
	return d
}

// series tracks exact min/max/sum next to a histogram for percentiles.
type series struct {
	hist  *hdrhistogram.Histogram
	count int64
	sum   int64
	min   int64
	max   int64
}

func newSeries() *series {
	return &series{hist: hdrhistogram.New(1, highestTrackable, 3)}
}

func (s *series) record(v int64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.count++
	s.sum += v

	if v < 0 {
		v = 0
	}
	if v > s.hist.HighestTrackableValue() {
		v = s.hist.HighestTrackableValue()
	}
	_ = s.hist.RecordValue(v)
}

func (s *series) summary() Summary {
	if s.count == 0 {
		return Summary{}
	}
	return Summary{
		Min:  s.min,
		Max:  s.max,
		Mean: float64(s.sum) / float64(s.count),
		P50:  s.hist.ValueAtQuantile(50),
		P90:  s.hist.ValueAtQuantile(90),
		P99:  s.hist.ValueAtQuantile(99),
	}
}
