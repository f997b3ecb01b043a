package metrics

import (
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"
)

// Timing records repeated wall-clock measurements. The zero value is ready to use.
type Timing struct {
	mu      sync.Mutex
	hist    *hdrhistogram.Histogram
	samples int64
	sum     time.Duration
	min     time.Duration
	max     time.Duration
}

// TimingStats summarises the recorded measurements.
type TimingStats struct {
	Samples int64         `json:"samples" yaml:"samples"`
	Min     time.Duration `json:"-" yaml:"-"`
	Max     time.Duration `json:"-" yaml:"-"`
	Mean    time.Duration `json:"-" yaml:"-"`
	P50     time.Duration `json:"-" yaml:"-"`

	MinMs  float64 `json:"min_ms" yaml:"min_ms"`
	MaxMs  float64 `json:"max_ms" yaml:"max_ms"`
	MeanMs float64 `json:"mean_ms" yaml:"mean_ms"`
	P50Ms  float64 `json:"p50_ms" yaml:"p50_ms"`
}

// Record adds one measurement.
func (t *Timing) Record(d time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.hist == nil {
		// Track from 1µs up to 24h with 3 significant figures.
		t.hist = hdrhistogram.New(1, int64(24*time.Hour/time.Microsecond), 3)
	}
	us := d.Microseconds()
	if us < t.hist.LowestTrackableValue() {
		us = t.hist.LowestTrackableValue()
	}
	if us > t.hist.HighestTrackableValue() {
		us = t.hist.HighestTrackableValue()
	}
	_ = t.hist.RecordValue(us)

	if t.samples == 0 || d < t.min {
		t.min = d
	}
	if d > t.max {
		t.max = d
	}
	t.samples++
	t.sum += d
}

// Stats computes the summary. Min, max and mean are exact; the median comes
// from the histogram except for a single sample, where it equals that sample.
func (t *Timing) Stats() TimingStats {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.samples == 0 {
		return TimingStats{}
	}
	stats := TimingStats{
		Samples: t.samples,
		Min:     t.min,
		Max:     t.max,
		Mean:    t.sum / time.Duration(t.samples),
	}
	if t.samples == 1 {
		stats.P50 = t.min
	} else {
		stats.P50 = time.Duration(t.hist.ValueAtQuantile(50)) * time.Microsecond
	}

	stats.MinMs = toMillis(stats.Min)
	stats.MaxMs = toMillis(stats.Max)
	stats.MeanMs = toMillis(stats.Mean)
	stats.P50Ms = toMillis(stats.P50)
	return stats
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
