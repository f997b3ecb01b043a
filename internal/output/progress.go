package output

import (
	"fmt"
	"io"
	"sync/atomic"
	"time"

	"github.com/torosent/outbreak/internal/bench"
)

// ProgressSource reports the run in flight.
type ProgressSource interface {
	Snapshot() bench.ProgressSnapshot
}

// ProgressReporter displays real-time progress updates.
type ProgressReporter struct {
	source   ProgressSource
	ticker   *time.Ticker
	done     chan struct{}
	finished chan struct{}
	writer   io.Writer
	active   int32
}

// NewProgressReporter creates a progress reporter that updates at the given interval.
func NewProgressReporter(source ProgressSource, interval time.Duration, writer io.Writer) *ProgressReporter {
	if writer == nil {
		writer = io.Discard
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &ProgressReporter{
		source:   source,
		ticker:   time.NewTicker(interval),
		done:     make(chan struct{}),
		finished: make(chan struct{}),
		writer:   writer,
	}
}

// Start begins displaying progress updates in a background goroutine.
func (p *ProgressReporter) Start() {
	if !atomic.CompareAndSwapInt32(&p.active, 0, 1) {
		return // already running
	}
	go p.run()
}

// Stop halts progress updates and ends the progress line.
func (p *ProgressReporter) Stop() {
	if atomic.CompareAndSwapInt32(&p.active, 1, 0) {
		close(p.done)
		p.ticker.Stop()
		<-p.finished
		fmt.Fprintln(p.writer)
	}
}

func (p *ProgressReporter) run() {
	defer close(p.finished)
	for {
		select {
		case <-p.ticker.C:
			fmt.Fprint(p.writer, formatProgress(p.source.Snapshot()))
		case <-p.done:
			return
		}
	}
}

func formatProgress(s bench.ProgressSnapshot) string {
	pct := 0.0
	if s.Total > 0 {
		pct = float64(s.Done) / float64(s.Total) * 100
	}
	line := fmt.Sprintf("\rTrials: %d/%d (%.1f%%)", s.Done, s.Total, pct)
	if s.Label != "" {
		line += " | " + s.Label
	}
	return line
}
