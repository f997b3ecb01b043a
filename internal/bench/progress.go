package bench

import (
	"sync"
	"sync/atomic"
)

// Progress exposes the run in flight to a reporter goroutine. The zero value
// is ready to use and a nil *Progress ignores updates.
type Progress struct {
	mu    sync.Mutex
	label string
	done  atomic.Int64
	total atomic.Int64
}

// ProgressSnapshot is a point-in-time view of Progress.
type ProgressSnapshot struct {
	Label string
	Done  int64
	Total int64
}

func (p *Progress) begin(label string, total int) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.label = label
	p.mu.Unlock()
	p.done.Store(0)
	p.total.Store(int64(total))
}

// update records done trials. Workers report out of order, so only larger
// values are kept.
func (p *Progress) update(done, _ int64) {
	if p == nil {
		return
	}
	for {
		cur := p.done.Load()
		if done <= cur || p.done.CompareAndSwap(cur, done) {
			return
		}
	}
}

// Snapshot returns the current label and counts.
func (p *Progress) Snapshot() ProgressSnapshot {
	if p == nil {
		return ProgressSnapshot{}
	}
	p.mu.Lock()
	label := p.label
	p.mu.Unlock()
	return ProgressSnapshot{Label: label, Done: p.done.Load(), Total: p.total.Load()}
}
