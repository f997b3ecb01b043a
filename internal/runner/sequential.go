package runner

import "github.com/torosent/outbreak/internal/epidemic"

// Sequential runs trials one after another on a single stream seeded once.
type Sequential struct {
	params epidemic.Params
	src    epidemic.Source
}

func NewSequential(p epidemic.Params, seed int64) *Sequential {
	return &Sequential{params: p, src: epidemic.NewSource(seed)}
}

// Next runs the next trial on the stream.
func (s *Sequential) Next() epidemic.Outcome {
	return epidemic.Simulate(s.params, s.src)
}

// Run executes count trials in order, handing each outcome to record.
func (s *Sequential) Run(count int, record func(epidemic.Outcome)) {
	for i := 0; i < count; i++ {
		record(s.Next())
	}
}

// RunSequential returns the outcomes of count trials, in execution order.
func RunSequential(p epidemic.Params, seed int64, count int) []epidemic.Outcome {
	if count <= 0 {
		return nil
	}
	outcomes := make([]epidemic.Outcome, 0, count)
	NewSequential(p, seed).Run(count, func(o epidemic.Outcome) {
		outcomes = append(outcomes, o)
	})
	return outcomes
}

// Summarize folds outcomes into running totals.
func Summarize(outcomes []epidemic.Outcome) Totals {
	var t Totals
	for _, o := range outcomes {
		t.Add(o)
	}
	return t
}
