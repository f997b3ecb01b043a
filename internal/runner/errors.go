package runner

import (
	"errors"
	"fmt"
	"time"
)

// ErrPoolTimeout is matched by errors returned when a parallel run does not
// finish within its bounded wait.
var ErrPoolTimeout = errors.New("worker pool did not finish within the bounded wait")

// TimeoutError describes an abandoned parallel run.
type TimeoutError struct {
	Workers int
	Trials  int
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("parallel run of %d trials on %d workers did not finish within %s", e.Trials, e.Workers, e.Timeout)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrPoolTimeout
}

// WorkerPanicError reports a worker that panicked while running its shard.
type WorkerPanicError struct {
	Worker int
	Value  any
	Stack  []byte
}

func (e *WorkerPanicError) Error() string {
	return fmt.Sprintf("worker %d panicked: %v", e.Worker, e.Value)
}
