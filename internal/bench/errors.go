package bench

import (
	"fmt"

	"github.com/torosent/outbreak/internal/runner"
)

// VerificationError reports a parallel run whose totals differ from the
// expected ones: either a single-threaded replay of its shards, or an earlier
// repetition of the same run.
type VerificationError struct {
	Workers int
	Got     runner.Totals
	Want    runner.Totals
	Reason  string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("verification failed for %d workers (%s): got %+v, want %+v", e.Workers, e.Reason, e.Got, e.Want)
}
