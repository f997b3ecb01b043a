package threshold

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/outbreak/internal/bench"
)

// Threshold represents a benchmark assertion that can pass or fail.
type Threshold struct {
	Metric   string  // e.g., "speedup", "time_ms", "avg_deceased"
	Selector string  // "seq", "w<N>", "min" or "max"
	Operator string  // e.g., "<", "<=", ">", ">=", "=="
	Value    float64 // The threshold value to compare against
	Raw      string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a benchmark report.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
	}
}

// Evaluate checks all thresholds against the report.
func (e *Evaluator) Evaluate(report *bench.Report) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}

	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, e.evaluateOne(t, report))
	}
	return results
}

// Failed counts results that did not pass.
func Failed(results []Result) int {
	n := 0
	for _, r := range results {
		if !r.Pass {
			n++
		}
	}
	return n
}

func (e *Evaluator) evaluateOne(t Threshold, report *bench.Report) Result {
	actual, err := extractMetricValue(t, report)
	if err != nil {
		return Result{
			Threshold: t,
			Actual:    0,
			Pass:      false,
			Message:   fmt.Sprintf("✗ %s: error: %v", t.Raw, err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}

	message := fmt.Sprintf("%s %s: %.2f %s %.2f", status, t.Raw, actual, t.Operator, t.Value)
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   message,
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9]+)\s*([<>=!]+)\s*([0-9.]+)$`)

// Parse parses a threshold string into a Threshold struct.
// Supported formats:
// - "speedup:w8 >= 2"            (speedup of the 8-worker run)
// - "speedup:min > 0.9"          (slowest parallel run)
// - "time_ms:seq < 60000"        (sequential baseline wall time)
// - "avg_deceased:max <= 150"    (largest per-trial average)
// - "capacity_exceeded:w4 == 0"  (trials that overflowed bed capacity)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected format: metric:selector operator value, e.g., 'speedup:w8 >= 2')", s)
	}

	metric := matches[1]
	selector := matches[2]
	operator := matches[3]
	valueStr := matches[4]

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", valueStr, err)
	}

	if !isValidMetric(metric) {
		return Threshold{}, fmt.Errorf("unsupported metric: %q (supported: %s)", metric, strings.Join(validMetrics, ", "))
	}

	if !isValidSelector(selector) {
		return Threshold{}, fmt.Errorf("unsupported selector: %q (supported: seq, min, max, w<workers>)", selector)
	}

	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	return Threshold{
		Metric:   metric,
		Selector: selector,
		Operator: operator,
		Value:    value,
		Raw:      s,
	}, nil
}

// ParseMultiple parses multiple threshold strings.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var errors []string

	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			errors = append(errors, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(errors, "; "))
	}

	return result, nil
}

var validMetrics = []string{"speedup", "time_ms", "avg_deceased", "avg_peak_beds", "capacity_exceeded"}

func isValidMetric(metric string) bool {
	for _, v := range validMetrics {
		if metric == v {
			return true
		}
	}
	return false
}

func isValidSelector(selector string) bool {
	switch selector {
	case "seq", "min", "max":
		return true
	}
	_, ok := selectorWorkers(selector)
	return ok
}

func selectorWorkers(selector string) (int, bool) {
	rest, ok := strings.CutPrefix(selector, "w")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n, true
}

func isValidOperator(operator string) bool {
	valid := []string{"<", "<=", ">", ">=", "=="}
	for _, v := range valid {
		if operator == v {
			return true
		}
	}
	return false
}

func extractMetricValue(t Threshold, report *bench.Report) (float64, error) {
	if report == nil {
		return 0, fmt.Errorf("no report")
	}

	switch t.Selector {
	case "seq":
		row, ok := report.Baseline()
		if !ok {
			return 0, fmt.Errorf("sequential baseline was not run")
		}
		return rowMetric(t.Metric, row)
	case "min", "max":
		var (
			best  float64
			found bool
		)
		for _, row := range report.Rows {
			if row.Mode != bench.ModeParallel {
				continue
			}
			v, err := rowMetric(t.Metric, row)
			if err != nil {
				return 0, err
			}
			if !found || (t.Selector == "min" && v < best) || (t.Selector == "max" && v > best) {
				best = v
				found = true
			}
		}
		if !found {
			return 0, fmt.Errorf("no parallel runs in report")
		}
		return best, nil
	default:
		workers, ok := selectorWorkers(t.Selector)
		if !ok {
			return 0, fmt.Errorf("unknown selector: %s", t.Selector)
		}
		row, ok := report.Parallel(workers)
		if !ok {
			return 0, fmt.Errorf("no parallel run with %d workers", workers)
		}
		return rowMetric(t.Metric, row)
	}
}

func rowMetric(metric string, row bench.Row) (float64, error) {
	switch metric {
	case "speedup":
		return row.Speedup, nil
	case "time_ms":
		return float64(row.TimeMs), nil
	case "avg_deceased":
		return float64(row.AvgDeceased), nil
	case "avg_peak_beds":
		return float64(row.AvgPeakBeds), nil
	case "capacity_exceeded":
		return float64(row.CapacityExceeded), nil
	default:
		return 0, fmt.Errorf("unknown metric: %s", metric)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	// Handle floating point comparison with small epsilon
	epsilon := 1e-9

	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected || math.Abs(actual-expected) < epsilon
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected || math.Abs(actual-expected) < epsilon
	case "==":
		return math.Abs(actual-expected) < epsilon
	default:
		return false
	}
}
