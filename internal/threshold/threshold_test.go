package threshold

import (
	"strings"
	"testing"

	"github.com/torosent/outbreak/internal/bench"
)

func sampleReport() *bench.Report {
	return &bench.Report{
		Trials: 1000,
		Rows: []bench.Row{
			{Mode: bench.ModeSequential, Workers: 1, TimeMs: 8000, Speedup: 1, AvgDeceased: 120, AvgPeakBeds: 900, CapacityExceeded: 400},
			{Mode: bench.ModeParallel, Workers: 2, TimeMs: 4100, Speedup: 1.95, AvgDeceased: 121, AvgPeakBeds: 905, CapacityExceeded: 410},
			{Mode: bench.ModeParallel, Workers: 4, TimeMs: 2200, Speedup: 3.64, AvgDeceased: 119, AvgPeakBeds: 899, CapacityExceeded: 395},
			{Mode: bench.ModeParallel, Workers: 8, TimeMs: 1300, Speedup: 6.15, AvgDeceased: 120, AvgPeakBeds: 901, CapacityExceeded: 402},
		},
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Threshold
		wantError bool
	}{
		{
			name:  "speedup for a worker count",
			input: "speedup:w8 >= 2",
			want: Threshold{
				Metric:   "speedup",
				Selector: "w8",
				Operator: ">=",
				Value:    2,
				Raw:      "speedup:w8 >= 2",
			},
		},
		{
			name:  "baseline time without spaces",
			input: "time_ms:seq<60000",
			want: Threshold{
				Metric:   "time_ms",
				Selector: "seq",
				Operator: "<",
				Value:    60000,
				Raw:      "time_ms:seq<60000",
			},
		},
		{
			name:  "fractional value with surrounding space",
			input: "  speedup:min > 0.9 ",
			want: Threshold{
				Metric:   "speedup",
				Selector: "min",
				Operator: ">",
				Value:    0.9,
				Raw:      "speedup:min > 0.9",
			},
		},
		{
			name:  "equality on capacity overflow",
			input: "capacity_exceeded:max == 0",
			want: Threshold{
				Metric:   "capacity_exceeded",
				Selector: "max",
				Operator: "==",
				Value:    0,
				Raw:      "capacity_exceeded:max == 0",
			},
		},
		{name: "empty", input: "", wantError: true},
		{name: "missing selector", input: "speedup >= 2", wantError: true},
		{name: "unknown metric", input: "latency:w2 < 5", wantError: true},
		{name: "unknown selector", input: "speedup:p95 > 1", wantError: true},
		{name: "zero workers", input: "speedup:w0 > 1", wantError: true},
		{name: "bad operator", input: "speedup:w2 != 1", wantError: true},
		{name: "negative value", input: "speedup:w2 > -1", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantError {
				if err == nil {
					t.Fatalf("Parse(%q) expected error, got %+v", tt.input, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMultiple(t *testing.T) {
	got, err := ParseMultiple([]string{"speedup:w2 > 1", "avg_peak_beds:seq < 1000"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}

	if got, err := ParseMultiple(nil); err != nil || got != nil {
		t.Errorf("ParseMultiple(nil) = %v, %v", got, err)
	}

	_, err = ParseMultiple([]string{"speedup:w2 > 1", "bogus", "time_ms:p99 < 1"})
	if err == nil {
		t.Fatal("ParseMultiple() expected error")
	}
	if !strings.Contains(err.Error(), "threshold[1]") || !strings.Contains(err.Error(), "threshold[2]") {
		t.Errorf("error should list every bad entry: %v", err)
	}
}

func TestEvaluator(t *testing.T) {
	thresholds, err := ParseMultiple([]string{
		"speedup:w8 >= 6",
		"speedup:w2 > 2",
		"time_ms:seq < 10000",
		"speedup:min >= 1.9",
		"avg_deceased:max <= 121",
		"capacity_exceeded:w4 == 395",
		"speedup:w16 > 1",
	})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}

	results := NewEvaluator(thresholds).Evaluate(sampleReport())
	wantPass := []bool{true, false, true, true, true, true, false}
	if len(results) != len(wantPass) {
		t.Fatalf("got %d results, want %d", len(results), len(wantPass))
	}
	for i, r := range results {
		if r.Pass != wantPass[i] {
			t.Errorf("%s: pass = %v, want %v (%s)", r.Threshold.Raw, r.Pass, wantPass[i], r.Message)
		}
	}
	if !strings.Contains(results[6].Message, "no parallel run with 16 workers") {
		t.Errorf("missing-row message = %q", results[6].Message)
	}
	if got := Failed(results); got != 2 {
		t.Errorf("Failed() = %d, want 2", got)
	}
}

func TestEvaluatorNoThresholds(t *testing.T) {
	if results := NewEvaluator(nil).Evaluate(sampleReport()); results != nil {
		t.Errorf("Evaluate() = %v, want nil", results)
	}
}

func TestEvaluateWithoutBaseline(t *testing.T) {
	report := sampleReport()
	report.Rows = report.Rows[1:]

	th, err := Parse("time_ms:seq < 1")
	if err != nil {
		t.Fatal(err)
	}
	results := NewEvaluator([]Threshold{th}).Evaluate(report)
	if results[0].Pass {
		t.Fatal("threshold on a skipped baseline must fail")
	}
	if !strings.Contains(results[0].Message, "baseline was not run") {
		t.Errorf("message = %q", results[0].Message)
	}
}

func TestCompareValues(t *testing.T) {
	tests := []struct {
		actual   float64
		operator string
		expected float64
		want     bool
	}{
		{1, "<", 2, true},
		{2, "<", 2, false},
		{2, "<=", 2, true},
		{3, ">", 2, true},
		{2, ">=", 2.0000000001, true},
		{0.1 + 0.2, "==", 0.3, true},
		{1, "!=", 2, false},
	}
	for _, tt := range tests {
		if got := compareValues(tt.actual, tt.operator, tt.expected); got != tt.want {
			t.Errorf("compareValues(%v %s %v) = %v, want %v", tt.actual, tt.operator, tt.expected, got, tt.want)
		}
	}
}

func TestExtractMetricValue(t *testing.T) {
	report := sampleReport()
	tests := []struct {
		metric   string
		selector string
		want     float64
	}{
		{"speedup", "seq", 1},
		{"speedup", "max", 6.15},
		{"speedup", "min", 1.95},
		{"time_ms", "max", 4100},
		{"time_ms", "min", 1300},
		{"avg_peak_beds", "w4", 899},
		{"capacity_exceeded", "w2", 410},
		{"avg_deceased", "seq", 120},
	}
	for _, tt := range tests {
		got, err := extractMetricValue(Threshold{Metric: tt.metric, Selector: tt.selector}, report)
		if err != nil {
			t.Errorf("%s:%s error = %v", tt.metric, tt.selector, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s:%s = %v, want %v", tt.metric, tt.selector, got, tt.want)
		}
	}

	if _, err := extractMetricValue(Threshold{Metric: "speedup", Selector: "min"}, &bench.Report{}); err == nil {
		t.Error("min over an empty report should fail")
	}
	if _, err := extractMetricValue(Threshold{Metric: "speedup", Selector: "seq"}, nil); err == nil {
		t.Error("nil report should fail")
	}
}
