package output_test

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"

	"github.com/torosent/outbreak/internal/bench"
	"github.com/torosent/outbreak/internal/epidemic"
	"github.com/torosent/outbreak/internal/metrics"
	"github.com/torosent/outbreak/internal/output"
	"github.com/torosent/outbreak/internal/runner"
	"github.com/torosent/outbreak/internal/threshold"
)

func sampleReport() *bench.Report {
	return &bench.Report{
		RunID:     "01JABCDEF0000000000000000",
		StartedAt: time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
		Params: epidemic.Params{
			DurationDays:        100,
			Population:          100000,
			InitialInfected:     10,
			R0:                  2.5,
			HospitalizationRate: 0.1,
			RecoveryRate:        0.1,
			FatalityRate:        0.01,
			BedCapacity:         1000,
		},
		Seed:        42,
		Trials:      1000,
		Accumulator: "atomic",
		Rows: []bench.Row{
			{
				Mode: bench.ModeSequential, Workers: 1, Trials: 1000,
				Elapsed: 8 * time.Second, TimeMs: 8000, Speedup: 1,
				Totals:      runner.Totals{Deceased: 120000, PeakBeds: 900000, CapacityExceeded: 400},
				AvgDeceased: 120, AvgPeakBeds: 900, CapacityExceeded: 400,
			},
			{
				Mode: bench.ModeParallel, Workers: 4, Trials: 1000,
				Elapsed: 2 * time.Second, TimeMs: 2000, Speedup: 4,
				Totals:      runner.Totals{Deceased: 119000, PeakBeds: 899000, CapacityExceeded: 395},
				AvgDeceased: 119, AvgPeakBeds: 899, CapacityExceeded: 395, Verified: true,
			},
		},
		Distribution: &metrics.Distribution{
			Trials:               1000,
			PeakBeds:             metrics.Summary{Min: 10, Max: 3000, Mean: 900, P50: 850, P90: 1500, P99: 2800},
			Deceased:             metrics.Summary{Min: 0, Max: 400, Mean: 120, P50: 110, P90: 200, P99: 350},
			DaysRun:              metrics.Summary{Min: 3, Max: 100, Mean: 80, P50: 100, P90: 100, P99: 100},
			CapacityExceededRate: 0.4,
		},
	}
}

func sampleThresholds(t *testing.T, report *bench.Report) []threshold.Result {
	t.Helper()
	parsed, err := threshold.ParseMultiple([]string{"speedup:w4 >= 2", "time_ms:seq < 1000"})
	if err != nil {
		t.Fatalf("ParseMultiple() error = %v", err)
	}
	return threshold.NewEvaluator(parsed).Evaluate(report)
}

func TestPrintReportBasic(t *testing.T) {
	var buf bytes.Buffer
	output.PrintReport(&buf, sampleReport())

	out := buf.String()
	for _, want := range []string{
		"Epidemic Benchmark Results",
		"01JABCDEF0000000000000000",
		"Sequential",
		"Parallel",
		"8000",
		"4.00",
		"Baseline Distribution:",
		"p99=2800",
		"Capacity Exceeded: 40.00%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestPrintReportWithoutBaseline(t *testing.T) {
	report := sampleReport()
	report.Rows = report.Rows[1:]
	report.Distribution = nil

	var buf bytes.Buffer
	output.PrintReport(&buf, report)

	out := buf.String()
	if strings.Contains(out, "Sequential") {
		t.Errorf("did not expect a sequential row:\n%s", out)
	}
	if strings.Contains(out, "Baseline Distribution") {
		t.Errorf("did not expect a distribution section:\n%s", out)
	}
}

func TestPrintThresholdResults(t *testing.T) {
	report := sampleReport()
	results := sampleThresholds(t, report)

	var buf bytes.Buffer
	output.PrintThresholdResults(&buf, results)

	out := buf.String()
	if !strings.Contains(out, "✓ speedup:w4 >= 2") {
		t.Errorf("expected passing threshold in output:\n%s", out)
	}
	if !strings.Contains(out, "✗ time_ms:seq < 1000") {
		t.Errorf("expected failing threshold in output:\n%s", out)
	}
	if !strings.Contains(out, "1/2 passed") {
		t.Errorf("expected pass count in output:\n%s", out)
	}

	buf.Reset()
	output.PrintThresholdResults(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output without thresholds, got %q", buf.String())
	}
}

func TestPrintJSONReport(t *testing.T) {
	report := sampleReport()
	var buf bytes.Buffer
	if err := output.PrintJSONReport(&buf, report, sampleThresholds(t, report)); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}

	doc := buf.String()
	if !gjson.Valid(doc) {
		t.Fatalf("invalid JSON:\n%s", doc)
	}
	checks := map[string]string{
		"run_id":                              "01JABCDEF0000000000000000",
		"params.r0":                           "2.5",
		"rows.#":                              "2",
		"rows.0.mode":                         "sequential",
		"rows.1.workers":                      "4",
		"rows.1.speedup":                      "4",
		"rows.1.totals.total_deceased":        "119000",
		"rows.1.verified":                     "true",
		"distribution.peak_beds.p90":          "1500",
		"distribution.capacity_exceeded_rate": "0.4",
		"thresholds.total":                    "2",
		"thresholds.failed":                   "1",
		"thresholds.results.1.selector":       "seq",
	}
	for path, want := range checks {
		if got := gjson.Get(doc, path).String(); got != want {
			t.Errorf("%s = %q, want %q", path, got, want)
		}
	}
	if gjson.Get(doc, "rows.0.Elapsed").Exists() {
		t.Errorf("elapsed duration should not be serialized")
	}
	if gjson.Get(doc, "thresholds.results.0.message").Exists() {
		t.Errorf("passing thresholds should not carry a message")
	}
}

func TestPrintJSONReportWithoutThresholds(t *testing.T) {
	var buf bytes.Buffer
	if err := output.PrintJSONReport(&buf, sampleReport(), nil); err != nil {
		t.Fatalf("PrintJSONReport() error = %v", err)
	}
	if gjson.Get(buf.String(), "thresholds").Exists() {
		t.Errorf("thresholds should be omitted when none are configured")
	}
}

func TestPrintYAMLReport(t *testing.T) {
	report := sampleReport()
	var buf bytes.Buffer
	if err := output.PrintYAMLReport(&buf, report, sampleThresholds(t, report)); err != nil {
		t.Fatalf("PrintYAMLReport() error = %v", err)
	}

	var decoded struct {
		RunID string `yaml:"run_id"`
		Rows  []struct {
			Mode    string  `yaml:"mode"`
			Workers int     `yaml:"workers"`
			Speedup float64 `yaml:"speedup"`
		} `yaml:"rows"`
		Thresholds struct {
			Passed int `yaml:"passed"`
		} `yaml:"thresholds"`
	}
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v\n%s", err, buf.String())
	}
	if decoded.RunID != report.RunID {
		t.Errorf("run_id = %q, want %q", decoded.RunID, report.RunID)
	}
	if len(decoded.Rows) != 2 || decoded.Rows[1].Workers != 4 || decoded.Rows[1].Speedup != 4 {
		t.Errorf("unexpected rows: %+v", decoded.Rows)
	}
	if decoded.Thresholds.Passed != 1 {
		t.Errorf("thresholds.passed = %d, want 1", decoded.Thresholds.Passed)
	}
}
