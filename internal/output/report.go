package output

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/torosent/outbreak/internal/bench"
	"github.com/torosent/outbreak/internal/metrics"
	"github.com/torosent/outbreak/internal/threshold"
)

var titleCase = cases.Title(language.English)

// Document is the machine-readable form of a benchmark report.
type Document struct {
	*bench.Report `yaml:",inline"`
	Thresholds    *ThresholdSummary `json:"thresholds,omitempty" yaml:"thresholds,omitempty"`
}

// ThresholdSummary contains the threshold evaluation outcome.
type ThresholdSummary struct {
	Total   int                   `json:"total" yaml:"total"`
	Passed  int                   `json:"passed" yaml:"passed"`
	Failed  int                   `json:"failed" yaml:"failed"`
	Results []ThresholdResultJSON `json:"results" yaml:"results"`
}

// ThresholdResultJSON is one evaluated threshold.
type ThresholdResultJSON struct {
	Threshold string  `json:"threshold" yaml:"threshold"`
	Metric    string  `json:"metric" yaml:"metric"`
	Selector  string  `json:"selector" yaml:"selector"`
	Operator  string  `json:"operator" yaml:"operator"`
	Expected  float64 `json:"expected" yaml:"expected"`
	Actual    float64 `json:"actual" yaml:"actual"`
	Pass      bool    `json:"pass" yaml:"pass"`
	Message   string  `json:"message,omitempty" yaml:"message,omitempty"`
}

// NewDocument pairs a report with its threshold results.
func NewDocument(report *bench.Report, results []threshold.Result) Document {
	return Document{Report: report, Thresholds: summarizeThresholds(results)}
}

func summarizeThresholds(results []threshold.Result) *ThresholdSummary {
	if len(results) == 0 {
		return nil
	}
	summary := &ThresholdSummary{
		Total:   len(results),
		Results: make([]ThresholdResultJSON, len(results)),
	}
	for i, r := range results {
		summary.Results[i] = ThresholdResultJSON{
			Threshold: r.Threshold.Raw,
			Metric:    r.Threshold.Metric,
			Selector:  r.Threshold.Selector,
			Operator:  r.Threshold.Operator,
			Expected:  r.Threshold.Value,
			Actual:    r.Actual,
			Pass:      r.Pass,
		}
		if r.Pass {
			summary.Passed++
		} else {
			summary.Failed++
			summary.Results[i].Message = r.Message
		}
	}
	return summary
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report *bench.Report) {
	p := report.Params
	fmt.Fprintln(w, "\n--- Epidemic Benchmark Results ---")
	fmt.Fprintf(w, "Run ID:            %s\n", report.RunID)
	fmt.Fprintf(w, "Trials:            %d\n", report.Trials)
	fmt.Fprintf(w, "Seed:              %d\n", report.Seed)
	fmt.Fprintf(w, "Accumulator:       %s\n", report.Accumulator)
	fmt.Fprintf(w, "Scenario:          %d days, population %d, %d initially infected, R0 %g\n",
		p.DurationDays, p.Population, p.InitialInfected, p.R0)
	fmt.Fprintf(w, "Rates:             hospitalization %g, recovery %g, fatality %g\n",
		p.HospitalizationRate, p.RecoveryRate, p.FatalityRate)
	fmt.Fprintf(w, "Bed Capacity:      %d\n", p.BedCapacity)

	fmt.Fprintln(w, "\nRuns:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "  Mode\tWorkers\tTime(ms)\tSpeedup\tAvg Deceased\tAvg Peak Beds\tCapacity Exceeded\tVerified")
	for _, row := range report.Rows {
		verified := "-"
		if row.Verified {
			verified = "yes"
		}
		fmt.Fprintf(tw, "  %s\t%d\t%d\t%.2f\t%d\t%d\t%d\t%s\n",
			titleCase.String(string(row.Mode)),
			row.Workers,
			row.TimeMs,
			row.Speedup,
			row.AvgDeceased,
			row.AvgPeakBeds,
			row.CapacityExceeded,
			verified,
		)
	}
	tw.Flush()

	if d := report.Distribution; d != nil && d.Trials > 0 {
		fmt.Fprintln(w, "\nBaseline Distribution:")
		writeSummary(w, "Peak Beds", d.PeakBeds)
		writeSummary(w, "Deceased", d.Deceased)
		writeSummary(w, "Days Run", d.DaysRun)
		fmt.Fprintf(w, "  Capacity Exceeded: %.2f%%\n", d.CapacityExceededRate*100)
	}
}

func writeSummary(w io.Writer, name string, s metrics.Summary) {
	fmt.Fprintf(w, "  %-17s min=%d mean=%.1f p50=%d p90=%d p99=%d max=%d\n",
		name+":", s.Min, s.Mean, s.P50, s.P90, s.P99, s.Max)
}

// PrintThresholdResults lists each threshold with a pass or fail mark.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
	failed := threshold.Failed(results)
	fmt.Fprintf(w, "  %d/%d passed\n", len(results)-failed, len(results))
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report *bench.Report, results []threshold.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(report, results))
}

// PrintYAMLReport outputs a YAML-formatted report.
func PrintYAMLReport(w io.Writer, report *bench.Report, results []threshold.Result) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(report, results)); err != nil {
		return err
	}
	return enc.Close()
}
