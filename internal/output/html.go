package output

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/torosent/outbreak/internal/bench"
	"github.com/torosent/outbreak/internal/threshold"
)

// HTMLReportData contains all data needed for the HTML report template.
type HTMLReportData struct {
	GeneratedAt      string
	Report           *bench.Report
	Bars             []SpeedupBar
	ThresholdSummary *ThresholdSummary
}

// SpeedupBar is one bar of the speedup chart. Width is a percentage of the
// widest bar.
type SpeedupBar struct {
	Label   string
	Speedup float64
	TimeMs  int64
	Width   float64
}

// GenerateHTMLReport writes a standalone HTML page with the results table,
// a speedup chart and the baseline distribution.
func GenerateHTMLReport(w io.Writer, report *bench.Report, thresholdResults []threshold.Result) error {
	data := HTMLReportData{
		GeneratedAt:      time.Now().Format(time.RFC3339),
		Report:           report,
		Bars:             speedupBars(report.Rows),
		ThresholdSummary: summarizeThresholds(thresholdResults),
	}

	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"formatFloat": func(f float64) string {
			return fmt.Sprintf("%.2f", f)
		},
		"formatPercent": func(rate float64) string {
			return fmt.Sprintf("%.1f", rate*100)
		},
		"title": func(m bench.Mode) string {
			return titleCase.String(string(m))
		},
	}).Parse(htmlTemplate)
	if err != nil {
		return fmt.Errorf("failed to parse template: %w", err)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	return nil
}

func speedupBars(rows []bench.Row) []SpeedupBar {
	var widest float64
	for _, row := range rows {
		if row.Speedup > widest {
			widest = row.Speedup
		}
	}
	bars := make([]SpeedupBar, 0, len(rows))
	for _, row := range rows {
		bar := SpeedupBar{Label: row.Label(), Speedup: row.Speedup, TimeMs: row.TimeMs}
		if widest > 0 {
			bar.Width = row.Speedup / widest * 100
		}
		bars = append(bars, bar)
	}
	return bars
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>Outbreak Benchmark Report</title>
    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }
        body {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, Arial, sans-serif;
            background: #f5f7fa;
            color: #2c3e50;
            line-height: 1.6;
            padding: 20px;
        }
        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            border-radius: 8px;
            box-shadow: 0 2px 8px rgba(0,0,0,0.1);
            overflow: hidden;
        }
        header {
            background: linear-gradient(135deg, #0f766e 0%, #155e75 100%);
            color: white;
            padding: 30px 40px;
        }
        header h1 { font-size: 2rem; margin-bottom: 10px; }
        header .meta { opacity: 0.9; font-size: 0.9rem; }
        .content { padding: 40px; }
        .section { margin-bottom: 40px; }
        .section h2 {
            font-size: 1.4rem;
            margin-bottom: 16px;
            padding-bottom: 8px;
            border-bottom: 2px solid #e9ecef;
        }
        table { width: 100%; border-collapse: collapse; }
        th, td { padding: 10px 12px; text-align: left; border-bottom: 1px solid #e9ecef; }
        th { background: #f8f9fa; font-size: 0.85rem; text-transform: uppercase; color: #6c757d; }
        .bar-row { display: flex; align-items: center; margin-bottom: 8px; }
        .bar-label { width: 140px; font-size: 0.9rem; }
        .bar { height: 22px; background: #0f766e; border-radius: 4px; min-width: 2px; }
        .bar-value { margin-left: 10px; font-size: 0.85rem; color: #6c757d; }
        .pass { color: #10b981; font-weight: bold; }
        .fail { color: #ef4444; font-weight: bold; }
    </style>
</head>
<body>
<div class="container">
    <header>
        <h1>Outbreak Benchmark Report</h1>
        <div class="meta">Run {{.Report.RunID}} &middot; generated {{.GeneratedAt}}</div>
        <div class="meta">{{.Report.Trials}} trials &middot; seed {{.Report.Seed}} &middot; {{.Report.Accumulator}} accumulator</div>
    </header>
    <div class="content">
        <div class="section">
            <h2>Scenario</h2>
            <table>
                <tr><th>Days</th><th>Population</th><th>Initial Infected</th><th>R0</th><th>Hospitalization</th><th>Recovery</th><th>Fatality</th><th>Beds</th></tr>
                {{with .Report.Params}}
                <tr><td>{{.DurationDays}}</td><td>{{.Population}}</td><td>{{.InitialInfected}}</td><td>{{.R0}}</td><td>{{.HospitalizationRate}}</td><td>{{.RecoveryRate}}</td><td>{{.FatalityRate}}</td><td>{{.BedCapacity}}</td></tr>
                {{end}}
            </table>
        </div>

        <div class="section">
            <h2>Runs</h2>
            <table>
                <tr><th>Mode</th><th>Threads</th><th>Time (ms)</th><th>Speedup</th><th>Avg Deceased</th><th>Avg Peak Beds</th><th>Capacity Exceeded</th><th>Verified</th></tr>
                {{range .Report.Rows}}
                <tr>
                    <td>{{title .Mode}}</td>
                    <td>{{.Label}}</td>
                    <td>{{.TimeMs}}</td>
                    <td>{{formatFloat .Speedup}}</td>
                    <td>{{.AvgDeceased}}</td>
                    <td>{{.AvgPeakBeds}}</td>
                    <td>{{.CapacityExceeded}}</td>
                    <td>{{if .Verified}}<span class="pass">yes</span>{{else}}-{{end}}</td>
                </tr>
                {{end}}
            </table>
        </div>

        {{if .Bars}}
        <div class="section">
            <h2>Speedup</h2>
            {{range .Bars}}
            <div class="bar-row">
                <div class="bar-label">{{.Label}}</div>
                <div class="bar" style="width: {{formatFloat .Width}}%"></div>
                <div class="bar-value">{{formatFloat .Speedup}}x ({{.TimeMs}} ms)</div>
            </div>
            {{end}}
        </div>
        {{end}}

        {{with .Report.Distribution}}
        <div class="section">
            <h2>Baseline Distribution</h2>
            <table>
                <tr><th>Metric</th><th>Min</th><th>Mean</th><th>P50</th><th>P90</th><th>P99</th><th>Max</th></tr>
                <tr><td>Peak Beds</td><td>{{.PeakBeds.Min}}</td><td>{{formatFloat .PeakBeds.Mean}}</td><td>{{.PeakBeds.P50}}</td><td>{{.PeakBeds.P90}}</td><td>{{.PeakBeds.P99}}</td><td>{{.PeakBeds.Max}}</td></tr>
                <tr><td>Deceased</td><td>{{.Deceased.Min}}</td><td>{{formatFloat .Deceased.Mean}}</td><td>{{.Deceased.P50}}</td><td>{{.Deceased.P90}}</td><td>{{.Deceased.P99}}</td><td>{{.Deceased.Max}}</td></tr>
                <tr><td>Days Run</td><td>{{.DaysRun.Min}}</td><td>{{formatFloat .DaysRun.Mean}}</td><td>{{.DaysRun.P50}}</td><td>{{.DaysRun.P90}}</td><td>{{.DaysRun.P99}}</td><td>{{.DaysRun.Max}}</td></tr>
            </table>
            <p>Capacity exceeded in {{formatPercent .CapacityExceededRate}}% of trials.</p>
        </div>
        {{end}}

        {{if .ThresholdSummary}}
        <div class="section">
            <h2>Thresholds ({{.ThresholdSummary.Passed}}/{{.ThresholdSummary.Total}} passed)</h2>
            <table>
                <tr><th>Threshold</th><th>Actual</th><th>Result</th></tr>
                {{range .ThresholdSummary.Results}}
                <tr>
                    <td>{{.Threshold}}</td>
                    <td>{{formatFloat .Actual}}</td>
                    <td>{{if .Pass}}<span class="pass">PASS</span>{{else}}<span class="fail">FAIL</span>{{end}}</td>
                </tr>
                {{end}}
            </table>
        </div>
        {{end}}
    </div>
</div>
</body>
</html>
`
