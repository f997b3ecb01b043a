package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/torosent/outbreak/internal/epidemic"
	"github.com/torosent/outbreak/internal/runner"
)

// DefaultWorkers is the worker-count sweep used when none is configured.
var DefaultWorkers = []int{1, 2, 4, 8, 16}

type Config struct {
	DurationDays        int           `mapstructure:"duration_days"`
	Population          int           `mapstructure:"population"`
	InitialInfected     int           `mapstructure:"initial_infected"`
	R0                  float64       `mapstructure:"r0"`
	HospitalizationRate float64       `mapstructure:"hospitalization_rate"`
	RecoveryRate        float64       `mapstructure:"recovery_rate"`
	FatalityRate        float64       `mapstructure:"fatality_rate"`
	BedCapacity         int           `mapstructure:"bed_capacity"`
	Trials              int           `mapstructure:"trials"`
	Workers             []int         `mapstructure:"workers"`
	Seed                int64         `mapstructure:"seed"`
	Timeout             time.Duration `mapstructure:"timeout"`
	Accumulator         string        `mapstructure:"accumulator"`
	SkipSequential      bool          `mapstructure:"skip_sequential"`
	Verify              bool          `mapstructure:"verify"`
	Repeat              int           `mapstructure:"repeat"`
	CSVOutput           string        `mapstructure:"csv_output"`
	HTMLOutput          string        `mapstructure:"html_output"`
	JSONOutput          bool          `mapstructure:"json_output"`
	YAMLOutput          bool          `mapstructure:"yaml_output"`
	ResultsDB           string        `mapstructure:"results_db"`
	Thresholds          []string      `mapstructure:"thresholds"`
	LogLevel            string        `mapstructure:"log_level"`
	LogFormat           string        `mapstructure:"log_format"`
	Progress            bool          `mapstructure:"progress"`
	Tracing             TracingConfig `mapstructure:"tracing"`
	ConfigFile          string        `mapstructure:"-"`
}

// TracingConfig controls OTLP span export. Tracing is off unless an endpoint
// is configured here or through OTEL_EXPORTER_OTLP_ENDPOINT.
type TracingConfig struct {
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"` // "grpc" or "http"
	Insecure    bool    `mapstructure:"insecure"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	ServiceName string  `mapstructure:"service_name"`
}

func (t TracingConfig) Enabled() bool {
	return strings.TrimSpace(t.Endpoint) != ""
}

// Defaults returns the configuration of the reference scenario.
func Defaults() *Config {
	return &Config{
		DurationDays:        100,
		Population:          100000,
		InitialInfected:     10,
		R0:                  2.5,
		HospitalizationRate: 0.1,
		RecoveryRate:        0.1,
		FatalityRate:        0.01,
		BedCapacity:         1000,
		Trials:              10_000_000,
		Workers:             append([]int(nil), DefaultWorkers...),
		Seed:                42,
		Timeout:             runner.DefaultTimeout,
		Accumulator:         string(runner.AccumulatorAtomic),
		Repeat:              1,
		CSVOutput:           "simulation_results.csv",
		LogLevel:            "info",
		LogFormat:           "console",
		Tracing:             TracingConfig{Protocol: "grpc", SampleRate: 1.0},
	}
}

// Params returns the model parameters carried by the configuration.
func (c Config) Params() epidemic.Params {
	return epidemic.Params{
		DurationDays:        c.DurationDays,
		Population:          c.Population,
		InitialInfected:     c.InitialInfected,
		R0:                  c.R0,
		HospitalizationRate: c.HospitalizationRate,
		RecoveryRate:        c.RecoveryRate,
		FatalityRate:        c.FatalityRate,
		BedCapacity:         c.BedCapacity,
	}
}

type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

func (c Config) Validate() error {
	var issues []string

	if err := c.Params().Validate(); err != nil {
		var verr epidemic.ValidationError
		if errors.As(err, &verr) {
			issues = append(issues, verr.Issues()...)
		} else {
			issues = append(issues, err.Error())
		}
	}

	if c.Trials < 0 {
		issues = append(issues, "trials must be >= 0")
	}
	if len(c.Workers) == 0 {
		issues = append(issues, "at least one worker count is required")
	}
	for idx, w := range c.Workers {
		if w < 1 {
			issues = append(issues, fmt.Sprintf("workers[%d]: must be >= 1, got %d", idx, w))
		}
	}
	if c.Repeat < 1 {
		issues = append(issues, "repeat must be >= 1")
	}
	if c.Timeout <= 0 {
		issues = append(issues, "timeout must be > 0")
	}
	if _, ok := runner.AccumulatorFactory(runner.AccumulatorKind(c.Accumulator)); !ok {
		issues = append(issues, fmt.Sprintf("accumulator %q is not supported (use atomic or sharded)", c.Accumulator))
	}
	if c.JSONOutput && c.YAMLOutput {
		issues = append(issues, "json-output and yaml-output are mutually exclusive")
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "console", "json":
	default:
		issues = append(issues, fmt.Sprintf("log format %q is not supported (use console or json)", c.LogFormat))
	}

	issues = append(issues, validateTracingConfig(c.Tracing)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	switch strings.ToLower(t.Protocol) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol must be 'grpc' or 'http', got %q", t.Protocol))
	}
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, fmt.Sprintf("tracing: sample_rate must be between 0.0 and 1.0, got %g", t.SampleRate))
	}
	return issues
}
