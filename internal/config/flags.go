package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "outbreak",
		Short:         "Benchmark a stochastic epidemic simulation across worker counts",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	d := Defaults()

	// Model flags
	flags.Int("duration-days", d.DurationDays, "Maximum number of simulated days per trial")
	flags.Int("population", d.Population, "Population size")
	flags.Int("initial-infected", d.InitialInfected, "Infected individuals on day 0")
	flags.Float64("r0", d.R0, "Basic reproduction number")
	flags.Float64("hospitalization-rate", d.HospitalizationRate, "Share of infected needing a bed")
	flags.Float64("recovery-rate", d.RecoveryRate, "Daily recovery rate")
	flags.Float64("fatality-rate", d.FatalityRate, "Daily fatality rate")
	flags.Int("bed-capacity", d.BedCapacity, "Available hospital beds")

	// Run control flags
	flags.IntP("trials", "n", d.Trials, "Number of trials per run")
	flags.IntSliceP("workers", "w", d.Workers, "Worker counts to benchmark (comma separated)")
	flags.Int64("seed", d.Seed, "Base seed; worker i uses seed+i")
	flags.Duration("timeout", d.Timeout, "Bounded wait for each parallel run")
	flags.String("accumulator", d.Accumulator, "Shared totals implementation: 'atomic' or 'sharded'")
	flags.Bool("skip-sequential", false, "Skip the sequential baseline (speedup is reported as 0)")
	flags.Bool("verify", false, "Replay every parallel run sequentially and compare totals")
	flags.Int("repeat", d.Repeat, "Run each configuration this many times and report the median time")

	// Output flags
	flags.String("csv-output", d.CSVOutput, "Write the results table as CSV to this path (empty disables)")
	flags.String("html-output", "", "Write a standalone HTML report to this path")
	flags.Bool("json-output", false, "Emit JSON formatted report")
	flags.Bool("yaml-output", false, "Emit YAML formatted report")
	flags.String("results-db", "", "Append results to this SQLite database")
	flags.Bool("progress", false, "Print periodic progress to stderr")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Logging flags
	flags.String("log-level", d.LogLevel, "Log level: debug, info, warn or error")
	flags.String("log-format", d.LogFormat, "Log format: console or json")

	// Threshold flags
	flags.StringArray("threshold", nil, "Result thresholds (repeatable, e.g., 'speedup:w8 >= 2')")

	// Tracing flags
	flags.String("tracing-endpoint", "", "OTLP collector endpoint (enables tracing)")
	flags.String("tracing-protocol", d.Tracing.Protocol, "OTLP protocol: 'grpc' or 'http'")
	flags.Bool("tracing-insecure", false, "Disable TLS for the OTLP exporter")
	flags.Float64("tracing-sample-rate", d.Tracing.SampleRate, "Trace sampling ratio between 0.0 and 1.0")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\n%s\n\nFlags:\n", cmd.UseLine(), cmd.Short)
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config, overriding
// values from the config file and environment.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	ints := map[string]*int{
		"duration-days":    &cfg.DurationDays,
		"population":       &cfg.Population,
		"initial-infected": &cfg.InitialInfected,
		"bed-capacity":     &cfg.BedCapacity,
		"trials":           &cfg.Trials,
		"repeat":           &cfg.Repeat,
	}
	for name, dst := range ints {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetInt(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	floats := map[string]*float64{
		"r0":                   &cfg.R0,
		"hospitalization-rate": &cfg.HospitalizationRate,
		"recovery-rate":        &cfg.RecoveryRate,
		"fatality-rate":        &cfg.FatalityRate,
		"tracing-sample-rate":  &cfg.Tracing.SampleRate,
	}
	for name, dst := range floats {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	strs := map[string]*string{
		"accumulator":      &cfg.Accumulator,
		"csv-output":       &cfg.CSVOutput,
		"html-output":      &cfg.HTMLOutput,
		"results-db":       &cfg.ResultsDB,
		"log-level":        &cfg.LogLevel,
		"log-format":       &cfg.LogFormat,
		"tracing-endpoint": &cfg.Tracing.Endpoint,
		"tracing-protocol": &cfg.Tracing.Protocol,
	}
	for name, dst := range strs {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetString(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	bools := map[string]*bool{
		"skip-sequential":  &cfg.SkipSequential,
		"verify":           &cfg.Verify,
		"json-output":      &cfg.JSONOutput,
		"yaml-output":      &cfg.YAMLOutput,
		"progress":         &cfg.Progress,
		"tracing-insecure": &cfg.Tracing.Insecure,
	}
	for name, dst := range bools {
		if !fs.Changed(name) {
			continue
		}
		val, err := fs.GetBool(name)
		if err != nil {
			return err
		}
		*dst = val
	}

	if fs.Changed("workers") {
		val, err := fs.GetIntSlice("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("timeout") {
		val, err := fs.GetDuration("timeout")
		if err != nil {
			return err
		}
		cfg.Timeout = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringArray("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = nil
		for _, th := range val {
			if th = strings.TrimSpace(th); th != "" {
				cfg.Thresholds = append(cfg.Thresholds, th)
			}
		}
	}

	return nil
}
