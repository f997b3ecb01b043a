package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override config-file settings,
// e.g. OUTBREAK_TRIALS or OUTBREAK_TRACING_ENDPOINT.
const EnvPrefix = "OUTBREAK"

// Loader handles loading configuration from files, the environment and
// command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help flag.
var ErrHelpRequested = errors.New("help requested")

// settingKeys lists every key that may come from a file or the environment.
var settingKeys = []string{
	"duration_days", "population", "initial_infected", "r0",
	"hospitalization_rate", "recovery_rate", "fatality_rate", "bed_capacity",
	"trials", "workers", "seed", "timeout", "accumulator",
	"skip_sequential", "verify", "repeat",
	"csv_output", "html_output", "json_output", "yaml_output", "results_db", "thresholds",
	"log_level", "log_format", "progress",
	"tracing.endpoint", "tracing.protocol", "tracing.insecure",
	"tracing.sample_rate", "tracing.service_name",
}

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load builds a Config from defaults, then the config file, then OUTBREAK_*
// environment variables, then explicitly set flags. Later sources win.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}
	if extra := flagSet.Args(); len(extra) > 0 {
		return nil, fmt.Errorf("unexpected arguments: %s", strings.Join(extra, " "))
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", configPath, err)
		}
		if err := ValidateSettings(cfgViper.AllSettings()); err != nil {
			return nil, fmt.Errorf("%s: %w", configPath, err)
		}
	}

	cfgViper.SetEnvPrefix(EnvPrefix)
	cfgViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	for _, key := range settingKeys {
		if err := cfgViper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	cfg := Defaults()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}

	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	cfg.Accumulator = strings.ToLower(strings.TrimSpace(cfg.Accumulator))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(cfg.LogFormat))
	cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(cfg.Tracing.Protocol))
	cfg.CSVOutput = strings.TrimSpace(cfg.CSVOutput)
	cfg.HTMLOutput = strings.TrimSpace(cfg.HTMLOutput)
	cfg.ResultsDB = strings.TrimSpace(cfg.ResultsDB)

	return cfg, nil
}

// applyConfigSettings applies settings from a config file or the environment
// to the Config struct.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	ints := []struct {
		dst  *int
		keys []string
	}{
		{&cfg.DurationDays, []string{"duration_days", "durationdays", "duration-days"}},
		{&cfg.Population, []string{"population"}},
		{&cfg.InitialInfected, []string{"initial_infected", "initialinfected", "initial-infected"}},
		{&cfg.BedCapacity, []string{"bed_capacity", "bedcapacity", "bed-capacity"}},
		{&cfg.Trials, []string{"trials"}},
		{&cfg.Repeat, []string{"repeat"}},
	}
	for _, field := range ints {
		if raw, ok := lookupSetting(settings, field.keys...); ok {
			val, err := asInt(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", field.keys[0], err)
			}
			*field.dst = val
		}
	}

	floats := []struct {
		dst  *float64
		keys []string
	}{
		{&cfg.R0, []string{"r0"}},
		{&cfg.HospitalizationRate, []string{"hospitalization_rate", "hospitalizationrate", "hospitalization-rate"}},
		{&cfg.RecoveryRate, []string{"recovery_rate", "recoveryrate", "recovery-rate"}},
		{&cfg.FatalityRate, []string{"fatality_rate", "fatalityrate", "fatality-rate"}},
	}
	for _, field := range floats {
		if raw, ok := lookupSetting(settings, field.keys...); ok {
			val, err := asFloat64(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", field.keys[0], err)
			}
			*field.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "workers"); ok {
		val, err := asIntSlice(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = val
	}

	if raw, ok := lookupSetting(settings, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		cfg.Timeout = dur
	}

	strs := []struct {
		dst  *string
		keys []string
	}{
		{&cfg.Accumulator, []string{"accumulator"}},
		{&cfg.CSVOutput, []string{"csv_output", "csvoutput", "csv-output"}},
		{&cfg.HTMLOutput, []string{"html_output", "htmloutput", "html-output"}},
		{&cfg.ResultsDB, []string{"results_db", "resultsdb", "results-db"}},
		{&cfg.LogLevel, []string{"log_level", "loglevel", "log-level"}},
		{&cfg.LogFormat, []string{"log_format", "logformat", "log-format"}},
	}
	for _, field := range strs {
		if raw, ok := lookupSetting(settings, field.keys...); ok {
			val, err := asString(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", field.keys[0], err)
			}
			*field.dst = val
		}
	}

	bools := []struct {
		dst  *bool
		keys []string
	}{
		{&cfg.SkipSequential, []string{"skip_sequential", "skipsequential", "skip-sequential"}},
		{&cfg.Verify, []string{"verify"}},
		{&cfg.JSONOutput, []string{"json_output", "jsonoutput", "json-output"}},
		{&cfg.YAMLOutput, []string{"yaml_output", "yamloutput", "yaml-output"}},
		{&cfg.Progress, []string{"progress"}},
	}
	for _, field := range bools {
		if raw, ok := lookupSetting(settings, field.keys...); ok {
			val, err := asBool(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", field.keys[0], err)
			}
			*field.dst = val
		}
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		tracing, err := parseTracing(raw, cfg.Tracing)
		if err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
		cfg.Tracing = tracing
	}

	return nil
}

func parseTracing(value interface{}, base TracingConfig) (TracingConfig, error) {
	if value == nil {
		return base, nil
	}
	settings, err := toStringKeyMap(value)
	if err != nil {
		return base, err
	}

	cfg := base
	if raw, ok := lookupSetting(settings, "endpoint"); ok {
		if cfg.Endpoint, err = asString(raw); err != nil {
			return base, fmt.Errorf("endpoint: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "protocol"); ok {
		if cfg.Protocol, err = asString(raw); err != nil {
			return base, fmt.Errorf("protocol: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "insecure"); ok {
		if cfg.Insecure, err = asBool(raw); err != nil {
			return base, fmt.Errorf("insecure: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "sample_rate", "samplerate", "sample-rate"); ok {
		if cfg.SampleRate, err = asFloat64(raw); err != nil {
			return base, fmt.Errorf("sample_rate: %w", err)
		}
	}
	if raw, ok := lookupSetting(settings, "service_name", "servicename", "service-name"); ok {
		if cfg.ServiceName, err = asString(raw); err != nil {
			return base, fmt.Errorf("service_name: %w", err)
		}
	}
	return cfg, nil
}
