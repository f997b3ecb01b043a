package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestAsString(t *testing.T) {
	tests := []struct {
		input interface{}
		want  string
	}{
		{"hello", "hello"},
		{123, "123"},
		{true, "true"},
		{nil, ""},
		{[]byte("bytes"), "bytes"},
	}

	for _, tt := range tests {
		got, err := asString(tt.input)
		if err != nil {
			t.Errorf("asString(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asString(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestAsInt(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int
	}{
		{123, 123},
		{"456", 456},
		{int64(789), 789},
		{float64(10.0), 10},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt(tt.input)
		if err != nil {
			t.Errorf("asInt(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsInt64(t *testing.T) {
	tests := []struct {
		input interface{}
		want  int64
	}{
		{int64(-9007199254740993), -9007199254740993},
		{"9223372036854775807", 9223372036854775807},
		{42, 42},
		{float64(7), 7},
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asInt64(tt.input)
		if err != nil {
			t.Errorf("asInt64(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asInt64(%v) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestAsBool(t *testing.T) {
	tests := []struct {
		input interface{}
		want  bool
	}{
		{true, true},
		{"true", true},
		{"1", true},
		{false, false},
		{"false", false},
		{"0", false},
		{nil, false},
	}

	for _, tt := range tests {
		got, err := asBool(tt.input)
		if err != nil {
			t.Errorf("asBool(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asBool(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsDuration(t *testing.T) {
	tests := []struct {
		input interface{}
		want  time.Duration
	}{
		{time.Second, time.Second},
		{"1m", time.Minute},
		{10, 10 * time.Second}, // int treated as seconds
		{nil, 0},
	}

	for _, tt := range tests {
		got, err := asDuration(tt.input)
		if err != nil {
			t.Errorf("asDuration(%v) error = %v", tt.input, err)
		}
		if got != tt.want {
			t.Errorf("asDuration(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestAsIntSlice(t *testing.T) {
	tests := []struct {
		input interface{}
		want  []int
	}{
		{[]interface{}{1, 2.0, "4"}, []int{1, 2, 4}},
		{"1, 2,8", []int{1, 2, 8}},
		{16, []int{16}},
		{[]int{3}, []int{3}},
		{nil, nil},
	}

	for _, tt := range tests {
		got, err := asIntSlice(tt.input)
		if err != nil {
			t.Errorf("asIntSlice(%v) error = %v", tt.input, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("asIntSlice(%v) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if _, err := asIntSlice("1,two"); err == nil {
		t.Error("asIntSlice(\"1,two\") expected error")
	}
}

func TestApplyConfigSettings(t *testing.T) {
	cfg := Defaults()
	settings := map[string]interface{}{
		"population":           5000,
		"r0":                   "3.5",
		"hospitalization_rate": 0.2,
		"workers":              []interface{}{2, 4},
		"seed":                 int64(7),
		"timeout":              "5m",
		"accumulator":          "sharded",
		"verify":               true,
		"thresholds":           []interface{}{"speedup:w4 >= 1"},
		"tracing": map[string]interface{}{
			"endpoint":    "localhost:4317",
			"sample_rate": 0.5,
		},
	}

	if err := applyConfigSettings(cfg, settings); err != nil {
		t.Fatalf("applyConfigSettings() error = %v", err)
	}

	if cfg.Population != 5000 {
		t.Errorf("Population = %d, want 5000", cfg.Population)
	}
	if cfg.R0 != 3.5 {
		t.Errorf("R0 = %v, want 3.5", cfg.R0)
	}
	if cfg.HospitalizationRate != 0.2 {
		t.Errorf("HospitalizationRate = %v, want 0.2", cfg.HospitalizationRate)
	}
	if !reflect.DeepEqual(cfg.Workers, []int{2, 4}) {
		t.Errorf("Workers = %v, want [2 4]", cfg.Workers)
	}
	if cfg.Seed != 7 {
		t.Errorf("Seed = %d, want 7", cfg.Seed)
	}
	if cfg.Timeout != 5*time.Minute {
		t.Errorf("Timeout = %v, want 5m", cfg.Timeout)
	}
	if cfg.Accumulator != "sharded" || !cfg.Verify {
		t.Errorf("Accumulator/Verify = %q/%v, want sharded/true", cfg.Accumulator, cfg.Verify)
	}
	if len(cfg.Thresholds) != 1 {
		t.Errorf("Thresholds = %v, want one entry", cfg.Thresholds)
	}
	if cfg.Tracing.Endpoint != "localhost:4317" || cfg.Tracing.SampleRate != 0.5 {
		t.Errorf("Tracing = %+v", cfg.Tracing)
	}
	if cfg.Tracing.Protocol != "grpc" {
		t.Errorf("Tracing.Protocol = %q, want default grpc kept", cfg.Tracing.Protocol)
	}
	// Untouched settings keep their defaults.
	if cfg.DurationDays != 100 || cfg.BedCapacity != 1000 {
		t.Errorf("defaults overwritten: %+v", cfg)
	}
}

func TestApplyConfigSettingsRejectsBadValues(t *testing.T) {
	tests := []map[string]interface{}{
		{"population": "many"},
		{"r0": []interface{}{1}},
		{"workers": "1,x"},
		{"timeout": "soon"},
		{"verify": "maybe"},
		{"tracing": "localhost"},
	}
	for _, settings := range tests {
		if err := applyConfigSettings(Defaults(), settings); err == nil {
			t.Errorf("applyConfigSettings(%v) expected error", settings)
		}
	}
}

func TestApplyFlagOverrides(t *testing.T) {
	cfg := Defaults()

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	configureFlags(fs)

	args := []string{
		"--trials=500",
		"-w", "3,6",
		"--r0=1.5",
		"--seed=-4",
		"--accumulator=sharded",
		"--threshold=speedup:w6 > 1",
		"--threshold=time_ms:max < 10000",
		"--tracing-insecure",
		"--repeat=5",
		"--html-output=out.html",
	}
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if err := applyFlagOverrides(cfg, fs); err != nil {
		t.Fatalf("applyFlagOverrides() error = %v", err)
	}

	if cfg.Trials != 500 {
		t.Errorf("Trials = %d, want 500", cfg.Trials)
	}
	if !reflect.DeepEqual(cfg.Workers, []int{3, 6}) {
		t.Errorf("Workers = %v, want [3 6]", cfg.Workers)
	}
	if cfg.R0 != 1.5 {
		t.Errorf("R0 = %v, want 1.5", cfg.R0)
	}
	if cfg.Seed != -4 {
		t.Errorf("Seed = %d, want -4", cfg.Seed)
	}
	if cfg.Accumulator != "sharded" {
		t.Errorf("Accumulator = %q, want sharded", cfg.Accumulator)
	}
	if len(cfg.Thresholds) != 2 || cfg.Thresholds[0] != "speedup:w6 > 1" {
		t.Errorf("Thresholds = %q", cfg.Thresholds)
	}
	if cfg.Repeat != 5 || cfg.HTMLOutput != "out.html" {
		t.Errorf("Repeat/HTMLOutput = %d/%q", cfg.Repeat, cfg.HTMLOutput)
	}
	if !cfg.Tracing.Insecure {
		t.Error("Tracing.Insecure = false, want true")
	}
	if cfg.Population != 100000 {
		t.Errorf("Population = %d, unchanged flag must keep default", cfg.Population)
	}
}
