package epidemic

import (
	"fmt"
	"math"
	"strings"
)

// Params describes one outbreak scenario. It is passed by value and never
// mutated by the model.
type Params struct {
	DurationDays        int     `json:"duration_days" yaml:"duration_days"`               // days to simulate
	Population          int     `json:"population" yaml:"population"`                     // total individuals
	InitialInfected     int     `json:"initial_infected" yaml:"initial_infected"`         // infected at day 0
	R0                  float64 `json:"r0" yaml:"r0"`                                     // secondary infections per infected individual
	HospitalizationRate float64 `json:"hospitalization_rate" yaml:"hospitalization_rate"` // share of infected needing a bed
	RecoveryRate        float64 `json:"recovery_rate" yaml:"recovery_rate"`               // per-day recovery probability
	FatalityRate        float64 `json:"fatality_rate" yaml:"fatality_rate"`               // per-day death probability
	BedCapacity         int     `json:"bed_capacity" yaml:"bed_capacity"`                 // beds available at once
}

// Outcome is the result of one completed trial.
type Outcome struct {
	PeakBeds         int  `json:"peak_beds"`
	CapacityExceeded bool `json:"capacity_exceeded"`
	Deceased         int  `json:"deceased"`
	DaysRun          int  `json:"days_run"`
}

// ValidationError lists every out-of-range field found by Params.Validate.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "invalid params"
	}
	return fmt.Sprintf("invalid params: %s", strings.Join(e.issues, "; "))
}

func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate reports parameters the model would silently turn into nonsense.
// The model itself never calls it.
func (p Params) Validate() error {
	var issues []string

	if p.DurationDays < 1 {
		issues = append(issues, "duration_days must be >= 1")
	}
	if p.Population < 1 {
		issues = append(issues, "population must be >= 1")
	}
	if p.InitialInfected < 0 {
		issues = append(issues, "initial_infected must be >= 0")
	}
	if p.InitialInfected > p.Population {
		issues = append(issues, fmt.Sprintf("initial_infected (%d) must not exceed population (%d)", p.InitialInfected, p.Population))
	}
	if p.R0 < 0 || math.IsNaN(p.R0) || math.IsInf(p.R0, 0) {
		issues = append(issues, "r0 must be a finite value >= 0")
	}
	issues = appendRateIssue(issues, "hospitalization_rate", p.HospitalizationRate)
	issues = appendRateIssue(issues, "recovery_rate", p.RecoveryRate)
	issues = appendRateIssue(issues, "fatality_rate", p.FatalityRate)
	if p.BedCapacity < 0 {
		issues = append(issues, "bed_capacity must be >= 0")
	}

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func appendRateIssue(issues []string, name string, v float64) []string {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return append(issues, fmt.Sprintf("%s must be within [0, 1], got %g", name, v))
	}
	return issues
}
